// Package lzw implements the variable-width Lempel-Ziv-Welch coding used for GIF image data.
//
// Codes are packed least significant bit first. The dictionary starts with 2^litWidth root
// entries followed by the Clear and End codes, grows by one entry per code and is capped at
// 4096 entries (12-bit codes).
package lzw

import "errors"

const (
	// MaxWidth is the widest code, in bits.
	MaxWidth = 12
	// TableSize is the number of dictionary entries addressable by MaxWidth-bit codes.
	TableSize = 1 << MaxWidth

	MinLitWidth = 2
	MaxLitWidth = 8
)

var (
	ErrInvalidCode        = errors.New("lzw: invalid code")
	ErrDictionaryOverflow = errors.New("lzw: dictionary full without clear code")
	ErrTooMuchData        = errors.New("lzw: too much data")
	ErrNotEnoughData      = errors.New("lzw: not enough data")
	ErrLitWidth           = errors.New("lzw: literal width out of range")
	ErrSymbol             = errors.New("lzw: symbol out of range")
	ErrClosed             = errors.New("lzw: use of closed coder")
)

// Convention selects the point at which the code width grows.
type Convention uint8

const (
	// NoEarlyChange widens codes once the next free dictionary slot needs the extra bit.
	// This is what GIF encoders write.
	NoEarlyChange Convention = iota
	// EarlyChange widens codes one slot earlier, as TIFF-style encoders do.
	EarlyChange
)

func (c Convention) String() string {
	switch c {
	case NoEarlyChange:
		return "no-early-change"
	case EarlyChange:
		return "early-change"
	default:
		return "unknown"
	}
}

// grows reports whether the code width must increase once hi is the next free slot.
func (c Convention) grows(hi uint16, width uint) bool {
	if width >= MaxWidth {
		return false
	}
	limit := uint16(1) << width
	if c == EarlyChange {
		limit--
	}
	return hi >= limit
}

// Options configure a Decoder or Encoder. A nil *Options selects the defaults.
type Options struct {
	Convention Convention
	// DeferredClear lets a decoder keep reading 12-bit codes once the dictionary is full,
	// without adding entries, instead of failing with ErrDictionaryOverflow.
	DeferredClear bool
}

func checkLitWidth(litWidth int) error {
	if litWidth < MinLitWidth || litWidth > MaxLitWidth {
		return ErrLitWidth
	}
	return nil
}

// LitWidth returns the minimum code size for a palette of n entries.
func LitWidth(n int) int {
	w := MinLitWidth
	for w < MaxLitWidth && 1<<w < n {
		w++
	}
	return w
}
