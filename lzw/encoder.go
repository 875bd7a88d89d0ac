package lzw

import "io"

const (
	hashBits     = 14
	hashSize     = 1 << hashBits
	hashMask     = hashSize - 1
	invalidEntry = 0
)

// Encoder compresses a stream of litWidth-bit symbols. It emits a Clear code first, extends
// the longest dictionary match symbol by symbol and resets the dictionary with another Clear
// code once all 4096 slots are spoken for.
type Encoder struct {
	bits bitWriter
	conv Convention

	litWidth uint
	clear    uint16
	eoi      uint16

	width uint
	// hi mirrors the decoder's next free slot after it reads the last emitted code.
	hi uint16

	prefix    uint16
	hasPrefix bool
	started   bool
	closed    bool
	err       error

	// table maps key<<12|code, where key is prefix<<8|symbol. Zero marks an empty slot.
	table [hashSize]uint32
}

// NewEncoder returns an Encoder writing packed codes to w.
func NewEncoder(w io.ByteWriter, litWidth int, o *Options) (*Encoder, error) {
	if err := checkLitWidth(litWidth); err != nil {
		return nil, err
	}
	if o == nil {
		o = &Options{}
	}
	e := &Encoder{
		bits:     bitWriter{w: w},
		conv:     o.Convention,
		litWidth: uint(litWidth),
		clear:    1 << litWidth,
		eoi:      1<<litWidth + 1,
	}
	e.reset()
	return e, nil
}

func (e *Encoder) reset() {
	e.width = e.litWidth + 1
	e.hi = e.eoi
	for i := range e.table {
		e.table[i] = invalidEntry
	}
}

func (e *Encoder) start() error {
	if !e.started {
		e.started = true
		return e.bits.write(e.clear, e.width)
	}
	return nil
}

// Write compresses the symbols in p.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	if e.err != nil {
		return 0, e.err
	}
	if e.err = e.start(); e.err != nil {
		return 0, e.err
	}
	for i, x := range p {
		if uint16(x) >= e.clear {
			e.err = ErrSymbol
			return i, e.err
		}
		if !e.hasPrefix {
			e.prefix, e.hasPrefix = uint16(x), true
			continue
		}
		key := uint32(e.prefix)<<8 | uint32(x)
		if code, ok := e.lookup(key); ok {
			e.prefix = code
			continue
		}
		if e.err = e.emit(e.prefix); e.err != nil {
			return i, e.err
		}
		if e.hi < TableSize {
			e.insert(key, e.hi)
		} else {
			if e.err = e.bits.write(e.clear, e.width); e.err != nil {
				return i, e.err
			}
			e.reset()
		}
		e.prefix = uint16(x)
	}
	return len(p), nil
}

// emit writes code and advances the dictionary the way a decoder reading it will.
func (e *Encoder) emit(code uint16) error {
	if err := e.bits.write(code, e.width); err != nil {
		return err
	}
	e.hi++
	if e.conv.grows(e.hi, e.width) {
		e.width++
	}
	return nil
}

func (e *Encoder) lookup(key uint32) (uint16, bool) {
	h := (key>>12 ^ key) & hashMask
	for t := e.table[h]; t != invalidEntry; t = e.table[h] {
		if key == t>>12 {
			return uint16(t & (TableSize - 1)), true
		}
		h = (h + 1) & hashMask
	}
	return 0, false
}

func (e *Encoder) insert(key uint32, code uint16) {
	h := (key>>12 ^ key) & hashMask
	for e.table[h] != invalidEntry {
		h = (h + 1) & hashMask
	}
	e.table[h] = key<<12 | uint32(code)
}

// Close writes the pending match, the End code and the final partial byte. It does not close
// the underlying writer.
func (e *Encoder) Close() error {
	if e.closed {
		return ErrClosed
	}
	e.closed = true
	if e.err != nil {
		return e.err
	}
	if e.err = e.start(); e.err != nil {
		return e.err
	}
	if e.hasPrefix {
		if e.err = e.emit(e.prefix); e.err != nil {
			return e.err
		}
	}
	if e.err = e.bits.write(e.eoi, e.width); e.err != nil {
		return e.err
	}
	e.err = e.bits.flush()
	return e.err
}
