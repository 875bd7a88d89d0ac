package gif

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Error categories. Every error returned by this package matches exactly one of them with
// errors.Is, except context cancellation which is returned as is.
var (
	ErrFormat      = errors.New("gif: format error")
	ErrPalette     = errors.New("gif: palette error")
	ErrCompression = errors.New("gif: compression error")
	ErrIO          = errors.New("gif: i/o error")
)

type kind struct {
	msg      string
	category error
}

func (k *kind) Error() string { return "gif: " + k.msg }
func (k *kind) Unwrap() error { return k.category }

var (
	ErrBadSignature           error = &kind{"bad signature", ErrFormat}
	ErrUnknownBlockIntroducer error = &kind{"unknown block introducer", ErrFormat}
	ErrTruncatedStream        error = &kind{"truncated stream", ErrFormat}
	ErrDescriptorBeforeHeader error = &kind{"image descriptor before logical screen descriptor", ErrFormat}
	ErrMalformedExtension     error = &kind{"malformed extension", ErrFormat}

	ErrInvalidColorTableSize  error = &kind{"invalid color table size", ErrPalette}
	ErrNoColorTable           error = &kind{"no color table", ErrPalette}
	ErrPaletteIndexOutOfRange error = &kind{"palette index out of range", ErrPalette}

	ErrInvalidLZWCode                 error = &kind{"invalid LZW code", ErrCompression}
	ErrRasterLengthMismatch           error = &kind{"raster length mismatch", ErrCompression}
	ErrDictionaryOverflowWithoutReset error = &kind{"LZW dictionary overflow without reset", ErrCompression}
)

// Block names used in errors.
const (
	blockHeader         = "header"
	blockScreen         = "logical screen descriptor"
	blockGlobalTable    = "global color table"
	blockLocalTable     = "local color table"
	blockIntroducer     = "block introducer"
	blockExtension      = "extension"
	blockGraphicControl = "graphic control extension"
	blockImage          = "image descriptor"
	blockImageData      = "image data"
	blockTrailer        = "trailer"
)

// Error describes a failure to decode or encode a GIF stream.
type Error struct {
	Kind   error  // one of the Err* kinds, or ErrIO
	Block  string // block being processed
	Offset int64  // stream offset of the block, or -1 when unknown
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	s := "gif: "
	if e.Block != "" {
		s += e.Block
		if e.Offset >= 0 {
			s += fmt.Sprintf(" at offset %d", e.Offset)
		}
		s += ": "
	}
	switch {
	case e.Err == nil:
		s += strings.TrimPrefix(e.Kind.Error(), "gif: ")
	case errors.Is(e.Err, e.Kind):
		s += strings.TrimPrefix(e.Err.Error(), "gif: ")
	default:
		s += strings.TrimPrefix(e.Kind.Error(), "gif: ") + ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(k error, block string, offset int64, cause error) *Error {
	return &Error{Kind: k, Block: block, Offset: offset, Err: cause}
}

// classify attaches a location to err. Errors that already carry a kind keep it, anything
// else is treated as an I/O failure.
func classify(err error, block string, offset int64) error {
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	var k *kind
	if errors.As(err, &k) {
		return newError(k, block, offset, err)
	}
	return newError(ErrIO, block, offset, err)
}

// readError classifies an error from the byte source. Running out of bytes where the grammar
// requires more is a truncated stream, anything else is an I/O error.
func readError(err error, block string, offset int64) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return newError(ErrTruncatedStream, block, offset, io.ErrUnexpectedEOF)
	}
	return newError(ErrIO, block, offset, err)
}
