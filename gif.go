// Package gif implements a GIF87a/89a decoder and encoder that exposes the complete block
// structure of a file: screen descriptor, color tables, graphic control data, extensions and
// indexed frame rasters, in file order.
//
// The GIF specification is at https://www.w3.org/Graphics/GIF/spec-gif89a.txt.
package gif

import (
	"image"
	"time"
)

// Versions.
const (
	Version87a = "GIF87a"
	Version89a = "GIF89a"
)

// Section indicators.
const (
	sExtension       = 0x21
	sImageDescriptor = 0x2C
	sTrailer         = 0x3B
)

// Extension labels.
const (
	ExtPlainText      = 0x01
	ExtGraphicControl = 0xF9
	ExtComment        = 0xFE
	ExtApplication    = 0xFF
)

// Masks etc.
const (
	// Fields.
	fColorTable      = 1 << 7
	fColorResolution = 7 << 4
	fSorted          = 1 << 3
	fColorTableSize  = 7

	// Image fields.
	ifLocalColorTable     = 1 << 7
	ifInterlace           = 1 << 6
	ifSorted              = 1 << 5
	ifLocalColorTableSize = 7

	// Graphic control flags.
	gcTransparentColorSet = 1 << 0
	gcUserInputSet        = 1 << 1
	gcDisposalMethod      = 7 << 2
)

// Disposal is the treatment of a frame's area before the next frame is drawn.
type Disposal uint8

const (
	DisposalNone              Disposal = 0
	DisposalDoNotDispose      Disposal = 1
	DisposalRestoreBackground Disposal = 2
	DisposalRestorePrevious   Disposal = 3
)

func (d Disposal) String() string {
	switch d {
	case DisposalNone:
		return "none"
	case DisposalDoNotDispose:
		return "do not dispose"
	case DisposalRestoreBackground:
		return "restore background"
	case DisposalRestorePrevious:
		return "restore previous"
	default:
		return "reserved"
	}
}

type (
	// ScreenDescriptor is the logical screen descriptor. The global color table flag and size
	// are not stored here, they follow from GIF.GlobalColorTable.
	ScreenDescriptor struct {
		Width           uint16
		Height          uint16
		ColorResolution uint8 // Bits per primary color minus one, 0-7.
		Sorted          bool  // Global color table sorted by importance.
		BackgroundIndex uint8 // Background index in the global color table.
		AspectRatio     uint8 // Pixel aspect ratio byte, 0 when unspecified.
	}
	// ImageDescriptor positions a frame on the logical screen. Frames may extend past the
	// screen. The local color table flag and size follow from Frame.LocalColorTable.
	ImageDescriptor struct {
		Left       uint16
		Top        uint16
		Width      uint16
		Height     uint16
		Interlaced bool
		Sorted     bool // Local color table sorted by importance.
	}
	// GraphicControl carries the graphic control extension of a single frame.
	GraphicControl struct {
		Disposal         Disposal
		UserInput        bool
		HasTransparent   bool
		Delay            uint16 // Delay time in 100ths of a second.
		TransparentIndex uint8  // Only meaningful when HasTransparent is set.
	}
	// Frame is one image block. A frame without a local color table uses the global one.
	Frame struct {
		Descriptor      ImageDescriptor
		LocalColorTable ColorTable
		Control         *GraphicControl
		Pix             []byte // Palette indices, row-major, Width*Height long. Nil when empty.
	}
	// Extension is any extension block other than graphic control, kept verbatim.
	// SubBlocks is nil when there are none.
	Extension struct {
		Label     byte
		SubBlocks [][]byte
	}
	// GIF is a complete decoded file. Decoding yields nil rather than empty slices, and
	// encoding treats the two alike.
	GIF struct {
		Version          string // Version87a or Version89a.
		Screen           ScreenDescriptor
		GlobalColorTable ColorTable
		Blocks           []Block // Frames and extensions in file order.
	}
	// Header is everything that precedes the first block.
	Header struct {
		Version          string
		Screen           ScreenDescriptor
		GlobalColorTable ColorTable
	}
)

// Block is either a *Frame or an *Extension.
type Block interface {
	block()
}

func (*Frame) block()     {}
func (*Extension) block() {}

// Bounds returns the frame rectangle on the logical screen.
func (f *Frame) Bounds() image.Rectangle {
	d := f.Descriptor
	return image.Rect(int(d.Left), int(d.Top), int(d.Left)+int(d.Width), int(d.Top)+int(d.Height))
}

// Disposal returns the disposal method, DisposalNone when there is no graphic control.
func (f *Frame) Disposal() Disposal {
	if f.Control == nil {
		return DisposalNone
	}
	return f.Control.Disposal
}

// Delay returns the frame delay.
func (f *Frame) Delay() time.Duration {
	if f.Control == nil {
		return 0
	}
	return time.Duration(f.Control.Delay) * 10 * time.Millisecond
}

// Transparent returns the transparent palette index, if any.
func (f *Frame) Transparent() (uint8, bool) {
	if f.Control == nil || !f.Control.HasTransparent {
		return 0, false
	}
	return f.Control.TransparentIndex, true
}

// Header returns the part of g that precedes the first block.
func (g *GIF) Header() *Header {
	return &Header{Version: g.Version, Screen: g.Screen, GlobalColorTable: g.GlobalColorTable}
}

// Frames returns the frames of g in order.
func (g *GIF) Frames() []*Frame {
	var frames []*Frame
	for _, b := range g.Blocks {
		if f, ok := b.(*Frame); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// FrameCount returns the number of frames in g.
func (g *GIF) FrameCount() int {
	n := 0
	for _, b := range g.Blocks {
		if _, ok := b.(*Frame); ok {
			n++
		}
	}
	return n
}

// Extensions returns the extensions of g with the given label in order.
func (g *GIF) Extensions(label byte) []*Extension {
	var exts []*Extension
	for _, b := range g.Blocks {
		if x, ok := b.(*Extension); ok && x.Label == label {
			exts = append(exts, x)
		}
	}
	return exts
}
