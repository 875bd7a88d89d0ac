package gif

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"

	"github.com/NathanBaulch/gifcodec/lzw"
)

// Encoder writes a GIF stream block by block: WriteHeader, any number of WriteFrame and
// WriteExtension calls, WriteTrailer and Flush. I/O errors are sticky; validation errors
// leave the stream untouched and may be recovered from.
type Encoder struct {
	bw      *BlockWriter
	opts    Options
	fa      frameAssembler
	header  *Header
	trailer bool
}

// NewEncoder returns an Encoder writing to w. Output is buffered, call Flush when done.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	o := newOptions(opts)
	return &Encoder{
		bw:   NewBlockWriter(w),
		opts: o,
		fa:   frameAssembler{log: o.Logger, allowNoCT: o.AllowMissingColorTable},
	}
}

// Encode writes g to w.
func Encode(w io.Writer, g *GIF, opts ...Option) error {
	return NewEncoder(w, opts...).Encode(g)
}

// EncodeContext writes g to w, checking ctx between blocks.
func EncodeContext(ctx context.Context, w io.Writer, g *GIF, opts ...Option) error {
	return NewEncoder(w, opts...).EncodeContext(ctx, g)
}

func (e *Encoder) Encode(g *GIF) error {
	return e.EncodeContext(context.Background(), g)
}

// EncodeContext writes the complete stream for g and flushes it. An empty Version defaults to
// GIF89a and a zero screen size is taken from the union of the frame bounds.
func (e *Encoder) EncodeContext(ctx context.Context, g *GIF) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hdr := g.Header()
	if hdr.Screen.Width == 0 && hdr.Screen.Height == 0 {
		var r image.Rectangle
		for _, f := range g.Frames() {
			r = r.Union(f.Bounds())
		}
		if r.Max.X > math.MaxUint16 || r.Max.Y > math.MaxUint16 {
			return newError(ErrRasterLengthMismatch, blockScreen, -1, errors.New("frames exceed the largest screen"))
		}
		hdr.Screen.Width, hdr.Screen.Height = uint16(r.Max.X), uint16(r.Max.Y)
	}
	if err := e.WriteHeader(hdr); err != nil {
		return err
	}

	for _, b := range g.Blocks {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch b := b.(type) {
		case *Frame:
			err = e.WriteFrame(b)
		case *Extension:
			err = e.WriteExtension(b)
		default:
			err = fmt.Errorf("gif: unsupported block type %T", b)
		}
		if err != nil {
			return err
		}
	}

	if err := e.WriteTrailer(); err != nil {
		return err
	}
	return e.Flush()
}

// EncodeImage writes a single frame file for m. m must be paletted or use a color.Palette
// color model, with at most 256 colors.
func (e *Encoder) EncodeImage(m image.Image) error {
	b := m.Bounds()
	if b.Dx() > math.MaxUint16 || b.Dy() > math.MaxUint16 {
		return errors.New("gif: image is too large to encode")
	}

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		cp, ok := m.ColorModel().(color.Palette)
		if !ok {
			return errors.New("gif: image must be paletted")
		}
		pm = image.NewPaletted(b, cp)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pm.Set(x, y, cp.Convert(m.At(x, y)))
			}
		}
	}

	f, err := FrameFromPaletted(pm)
	if err != nil {
		return err
	}
	f.Descriptor.Left, f.Descriptor.Top = 0, 0
	global := f.LocalColorTable
	f.LocalColorTable = nil

	return e.Encode(&GIF{
		Version:          Version89a,
		Screen:           ScreenDescriptor{Width: f.Descriptor.Width, Height: f.Descriptor.Height},
		GlobalColorTable: global,
		Blocks:           []Block{f},
	})
}

// WriteHeader writes the signature, logical screen descriptor and global color table.
func (e *Encoder) WriteHeader(h *Header) error {
	if err := e.bw.Err(); err != nil {
		return err
	}
	if e.header != nil {
		return errors.New("gif: header already written")
	}

	version := h.Version
	if version == "" {
		version = Version89a
	}
	if version != Version87a && version != Version89a {
		return newError(ErrBadSignature, blockHeader, e.bw.Offset(), fmt.Errorf("%q", version))
	}
	if h.GlobalColorTable != nil {
		if err := h.GlobalColorTable.Validate(); err != nil {
			return newError(ErrInvalidColorTableSize, blockGlobalTable, e.bw.Offset(), err)
		}
	}
	sd, err := h.Screen.marshal(h.GlobalColorTable)
	if err != nil {
		return classify(err, blockScreen, e.bw.Offset())
	}

	e.bw.WriteToken(Token{Kind: TokenHeader, Data: []byte(version)})
	e.bw.WriteToken(Token{Kind: TokenScreenDescriptor, Data: sd})
	if h.GlobalColorTable != nil {
		e.bw.WriteToken(Token{Kind: TokenColorTable, Data: h.GlobalColorTable.appendBytes(nil)})
	}
	if err := e.bw.Err(); err != nil {
		return err
	}

	e.header = &Header{Version: version, Screen: h.Screen, GlobalColorTable: h.GlobalColorTable}
	e.fa.setScreen(h.GlobalColorTable)
	return nil
}

// WriteFrame writes f, preceded by a graphic control extension when f.Control is set.
func (e *Encoder) WriteFrame(f *Frame) error {
	if err := e.bw.Err(); err != nil {
		return err
	}
	off := e.bw.Offset()
	if err := e.fa.begin(off); err != nil {
		return err
	}
	if e.trailer {
		return errors.New("gif: frame after trailer")
	}

	id := f.Descriptor
	if f.LocalColorTable != nil {
		if err := f.LocalColorTable.Validate(); err != nil {
			return newError(ErrInvalidColorTableSize, blockLocalTable, off, err)
		}
	}
	if n := int(id.Width) * int(id.Height); len(f.Pix) != n {
		return newError(ErrRasterLengthMismatch, blockImageData, off, fmt.Errorf("%d indices for %dx%d frame", len(f.Pix), id.Width, id.Height))
	}
	if err := e.fa.validate(f, off); err != nil {
		return err
	}

	ct, _ := resolveColorTable(e.fa.global, f)
	litWidth := lzw.LitWidth(len(ct))
	if ct == nil {
		litWidth = lzw.LitWidth(int(maxIndex(f.Pix)) + 1)
	}

	if f.Control != nil {
		gc, err := f.Control.marshal()
		if err != nil {
			return classify(err, blockGraphicControl, off)
		}
		e.logExtension87a(ExtGraphicControl, off)
		e.bw.WriteToken(Token{Kind: TokenExtensionIntroducer, Label: ExtGraphicControl})
		e.bw.WriteToken(Token{Kind: TokenSubBlock, Data: gc})
		e.bw.WriteToken(Token{Kind: TokenTerminator})
	}

	desc, err := id.marshal(f.LocalColorTable)
	if err != nil {
		return classify(err, blockImage, off)
	}
	e.bw.WriteToken(Token{Kind: TokenImageDescriptor, Data: desc})
	if f.LocalColorTable != nil {
		e.bw.WriteToken(Token{Kind: TokenColorTable, Data: f.LocalColorTable.appendBytes(nil)})
	}
	e.bw.WriteToken(Token{Kind: TokenCodeSize, Data: []byte{byte(litWidth)}})
	if err := e.bw.Err(); err != nil {
		return err
	}

	pix := f.Pix
	if id.Interlaced {
		pix = interlace(pix, int(id.Width), int(id.Height))
	}
	sbw := &subBlockWriter{bw: e.bw}
	enc, err := lzw.NewEncoder(sbw, litWidth, e.opts.lzwOptions())
	if err != nil {
		return newError(ErrInvalidLZWCode, blockImageData, off, err)
	}
	if _, err := enc.Write(pix); err != nil {
		return classify(err, blockImageData, off)
	}
	if err := enc.Close(); err != nil {
		return classify(err, blockImageData, off)
	}
	if err := sbw.close(); err != nil {
		return err
	}

	e.opts.Logger.Debug("gif: frame written",
		slog.Int64("offset", off),
		slog.Int("width", int(id.Width)),
		slog.Int("height", int(id.Height)),
		slog.Int("litWidth", litWidth))
	return nil
}

func maxIndex(pix []byte) byte {
	var m byte
	for _, c := range pix {
		m = max(m, c)
	}
	return m
}

// WriteExtension writes x verbatim. Graphic control extensions are written by WriteFrame
// and are rejected here.
func (e *Encoder) WriteExtension(x *Extension) error {
	if err := e.bw.Err(); err != nil {
		return err
	}
	off := e.bw.Offset()
	if e.header == nil {
		return newError(ErrDescriptorBeforeHeader, blockExtension, off, nil)
	}
	if x.Label == ExtGraphicControl {
		return newError(ErrMalformedExtension, blockExtension, off, errors.New("graphic control is written with its frame"))
	}
	if err := validateSubBlocks(x.SubBlocks); err != nil {
		return newError(ErrMalformedExtension, blockExtension, off, err)
	}

	e.logExtension87a(x.Label, off)
	e.bw.WriteToken(Token{Kind: TokenExtensionIntroducer, Label: x.Label})
	return e.bw.WriteSubBlocks(x.SubBlocks)
}

// logExtension87a notes extensions written under a GIF87a signature, which does not define
// them.
func (e *Encoder) logExtension87a(label byte, off int64) {
	if e.header.Version == Version87a {
		e.opts.Logger.Debug("gif: extension in GIF87a stream",
			slog.Int("label", int(label)), slog.Int64("offset", off))
	}
}

func (e *Encoder) WriteComment(c *Comment) error {
	x, err := c.Extension()
	if err != nil {
		return err
	}
	return e.WriteExtension(x)
}

func (e *Encoder) WriteApplication(a *Application) error {
	x, err := a.Extension()
	if err != nil {
		return err
	}
	return e.WriteExtension(x)
}

func (e *Encoder) WritePlainText(pt *PlainText) error {
	x, err := pt.Extension()
	if err != nil {
		return err
	}
	return e.WriteExtension(x)
}

func (e *Encoder) WriteTrailer() error {
	if err := e.bw.Err(); err != nil {
		return err
	}
	if e.header == nil {
		return newError(ErrDescriptorBeforeHeader, blockTrailer, e.bw.Offset(), nil)
	}
	e.trailer = true
	return e.bw.WriteToken(Token{Kind: TokenTrailer})
}

func (e *Encoder) Flush() error {
	return e.bw.Flush()
}
