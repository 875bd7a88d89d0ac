package gif

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/NathanBaulch/gifcodec/lzw"
)

// Decoder reads a GIF stream block by block. Call ReadHeader once, then ReadBlock until it
// returns io.EOF at the trailer.
type Decoder struct {
	br     *BlockReader
	opts   Options
	fa     frameAssembler
	header *Header
	done   bool
}

// NewDecoder returns a Decoder reading from r. If r does not also implement io.ByteReader the
// Decoder adds its own buffering and may read past the end of the GIF stream.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	o := newOptions(opts)
	return &Decoder{
		br:   NewBlockReader(r),
		opts: o,
		fa:   frameAssembler{log: o.Logger, allowNoCT: o.AllowMissingColorTable},
	}
}

// Decode reads a complete GIF from r.
func Decode(r io.Reader, opts ...Option) (*GIF, error) {
	return NewDecoder(r, opts...).Decode()
}

// DecodeContext reads a complete GIF from r, checking ctx between blocks.
func DecodeContext(ctx context.Context, r io.Reader, opts ...Option) (*GIF, error) {
	return NewDecoder(r, opts...).DecodeContext(ctx)
}

// Decode reads the remainder of the stream.
func (d *Decoder) Decode() (*GIF, error) {
	return d.DecodeContext(context.Background())
}

// DecodeContext reads the remainder of the stream. On failure the blocks decoded so far are
// returned along with the error, unless ctx was cancelled.
func (d *Decoder) DecodeContext(ctx context.Context) (*GIF, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hdr, err := d.ReadHeader()
	if err != nil {
		return nil, err
	}

	g := &GIF{Version: hdr.Version, Screen: hdr.Screen, GlobalColorTable: hdr.GlobalColorTable}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := d.ReadBlock()
		if b != nil {
			g.Blocks = append(g.Blocks, b)
		}
		if err == io.EOF {
			return g, nil
		} else if err != nil {
			return g, err
		}
	}
}

// ReadHeader reads the signature, logical screen descriptor and global color table. Later
// calls return the same header.
func (d *Decoder) ReadHeader() (*Header, error) {
	if d.header != nil {
		return d.header, nil
	}

	tok, err := d.br.Next()
	if err != nil {
		return nil, err
	}
	hdr := &Header{Version: string(tok.Data)}

	if tok, err = d.br.Next(); err != nil {
		return nil, err
	}
	sd, hasTable, _, err := parseScreenDescriptor(tok.Data)
	if err != nil {
		return nil, newError(ErrTruncatedStream, blockScreen, tok.Offset, err)
	}
	hdr.Screen = sd

	if hasTable {
		if tok, err = d.br.Next(); err != nil {
			return nil, err
		}
		hdr.GlobalColorTable = parseColorTable(tok.Data)
	}

	d.header = hdr
	d.fa.setScreen(hdr.GlobalColorTable)
	d.opts.Logger.Debug("gif: header",
		slog.String("version", hdr.Version),
		slog.Int("width", int(sd.Width)),
		slog.Int("height", int(sd.Height)),
		slog.Int("colors", len(hdr.GlobalColorTable)))
	return hdr, nil
}

// ReadBlock returns the next *Frame or *Extension. Graphic control extensions are attached to
// the frame that follows them. It returns io.EOF once the trailer has been read. When a frame
// fails to decode it may be returned along with the error, holding only the rows received.
func (d *Decoder) ReadBlock() (Block, error) {
	if d.done {
		return nil, io.EOF
	}
	if d.header == nil {
		return nil, newError(ErrDescriptorBeforeHeader, blockIntroducer, d.br.Offset(), errors.New("ReadHeader not called"))
	}

	for {
		tok, err := d.br.Next()
		if err != nil {
			return nil, err
		}

		switch tok.Kind {
		case TokenTrailer:
			d.done = true
			d.fa.finish(tok.Offset)
			return nil, io.EOF

		case TokenExtensionIntroducer:
			if tok.Label == ExtGraphicControl {
				if err := d.readGraphicControl(tok.Offset); err != nil {
					return nil, err
				}
				continue
			}
			x, err := d.readExtension(tok.Label, tok.Offset)
			if err != nil {
				return nil, err
			}
			if d.opts.SkipExtensions {
				continue
			}
			return x, nil

		case TokenImageDescriptor:
			f, err := d.readImage(tok)
			if f == nil {
				return nil, err
			}
			return f, err

		default:
			return nil, newError(ErrUnknownBlockIntroducer, blockIntroducer, tok.Offset, fmt.Errorf("unexpected %v", tok.Kind))
		}
	}
}

// readSubBlocks collects sub-blocks up to the terminator.
func (d *Decoder) readSubBlocks() ([][]byte, error) {
	var sb [][]byte
	for {
		tok, err := d.br.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokenTerminator {
			return sb, nil
		}
		data := make([]byte, len(tok.Data))
		copy(data, tok.Data)
		sb = append(sb, data)
	}
}

func (d *Decoder) readExtension(label byte, off int64) (*Extension, error) {
	sb, err := d.readSubBlocks()
	if err != nil {
		return nil, err
	}
	if d.opts.SkipExtensions {
		d.opts.Logger.Debug("gif: extension skipped", slog.Int("label", int(label)), slog.Int64("offset", off))
		return nil, nil
	}
	return &Extension{Label: label, SubBlocks: sb}, nil
}

func (d *Decoder) readGraphicControl(off int64) error {
	sb, err := d.readSubBlocks()
	if err != nil {
		return err
	}
	if len(sb) != 1 || len(sb[0]) != controlRecordLen {
		return newError(ErrMalformedExtension, blockGraphicControl, off, fmt.Errorf("want one %d byte sub-block, got %d sub-blocks", controlRecordLen, len(sb)))
	}
	gc, err := parseGraphicControl(sb[0])
	if err != nil {
		return newError(ErrMalformedExtension, blockGraphicControl, off, err)
	}
	d.fa.setControl(gc, off)
	return nil
}

func (d *Decoder) readImage(tok Token) (*Frame, error) {
	off := tok.Offset
	if err := d.fa.begin(off); err != nil {
		return nil, err
	}
	id, hasLocal, _, err := parseImageDescriptor(tok.Data)
	if err != nil {
		return nil, newError(ErrTruncatedStream, blockImage, off, err)
	}

	var local ColorTable
	if hasLocal {
		if tok, err = d.br.Next(); err != nil {
			return nil, err
		}
		local = parseColorTable(tok.Data)
	}

	if tok, err = d.br.Next(); err != nil {
		return nil, err
	}
	litWidth := int(tok.Data[0])
	size := int(id.Width) * int(id.Height)
	dec, err := lzw.NewDecoder(litWidth, size, d.opts.lzwOptions())
	if err != nil {
		return nil, newError(ErrInvalidLZWCode, blockImageData, tok.Offset, fmt.Errorf("code size %d: %w", litWidth, err))
	}

	extra := false
	for {
		tok, err := d.br.Next()
		if err != nil {
			// keep what was decoded so far for diagnostics
			raster, _ := dec.Close()
			return d.fa.partial(id, local, raster), err
		}
		if tok.Kind == TokenTerminator {
			break
		}
		if dec.Done() && !extra {
			extra = true
			d.opts.Logger.Debug("gif: data after end code discarded", slog.Int64("offset", tok.Offset))
		}
		if _, err := dec.Write(tok.Data); err != nil {
			raster, _ := dec.Close()
			return d.fa.partial(id, local, raster), lzwError(err, tok.Offset)
		}
	}

	raster, err := dec.Close()
	if err != nil {
		return d.fa.partial(id, local, raster), lzwError(err, off)
	}
	if !dec.Done() {
		d.opts.Logger.Debug("gif: image data without end code", slog.Int64("offset", off))
	}

	return d.fa.assemble(id, local, raster, off)
}

// lzwError maps LZW failures onto the compression kinds.
func lzwError(err error, off int64) error {
	var k error
	switch {
	case errors.Is(err, lzw.ErrDictionaryOverflow):
		k = ErrDictionaryOverflowWithoutReset
	case errors.Is(err, lzw.ErrTooMuchData), errors.Is(err, lzw.ErrNotEnoughData):
		k = ErrRasterLengthMismatch
	default:
		k = ErrInvalidLZWCode
	}
	return newError(k, blockImageData, off, err)
}
