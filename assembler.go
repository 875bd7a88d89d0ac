package gif

import (
	"log/slog"
)

// interlacing represents the set of scans in an interlaced image.
type interlaceScan struct {
	skip, start int
}

var interlacing = [...]interlaceScan{
	{8, 0}, // Group 1 : Every 8th. row, starting with row 0.
	{8, 4}, // Group 2 : Every 8th. row, starting with row 4.
	{4, 2}, // Group 3 : Every 4th. row, starting with row 2.
	{2, 1}, // Group 4 : Every 2nd. row, starting with row 1.
}

// deinterlace returns the rows of pix, stored in pass order, in top to bottom order. A short
// pix places the rows it has and ends after the lowest of them.
func deinterlace(pix []byte, width, height int) []byte {
	if width == 0 {
		return pix
	}
	rows := (len(pix) + width - 1) / width
	last, src := -1, 0
	for _, pass := range interlacing {
		for y := pass.start; y < height && src < rows; y += pass.skip {
			last = max(last, y)
			src++
		}
	}
	if last < 0 {
		return pix
	}

	out := make([]byte, (last+1)*width)
	src = 0
	for _, pass := range interlacing {
		for y := pass.start; y < height && src < rows; y += pass.skip {
			copy(out[y*width:(y+1)*width], pix[src*width:min((src+1)*width, len(pix))])
			src++
		}
	}
	return out
}

// interlace returns the rows of pix in pass order.
func interlace(pix []byte, width, height int) []byte {
	out := make([]byte, len(pix))
	dst := 0
	for _, pass := range interlacing {
		for y := pass.start; y < height; y += pass.skip {
			copy(out[dst*width:(dst+1)*width], pix[y*width:(y+1)*width])
			dst++
		}
	}
	return out
}

// frameAssembler turns image blocks into frames. It tracks the color table context and the
// graphic control extension waiting for the next image.
type frameAssembler struct {
	log        *slog.Logger
	allowNoCT  bool
	haveScreen bool
	global     ColorTable

	pending    *GraphicControl
	pendingOff int64
}

func (fa *frameAssembler) setScreen(global ColorTable) {
	fa.haveScreen = true
	fa.global = global
}

// setControl records gc for the next image. An unconsumed earlier one is replaced.
func (fa *frameAssembler) setControl(gc *GraphicControl, off int64) {
	if fa.pending != nil {
		fa.log.Debug("gif: graphic control extension replaced before use",
			slog.Int64("offset", fa.pendingOff), slog.Int64("replacement", off))
	}
	fa.pending, fa.pendingOff = gc, off
}

// begin checks that an image may start at off.
func (fa *frameAssembler) begin(off int64) error {
	if !fa.haveScreen {
		return newError(ErrDescriptorBeforeHeader, blockImage, off, nil)
	}
	return nil
}

// assemble builds a frame from a descriptor, its optional local table and the raster in
// transmission order. The frame is returned even when its indices fail validation.
func (fa *frameAssembler) assemble(id ImageDescriptor, local ColorTable, raster []byte, off int64) (*Frame, error) {
	if err := fa.begin(off); err != nil {
		return nil, err
	}
	f := fa.partial(id, local, raster)
	return f, fa.validate(f, off)
}

// partial builds a frame without validating its indices. It also serves rasters that stopped
// short, which keep only the rows received.
func (fa *frameAssembler) partial(id ImageDescriptor, local ColorTable, raster []byte) *Frame {
	f := &Frame{Descriptor: id, LocalColorTable: local, Pix: raster}
	if id.Interlaced {
		f.Pix = deinterlace(raster, int(id.Width), int(id.Height))
	}
	f.Control, fa.pending = fa.pending, nil
	return f
}

func (fa *frameAssembler) validate(f *Frame, off int64) error {
	ct, err := resolveColorTable(fa.global, f)
	if err != nil {
		if fa.allowNoCT {
			return nil
		}
		return newError(ErrNoColorTable, blockImage, off, nil)
	}
	if err := checkIndices(ct, f.Control, f.Pix); err != nil {
		return newError(ErrPaletteIndexOutOfRange, blockImageData, off, err)
	}
	return nil
}

// finish is called at the trailer.
func (fa *frameAssembler) finish(off int64) {
	if fa.pending != nil {
		fa.log.Debug("gif: graphic control extension without image dropped",
			slog.Int64("offset", fa.pendingOff), slog.Int64("trailer", off))
		fa.pending = nil
	}
}
