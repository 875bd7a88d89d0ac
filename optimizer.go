package gif

import (
	"errors"
	"image"
)

// OptimizeAll replaces unchanged pixels of each frame after the first with the transparent
// palette index, then crops each frame to omit unchanged regions where possible. Optimized
// frames get a graphic control extension with transparentIndex set.
func OptimizeAll(frames []*Frame, transparentIndex uint8) error {
	if len(frames) < 2 {
		return nil
	}

	o := NewOptimizer(transparentIndex)
	for _, f := range frames {
		if err := o.Optimize(f); err != nil {
			return err
		}
	}
	return nil
}

// NewOptimizer returns a new Optimizer with the given transparent palette index.
func NewOptimizer(transparentIndex uint8) *Optimizer {
	return &Optimizer{transparent: transparentIndex}
}

// Optimizer tracks the indices currently on screen. It assumes every frame is drawn over the
// previous ones without disposal.
type Optimizer struct {
	screen      image.Rectangle
	pix         []byte
	transparent uint8
}

// Optimize compares f with the screen left by the previous frames, replaces identical pixels
// with the transparent index and crops f to the smallest rectangle containing all changed
// pixels. The first frame cannot be optimized and only initializes the screen.
func (o *Optimizer) Optimize(f *Frame) error {
	r := f.Bounds()
	if len(f.Pix) != r.Dx()*r.Dy() {
		return newError(ErrRasterLengthMismatch, blockImageData, -1, nil)
	}

	if o.pix == nil {
		o.screen = r
		o.pix = make([]byte, len(f.Pix))
		copy(o.pix, f.Pix)
		return nil
	}

	if r.Empty() {
		return nil
	}
	if !r.In(o.screen) {
		return errors.New("gif: frame outside bounds")
	}

	var crop image.Rectangle
	w := r.Dx()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := f.Pix[(y-r.Min.Y)*w : (y-r.Min.Y+1)*w]
		si := (y-o.screen.Min.Y)*o.screen.Dx() + r.Min.X - o.screen.Min.X
		screen := o.pix[si : si+w]
		x0, x1 := -1, -1
		for x, c := range row {
			if c == screen[x] || c == o.transparent {
				row[x] = o.transparent
				continue
			}
			screen[x] = c
			if x0 < 0 {
				x0 = x
			}
			x1 = x + 1
		}
		if x0 >= 0 {
			crop = crop.Union(image.Rect(r.Min.X+x0, y, r.Min.X+x1, y+1))
		}
	}

	if crop.Empty() {
		crop = image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Min.Y+1)
	}
	if !crop.Eq(r) {
		pix := make([]byte, 0, crop.Dx()*crop.Dy())
		for y := crop.Min.Y; y < crop.Max.Y; y++ {
			i := (y-r.Min.Y)*w + crop.Min.X - r.Min.X
			pix = append(pix, f.Pix[i:i+crop.Dx()]...)
		}
		f.Pix = pix
		f.Descriptor.Left, f.Descriptor.Top = uint16(crop.Min.X), uint16(crop.Min.Y)
		f.Descriptor.Width, f.Descriptor.Height = uint16(crop.Dx()), uint16(crop.Dy())
	}

	if f.Control == nil {
		f.Control = &GraphicControl{}
	}
	f.Control.HasTransparent = true
	f.Control.TransparentIndex = o.transparent
	return nil
}
