package gif

import (
	"fmt"
	"image"
	"math"
)

// Paletted returns f as a paletted image positioned on the logical screen. The transparent
// index, if any, maps to a fully transparent color.
func (g *GIF) Paletted(f *Frame) (*image.Paletted, error) {
	ct, err := g.ColorTable(f)
	if err != nil {
		return nil, err
	}
	transparent := -1
	if i, ok := f.Transparent(); ok {
		transparent = int(i)
	}
	pm := image.NewPaletted(f.Bounds(), ct.Palette(transparent))
	copy(pm.Pix, f.Pix)
	return pm, nil
}

// NRGBA returns f with its color table applied. Pixels using the transparent index have
// zero alpha.
func (g *GIF) NRGBA(f *Frame) (*image.NRGBA, error) {
	ct, err := g.ColorTable(f)
	if err != nil {
		return nil, err
	}
	if err := checkIndices(ct, f.Control, f.Pix); err != nil {
		return nil, err
	}
	transparent, hasTransparent := f.Transparent()

	m := image.NewNRGBA(f.Bounds())
	for i, c := range f.Pix {
		if hasTransparent && c == transparent {
			continue
		}
		rgb := ct[c]
		m.Pix[4*i] = rgb.R
		m.Pix[4*i+1] = rgb.G
		m.Pix[4*i+2] = rgb.B
		m.Pix[4*i+3] = 0xff
	}
	return m, nil
}

// FrameFromPaletted returns a frame holding pm with its palette as local color table. The
// frame is placed at pm.Rect.Min.
func FrameFromPaletted(pm *image.Paletted) (*Frame, error) {
	b := pm.Bounds()
	if b.Min.X < 0 || b.Min.Y < 0 || b.Max.X > math.MaxUint16 || b.Max.Y > math.MaxUint16 {
		return nil, fmt.Errorf("gif: image bounds %v outside the logical screen range", b)
	}
	ct, err := ColorTableFromPalette(pm.Palette)
	if err != nil {
		return nil, err
	}

	f := &Frame{
		Descriptor: ImageDescriptor{
			Left:   uint16(b.Min.X),
			Top:    uint16(b.Min.Y),
			Width:  uint16(b.Dx()),
			Height: uint16(b.Dy()),
		},
		LocalColorTable: ct,
		Pix:             make([]byte, b.Dx()*b.Dy()),
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := pm.PixOffset(b.Min.X, y)
		copy(f.Pix[(y-b.Min.Y)*b.Dx():], pm.Pix[i:i+b.Dx()])
	}

	for i, c := range pm.Palette {
		if _, _, _, a := c.RGBA(); a == 0 {
			f.Control = &GraphicControl{HasTransparent: true, TransparentIndex: uint8(i)}
			break
		}
	}
	return f, nil
}
