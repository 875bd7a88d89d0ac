package gif

import (
	"fmt"
	"image/color"
)

// RGB is a color table entry.
type RGB struct {
	R, G, B uint8
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// ColorTable is a global or local color table. Its length must be a power of two between 2
// and 256.
type ColorTable []RGB

var log2Lookup = [8]int{2, 4, 8, 16, 32, 64, 128, 256}

// sizeExponent returns the 3-bit size field for n entries, the smallest e with 2^(e+1) >= n.
func sizeExponent(n int) uint8 {
	for i, v := range log2Lookup {
		if n <= v {
			return uint8(i)
		}
	}
	return 7
}

// tableLen returns the number of entries described by a 3-bit size field.
func tableLen(exp uint8) int {
	return 1 << (exp&fColorTableSize + 1)
}

// Validate checks the table length.
func (ct ColorTable) Validate() error {
	n := len(ct)
	if n < 2 || n > 256 || n&(n-1) != 0 {
		return fmt.Errorf("%w: %d entries", ErrInvalidColorTableSize, n)
	}
	return nil
}

// Padded returns ct extended with black entries to the next valid table length. Tables with
// more than 256 entries are truncated.
func (ct ColorTable) Padded() ColorTable {
	n := tableLen(sizeExponent(len(ct)))
	if len(ct) == n {
		return ct
	}
	out := make(ColorTable, n)
	copy(out, ct)
	return out
}

// Palette converts ct to a color.Palette. When transparent is a valid index that entry
// becomes fully transparent.
func (ct ColorTable) Palette(transparent int) color.Palette {
	p := make(color.Palette, len(ct))
	for i, c := range ct {
		p[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}
	if transparent >= 0 && transparent < len(p) {
		p[transparent] = color.RGBA{}
	}
	return p
}

// ColorTableFromPalette converts p, padded to a valid table length.
func ColorTableFromPalette(p color.Palette) (ColorTable, error) {
	if len(p) == 0 || len(p) > 256 {
		return nil, fmt.Errorf("%w: %d palette entries", ErrInvalidColorTableSize, len(p))
	}
	ct := make(ColorTable, len(p))
	for i, c := range p {
		rgba := color.RGBAModel.Convert(c).(color.RGBA)
		ct[i] = RGB{rgba.R, rgba.G, rgba.B}
	}
	return ct.Padded(), nil
}

func (ct ColorTable) appendBytes(b []byte) []byte {
	for _, c := range ct {
		b = append(b, c.R, c.G, c.B)
	}
	return b
}

func parseColorTable(b []byte) ColorTable {
	ct := make(ColorTable, len(b)/3)
	for i := range ct {
		ct[i] = RGB{b[3*i], b[3*i+1], b[3*i+2]}
	}
	return ct
}

// resolveColorTable returns the table that applies to f: its local table, else the global.
func resolveColorTable(global ColorTable, f *Frame) (ColorTable, error) {
	if f.LocalColorTable != nil {
		return f.LocalColorTable, nil
	}
	if global != nil {
		return global, nil
	}
	return nil, ErrNoColorTable
}

// ColorTable returns the color table that applies to f.
func (g *GIF) ColorTable(f *Frame) (ColorTable, error) {
	return resolveColorTable(g.GlobalColorTable, f)
}

// BackgroundColor returns the global color table entry of the background index.
func (g *GIF) BackgroundColor() (RGB, bool) {
	i := int(g.Screen.BackgroundIndex)
	if i >= len(g.GlobalColorTable) {
		return RGB{}, false
	}
	return g.GlobalColorTable[i], true
}

// checkIndices reports the first palette index in pix that ct cannot resolve, along with the
// transparent index of ctl.
func checkIndices(ct ColorTable, ctl *GraphicControl, pix []byte) error {
	n := len(ct)
	if ctl != nil && ctl.HasTransparent && int(ctl.TransparentIndex) >= n {
		return fmt.Errorf("%w: transparent index %d, %d colors", ErrPaletteIndexOutOfRange, ctl.TransparentIndex, n)
	}
	if n >= 256 {
		return nil
	}
	for i, c := range pix {
		if int(c) >= n {
			return fmt.Errorf("%w: index %d at pixel %d, %d colors", ErrPaletteIndexOutOfRange, c, i, n)
		}
	}
	return nil
}
