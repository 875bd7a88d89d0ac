package lzw

import "io"

// bitReader is an LSB-first cursor over the compressed bytes. Bytes are pushed in as they
// arrive and codes are pulled out once enough bits are buffered.
type bitReader struct {
	acc uint32
	n   uint
}

func (b *bitReader) push(c byte) {
	b.acc |= uint32(c) << b.n
	b.n += 8
}

func (b *bitReader) next(width uint) (uint16, bool) {
	if b.n < width {
		return 0, false
	}
	code := uint16(b.acc & (1<<width - 1))
	b.acc >>= width
	b.n -= width
	return code, true
}

// bitWriter packs codes LSB-first and hands out whole bytes.
type bitWriter struct {
	w   io.ByteWriter
	acc uint32
	n   uint
}

func (b *bitWriter) write(code uint16, width uint) error {
	b.acc |= uint32(code) << b.n
	b.n += width
	for b.n >= 8 {
		if err := b.w.WriteByte(uint8(b.acc)); err != nil {
			return err
		}
		b.acc >>= 8
		b.n -= 8
	}
	return nil
}

// flush pads the final partial byte with zero bits.
func (b *bitWriter) flush() error {
	if b.n == 0 {
		return nil
	}
	err := b.w.WriteByte(uint8(b.acc))
	b.acc, b.n = 0, 0
	return err
}
