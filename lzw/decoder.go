package lzw

import "slices"

const invalidCode = 0xffff

type entry struct {
	prefix uint16
	suffix uint8
	first  uint8
	length uint16
}

// Decoder expands the codes of one image into a raster of a fixed size. Compressed bytes are
// pushed with Write, typically one data sub-block at a time, and the raster is collected with
// Close. Decoding state is owned by the Decoder, so independent images can be decoded
// concurrently with independent Decoders.
type Decoder struct {
	conv          Convention
	deferredClear bool

	litWidth uint
	clear    uint16
	eoi      uint16

	width uint
	hi    uint16 // next free dictionary slot
	last  uint16
	full  bool

	bits  bitReader
	table [TableSize]entry

	out    []byte
	size   int
	n      int
	done   bool
	closed bool
	err    error
}

// NewDecoder returns a Decoder for litWidth-bit symbols producing exactly size symbols.
func NewDecoder(litWidth, size int, o *Options) (*Decoder, error) {
	if err := checkLitWidth(litWidth); err != nil {
		return nil, err
	}
	if o == nil {
		o = &Options{}
	}
	d := &Decoder{
		conv:          o.Convention,
		deferredClear: o.DeferredClear,
		litWidth:      uint(litWidth),
		clear:         1 << litWidth,
		eoi:           1<<litWidth + 1,
		size:          size,
	}
	for i := uint16(0); i < d.clear; i++ {
		d.table[i] = entry{prefix: invalidCode, suffix: uint8(i), first: uint8(i), length: 1}
	}
	d.reset()
	return d, nil
}

func (d *Decoder) reset() {
	d.width = d.litWidth + 1
	d.hi = d.eoi + 1
	d.last = invalidCode
	d.full = false
}

// Write decodes the compressed bytes in p. Bytes following the End code are discarded.
func (d *Decoder) Write(p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	if d.err != nil {
		return 0, d.err
	}
	for i, c := range p {
		if d.done {
			return len(p), nil
		}
		d.bits.push(c)
		for !d.done {
			code, ok := d.bits.next(d.width)
			if !ok {
				break
			}
			if d.err = d.decode(code); d.err != nil {
				return i, d.err
			}
		}
	}
	return len(p), nil
}

func (d *Decoder) decode(code uint16) error {
	switch {
	case code == d.clear:
		d.reset()
		return nil
	case code == d.eoi:
		d.done = true
		return nil
	}

	if d.full {
		if !d.deferredClear {
			return ErrDictionaryOverflow
		}
		// the dictionary is frozen, every other code names an existing entry
		return d.emit(code)
	}

	if d.last == invalidCode {
		if code >= d.clear {
			return ErrInvalidCode
		}
		d.last = code
		return d.emit(code)
	}

	var first uint8
	switch {
	case code < d.hi:
		first = d.table[code].first
	case code == d.hi:
		first = d.table[d.last].first
	default:
		return ErrInvalidCode
	}

	prev := d.table[d.last]
	d.table[d.hi] = entry{prefix: d.last, suffix: first, first: prev.first, length: prev.length + 1}
	d.hi++
	if err := d.emit(code); err != nil {
		return err
	}
	d.last = code

	if d.hi == TableSize {
		d.full = true
	} else if d.conv.grows(d.hi, d.width) {
		d.width++
	}
	return nil
}

// emit writes the expansion of code to the output.
func (d *Decoder) emit(code uint16) error {
	l := int(d.table[code].length)
	if d.n+l > d.size {
		return ErrTooMuchData
	}
	d.out = slices.Grow(d.out, l)[:d.n+l]
	for i := d.n + l - 1; i >= d.n; i-- {
		e := d.table[code]
		d.out[i] = e.suffix
		code = e.prefix
	}
	d.n += l
	return nil
}

// Len returns the number of symbols decoded so far.
func (d *Decoder) Len() int {
	return d.n
}

// Done reports whether the End code has been read.
func (d *Decoder) Done() bool {
	return d.done
}

// Close finishes decoding and returns the raster. On error the raster holds only the symbols
// decoded before the failure. An empty raster is nil.
func (d *Decoder) Close() ([]byte, error) {
	if d.closed {
		return d.out, ErrClosed
	}
	d.closed = true
	if d.err != nil {
		return d.out, d.err
	}
	if d.n < d.size {
		return d.out, ErrNotEnoughData
	}
	return d.out, nil
}
