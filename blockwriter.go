package gif

import (
	"bufio"
	"fmt"
	"io"
)

// writer is a buffered writer.
type writer interface {
	Flush() error
	io.Writer
	io.ByteWriter
}

// BlockWriter frames tokens onto a byte stream. It is the mirror of BlockReader: writing every
// token read from a stream reproduces that stream. The first error encountered is sticky and
// all later writes become no-ops.
type BlockWriter struct {
	w   writer
	off int64
	err error
	buf [2]byte
}

// NewBlockWriter returns a BlockWriter writing to w. Output is buffered unless w already
// provides Flush and WriteByte; call Flush when done.
func NewBlockWriter(w io.Writer) *BlockWriter {
	w1, _ := w.(writer)
	if w1 == nil {
		w1 = bufio.NewWriter(w)
	}
	return &BlockWriter{w: w1}
}

// Offset returns the number of bytes written so far.
func (bw *BlockWriter) Offset() int64 {
	return bw.off
}

// Err returns the first error encountered.
func (bw *BlockWriter) Err() error {
	return bw.err
}

func (bw *BlockWriter) write(p []byte) {
	if bw.err != nil {
		return
	}
	n, err := bw.w.Write(p)
	bw.off += int64(n)
	if err != nil {
		bw.err = newError(ErrIO, "", bw.off, err)
	}
}

func (bw *BlockWriter) writeByte(b byte) {
	if bw.err != nil {
		return
	}
	if err := bw.w.WriteByte(b); err != nil {
		bw.err = newError(ErrIO, "", bw.off, err)
		return
	}
	bw.off++
}

// WriteToken writes t with the introducer, label or length byte its kind requires.
func (bw *BlockWriter) WriteToken(t Token) error {
	if bw.err != nil {
		return bw.err
	}
	switch t.Kind {
	case TokenHeader, TokenScreenDescriptor, TokenColorTable:
		bw.write(t.Data)
	case TokenExtensionIntroducer:
		bw.buf[0], bw.buf[1] = sExtension, t.Label
		bw.write(bw.buf[:2])
	case TokenImageDescriptor:
		bw.writeByte(sImageDescriptor)
		bw.write(t.Data)
	case TokenCodeSize:
		if len(t.Data) != 1 {
			return fmt.Errorf("gif: code size token must hold one byte, got %d", len(t.Data))
		}
		bw.writeByte(t.Data[0])
	case TokenSubBlock:
		if len(t.Data) == 0 || len(t.Data) > 0xff {
			return newError(ErrMalformedExtension, "sub-block", bw.off, fmt.Errorf("length %d", len(t.Data)))
		}
		bw.writeByte(byte(len(t.Data)))
		bw.write(t.Data)
	case TokenTerminator:
		bw.writeByte(0x00)
	case TokenTrailer:
		bw.writeByte(sTrailer)
	default:
		return fmt.Errorf("gif: unknown token kind %v", t.Kind)
	}
	return bw.err
}

// WriteData writes payload as a run of sub-blocks of at most 255 bytes followed by a
// terminator.
func (bw *BlockWriter) WriteData(payload []byte) error {
	for len(payload) > 0 {
		n := min(len(payload), 0xff)
		bw.writeByte(byte(n))
		bw.write(payload[:n])
		payload = payload[n:]
	}
	bw.writeByte(0x00)
	return bw.err
}

// WriteSubBlocks writes each element of subBlocks as one sub-block, followed by a terminator.
func (bw *BlockWriter) WriteSubBlocks(subBlocks [][]byte) error {
	if err := validateSubBlocks(subBlocks); err != nil {
		return newError(ErrMalformedExtension, blockExtension, bw.off, err)
	}
	for _, sb := range subBlocks {
		bw.writeByte(byte(len(sb)))
		bw.write(sb)
	}
	bw.writeByte(0x00)
	return bw.err
}

func validateSubBlocks(subBlocks [][]byte) error {
	for i, sb := range subBlocks {
		if len(sb) == 0 {
			return fmt.Errorf("sub-block %d is empty", i)
		}
		if len(sb) > 0xff {
			return fmt.Errorf("sub-block %d too long: %d bytes", i, len(sb))
		}
	}
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (bw *BlockWriter) Flush() error {
	if bw.err != nil {
		return bw.err
	}
	if err := bw.w.Flush(); err != nil {
		bw.err = newError(ErrIO, "", bw.off, err)
	}
	return bw.err
}

// subBlockWriter collects LZW output into sub-blocks of up to 255 bytes. It is the writer
// given to the LZW encoder, which is thus immune to the blocking.
type subBlockWriter struct {
	bw  *BlockWriter
	buf [256]byte
}

func (b *subBlockWriter) WriteByte(c byte) error {
	if b.bw.err != nil {
		return b.bw.err
	}

	// Append c to buffered sub-block.
	b.buf[0]++
	b.buf[b.buf[0]] = c
	if b.buf[0] < 255 {
		return nil
	}

	// Flush block
	b.bw.write(b.buf[:256])
	b.buf[0] = 0
	return b.bw.err
}

// close writes the partial sub-block and the terminator.
func (b *subBlockWriter) close() error {
	if b.buf[0] > 0 {
		b.bw.write(b.buf[:b.buf[0]+1])
		b.buf[0] = 0
	}
	b.bw.writeByte(0x00)
	return b.bw.err
}
