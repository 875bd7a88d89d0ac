package gif

import (
	"bufio"
	"fmt"
	"io"
)

// TokenKind identifies the syntactic element returned by BlockReader.Next.
type TokenKind uint8

const (
	TokenHeader              TokenKind = iota + 1 // 6-byte signature
	TokenScreenDescriptor                         // 7-byte logical screen descriptor
	TokenColorTable                               // 3*2^(n+1) bytes of RGB triples
	TokenExtensionIntroducer                      // 0x21 and the extension label
	TokenImageDescriptor                          // 0x2C and the 9-byte image descriptor
	TokenCodeSize                                 // LZW minimum code size byte
	TokenSubBlock                                 // 1-255 bytes of payload
	TokenTerminator                               // zero-length sub-block
	TokenTrailer                                  // 0x3B
)

var tokenNames = [...]string{
	TokenHeader:              "header",
	TokenScreenDescriptor:    "screen descriptor",
	TokenColorTable:          "color table",
	TokenExtensionIntroducer: "extension introducer",
	TokenImageDescriptor:     "image descriptor",
	TokenCodeSize:            "code size",
	TokenSubBlock:            "sub-block",
	TokenTerminator:          "terminator",
	TokenTrailer:             "trailer",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return fmt.Sprintf("token(%d)", k)
}

// Token is one element of a GIF byte stream. Data excludes introducer, label and length
// bytes; for TokenCodeSize it holds the single code size byte.
type Token struct {
	Kind   TokenKind
	Offset int64 // stream offset of the token's first byte
	Label  byte  // extension label, TokenExtensionIntroducer only
	Data   []byte
}

// If the io.Reader does not also have ReadByte, then the BlockReader will introduce its own
// buffering.
type reader interface {
	io.Reader
	io.ByteReader
}

type readState uint8

const (
	stateHeader readState = iota
	stateScreen
	stateGlobalTable
	stateIntroducer
	stateExtensionData
	stateLocalTable
	stateCodeSize
	stateImageData
	stateDone
)

// BlockReader splits a GIF byte stream into tokens, enforcing the block grammar but not
// interpreting payloads. It never reads past the trailer.
type BlockReader struct {
	r         reader
	off       int64
	state     readState
	tableSize int // pending color table length in bytes
	// scratch space, large enough for a 256-entry color table
	tmp [3 * 256]byte
}

// NewBlockReader returns a BlockReader reading from r.
func NewBlockReader(r io.Reader) *BlockReader {
	r1, _ := r.(reader)
	if r1 == nil {
		r1 = bufio.NewReader(r)
	}
	return &BlockReader{r: r1}
}

// Offset returns the number of bytes consumed so far.
func (br *BlockReader) Offset() int64 {
	return br.off
}

func (br *BlockReader) readByte(block string) (byte, error) {
	c, err := br.r.ReadByte()
	if err != nil {
		return 0, readError(err, block, br.off)
	}
	br.off++
	return c, nil
}

func (br *BlockReader) readFull(b []byte, block string, start int64) error {
	n, err := io.ReadFull(br.r, b)
	br.off += int64(n)
	if err != nil {
		return readError(err, block, start)
	}
	return nil
}

// Next returns the next token. Data is only valid until the following call. After the
// trailer Next returns io.EOF.
func (br *BlockReader) Next() (Token, error) {
	start := br.off
	switch br.state {
	case stateHeader:
		b := br.tmp[:6]
		if err := br.readFull(b, blockHeader, start); err != nil {
			return Token{}, err
		}
		if v := string(b); v != Version87a && v != Version89a {
			return Token{}, newError(ErrBadSignature, blockHeader, start, fmt.Errorf("%q", v))
		}
		br.state = stateScreen
		return Token{Kind: TokenHeader, Offset: start, Data: b}, nil

	case stateScreen:
		b := br.tmp[:screenRecordLen]
		if err := br.readFull(b, blockScreen, start); err != nil {
			return Token{}, err
		}
		br.state = stateIntroducer
		if b[4]&fColorTable != 0 {
			br.tableSize = 3 * tableLen(b[4])
			br.state = stateGlobalTable
		}
		return Token{Kind: TokenScreenDescriptor, Offset: start, Data: b}, nil

	case stateGlobalTable, stateLocalTable:
		block, next := blockGlobalTable, stateIntroducer
		if br.state == stateLocalTable {
			block, next = blockLocalTable, stateCodeSize
		}
		b := br.tmp[:br.tableSize]
		if err := br.readFull(b, block, start); err != nil {
			return Token{}, err
		}
		br.state = next
		return Token{Kind: TokenColorTable, Offset: start, Data: b}, nil

	case stateIntroducer:
		c, err := br.readByte(blockIntroducer)
		if err != nil {
			return Token{}, err
		}
		switch c {
		case sExtension:
			label, err := br.readByte(blockExtension)
			if err != nil {
				return Token{}, err
			}
			br.state = stateExtensionData
			return Token{Kind: TokenExtensionIntroducer, Offset: start, Label: label}, nil

		case sImageDescriptor:
			b := br.tmp[:imageRecordLen]
			if err := br.readFull(b, blockImage, start); err != nil {
				return Token{}, err
			}
			br.state = stateCodeSize
			if b[8]&ifLocalColorTable != 0 {
				br.tableSize = 3 * tableLen(b[8])
				br.state = stateLocalTable
			}
			return Token{Kind: TokenImageDescriptor, Offset: start, Data: b}, nil

		case sTrailer:
			br.state = stateDone
			return Token{Kind: TokenTrailer, Offset: start}, nil

		default:
			return Token{}, newError(ErrUnknownBlockIntroducer, blockIntroducer, start, fmt.Errorf("0x%.2x", c))
		}

	case stateCodeSize:
		b := br.tmp[:1]
		if err := br.readFull(b, blockImageData, start); err != nil {
			return Token{}, err
		}
		br.state = stateImageData
		return Token{Kind: TokenCodeSize, Offset: start, Data: b}, nil

	case stateExtensionData, stateImageData:
		block := blockExtension
		if br.state == stateImageData {
			block = blockImageData
		}
		n, err := br.readByte(block)
		if err != nil {
			return Token{}, err
		}
		if n == 0 {
			br.state = stateIntroducer
			return Token{Kind: TokenTerminator, Offset: start}, nil
		}
		b := br.tmp[:n]
		if err := br.readFull(b, block, start); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenSubBlock, Offset: start, Data: b}, nil
	}

	return Token{}, io.EOF
}
