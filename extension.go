package gif

import (
	"errors"
	"fmt"
	"unicode"
)

// NewExtension returns an extension whose payload is split into sub-blocks of at most 255
// bytes.
func NewExtension(label byte, payload []byte) *Extension {
	x := &Extension{Label: label}
	for len(payload) > 0 {
		n := min(len(payload), 0xff)
		x.SubBlocks = append(x.SubBlocks, payload[:n:n])
		payload = payload[n:]
	}
	return x
}

// Payload returns the concatenated sub-block data.
func (x *Extension) Payload() []byte {
	var b []byte
	for _, sb := range x.SubBlocks {
		b = append(b, sb...)
	}
	return b
}

type (
	Comment struct {
		Strings []string // Comments, up to 255 ASCII characters per string.
	}
	// Application is an application extension. Identifier holds the 8 byte application
	// identifier followed by the 3 byte authentication code.
	Application struct {
		Identifier string
		SubBlocks  [][]byte // Optional sub-blocks of arbitrary data.
	}
	// PlainText is a plain text extension. The text grid is positioned on the logical screen
	// and its colors index the global color table.
	PlainText struct {
		Left, Top       uint16
		Width, Height   uint16
		CellWidth       uint8
		CellHeight      uint8
		ForegroundIndex uint8
		BackgroundIndex uint8
		Strings         []string // Text, up to 255 ASCII characters per string.
	}
)

const (
	netscapeIdentifier = "NETSCAPE2.0"
	animextsIdentifier = "ANIMEXTS1.0"
)

// plainTextRecord is the fixed first sub-block of a plain text extension.
type plainTextRecord struct {
	Left, Top, Width, Height uint16
	CellWidth, CellHeight    uint8
	Foreground, Background   uint8
}

const plainTextRecordLen = 12

func validateString(str string) error {
	if len(str) == 0 {
		return errors.New("empty string")
	}
	if len(str) > 0xff {
		return errors.New("string too long")
	}
	for _, c := range str {
		if c > unicode.MaxASCII {
			return errors.New("string must only contain ASCII characters")
		}
	}
	return nil
}

func validateStrings(strings []string) error {
	for _, str := range strings {
		if err := validateString(str); err != nil {
			return err
		}
	}
	return nil
}

func stringSubBlocks(strings []string) [][]byte {
	sb := make([][]byte, len(strings))
	for i, s := range strings {
		sb[i] = []byte(s)
	}
	return sb
}

func subBlockStrings(subBlocks [][]byte) []string {
	if len(subBlocks) == 0 {
		return nil
	}
	strings := make([]string, len(subBlocks))
	for i, sb := range subBlocks {
		strings[i] = string(sb)
	}
	return strings
}

// Extension returns c as a comment extension, one sub-block per string.
func (c *Comment) Extension() (*Extension, error) {
	if err := validateStrings(c.Strings); err != nil {
		return nil, newError(ErrMalformedExtension, blockExtension, -1, fmt.Errorf("comment %v", err))
	}
	return &Extension{Label: ExtComment, SubBlocks: stringSubBlocks(c.Strings)}, nil
}

// Comment interprets x as a comment extension.
func (x *Extension) Comment() (*Comment, bool) {
	if x.Label != ExtComment {
		return nil, false
	}
	return &Comment{Strings: subBlockStrings(x.SubBlocks)}, true
}

func (a *Application) Extension() (*Extension, error) {
	if err := validateString(a.Identifier); err != nil {
		return nil, newError(ErrMalformedExtension, blockExtension, -1, fmt.Errorf("application identifier %v", err))
	}
	if err := validateSubBlocks(a.SubBlocks); err != nil {
		return nil, newError(ErrMalformedExtension, blockExtension, -1, fmt.Errorf("application %v", err))
	}
	sb := make([][]byte, 0, len(a.SubBlocks)+1)
	sb = append(sb, []byte(a.Identifier))
	sb = append(sb, a.SubBlocks...)
	return &Extension{Label: ExtApplication, SubBlocks: sb}, nil
}

// Application interprets x as an application extension.
func (x *Extension) Application() (*Application, bool) {
	if x.Label != ExtApplication || len(x.SubBlocks) == 0 {
		return nil, false
	}
	a := &Application{Identifier: string(x.SubBlocks[0])}
	if len(x.SubBlocks) > 1 {
		a.SubBlocks = x.SubBlocks[1:]
	}
	return a, true
}

// NewLoopApplication returns the NETSCAPE2.0 extension that makes an animation loop n times
// after the first play, 0 meaning forever.
func NewLoopApplication(n uint16) *Application {
	return &Application{
		Identifier: netscapeIdentifier,
		SubBlocks:  [][]byte{{0x01, byte(n), byte(n >> 8)}},
	}
}

// LoopCount returns the loop count of a NETSCAPE2.0 or ANIMEXTS1.0 looping sub-block.
func (a *Application) LoopCount() (int, bool) {
	if a.Identifier != netscapeIdentifier && a.Identifier != animextsIdentifier {
		return 0, false
	}
	for _, sb := range a.SubBlocks {
		if len(sb) == 3 && sb[0] == 0x01 {
			return int(sb[1]) | int(sb[2])<<8, true
		}
	}
	return 0, false
}

// LoopCount returns the loop count of the first looping application extension, 0 meaning
// forever, or -1 when there is none and the animation plays once.
func (g *GIF) LoopCount() int {
	for _, x := range g.Extensions(ExtApplication) {
		if a, ok := x.Application(); ok {
			if n, ok := a.LoopCount(); ok {
				return n
			}
		}
	}
	return -1
}

func (pt *PlainText) Extension() (*Extension, error) {
	if err := validateStrings(pt.Strings); err != nil {
		return nil, newError(ErrMalformedExtension, blockExtension, -1, fmt.Errorf("plain text %v", err))
	}
	head, err := marshalRecord(&plainTextRecord{
		Left:       pt.Left,
		Top:        pt.Top,
		Width:      pt.Width,
		Height:     pt.Height,
		CellWidth:  pt.CellWidth,
		CellHeight: pt.CellHeight,
		Foreground: pt.ForegroundIndex,
		Background: pt.BackgroundIndex,
	})
	if err != nil {
		return nil, newError(ErrMalformedExtension, blockExtension, -1, err)
	}
	sb := make([][]byte, 0, len(pt.Strings)+1)
	sb = append(sb, head)
	sb = append(sb, stringSubBlocks(pt.Strings)...)
	return &Extension{Label: ExtPlainText, SubBlocks: sb}, nil
}

// PlainText interprets x as a plain text extension.
func (x *Extension) PlainText() (*PlainText, bool) {
	if x.Label != ExtPlainText || len(x.SubBlocks) == 0 || len(x.SubBlocks[0]) != plainTextRecordLen {
		return nil, false
	}
	var r plainTextRecord
	if err := unmarshalRecord(x.SubBlocks[0], &r); err != nil {
		return nil, false
	}
	return &PlainText{
		Left:            r.Left,
		Top:             r.Top,
		Width:           r.Width,
		Height:          r.Height,
		CellWidth:       r.CellWidth,
		CellHeight:      r.CellHeight,
		ForegroundIndex: r.Foreground,
		BackgroundIndex: r.Background,
		Strings:         subBlockStrings(x.SubBlocks[1:]),
	}, true
}
