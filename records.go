package gif

import (
	bst "github.com/mixcode/binarystruct"
)

// Fixed-layout records, little endian as on the wire.
type (
	screenRecord struct {
		Width       uint16
		Height      uint16
		Flags       uint8
		Background  uint8
		AspectRatio uint8
	}
	imageRecord struct {
		Left   uint16
		Top    uint16
		Width  uint16
		Height uint16
		Flags  uint8
	}
	controlRecord struct {
		Flags       uint8
		Delay       uint16
		Transparent uint8
	}
)

const (
	screenRecordLen  = 7
	imageRecordLen   = 9
	controlRecordLen = 4
)

func unmarshalRecord(b []byte, v any) error {
	_, err := bst.Unmarshal(b, bst.LittleEndian, v)
	return err
}

func marshalRecord(v any) ([]byte, error) {
	return bst.Marshal(v, bst.LittleEndian)
}

func parseScreenDescriptor(b []byte) (ScreenDescriptor, bool, uint8, error) {
	var r screenRecord
	if err := unmarshalRecord(b, &r); err != nil {
		return ScreenDescriptor{}, false, 0, err
	}
	sd := ScreenDescriptor{
		Width:           r.Width,
		Height:          r.Height,
		ColorResolution: (r.Flags & fColorResolution) >> 4,
		Sorted:          r.Flags&fSorted != 0,
		BackgroundIndex: r.Background,
		AspectRatio:     r.AspectRatio,
	}
	return sd, r.Flags&fColorTable != 0, r.Flags & fColorTableSize, nil
}

func (sd *ScreenDescriptor) marshal(global ColorTable) ([]byte, error) {
	r := screenRecord{
		Width:       sd.Width,
		Height:      sd.Height,
		Flags:       (sd.ColorResolution << 4) & fColorResolution,
		Background:  sd.BackgroundIndex,
		AspectRatio: sd.AspectRatio,
	}
	if sd.Sorted {
		r.Flags |= fSorted
	}
	if global != nil {
		r.Flags |= fColorTable | sizeExponent(len(global))
	}
	return marshalRecord(&r)
}

func parseImageDescriptor(b []byte) (ImageDescriptor, bool, uint8, error) {
	var r imageRecord
	if err := unmarshalRecord(b, &r); err != nil {
		return ImageDescriptor{}, false, 0, err
	}
	id := ImageDescriptor{
		Left:       r.Left,
		Top:        r.Top,
		Width:      r.Width,
		Height:     r.Height,
		Interlaced: r.Flags&ifInterlace != 0,
		Sorted:     r.Flags&ifSorted != 0,
	}
	return id, r.Flags&ifLocalColorTable != 0, r.Flags & ifLocalColorTableSize, nil
}

func (id *ImageDescriptor) marshal(local ColorTable) ([]byte, error) {
	r := imageRecord{
		Left:   id.Left,
		Top:    id.Top,
		Width:  id.Width,
		Height: id.Height,
	}
	if id.Interlaced {
		r.Flags |= ifInterlace
	}
	if id.Sorted {
		r.Flags |= ifSorted
	}
	if local != nil {
		r.Flags |= ifLocalColorTable | sizeExponent(len(local))
	}
	return marshalRecord(&r)
}

func parseGraphicControl(b []byte) (*GraphicControl, error) {
	var r controlRecord
	if err := unmarshalRecord(b, &r); err != nil {
		return nil, err
	}
	return &GraphicControl{
		Disposal:         Disposal((r.Flags & gcDisposalMethod) >> 2),
		UserInput:        r.Flags&gcUserInputSet != 0,
		HasTransparent:   r.Flags&gcTransparentColorSet != 0,
		Delay:            r.Delay,
		TransparentIndex: r.Transparent,
	}, nil
}

func (gc *GraphicControl) marshal() ([]byte, error) {
	r := controlRecord{
		Flags:       (uint8(gc.Disposal) << 2) & gcDisposalMethod,
		Delay:       gc.Delay,
		Transparent: gc.TransparentIndex,
	}
	if gc.UserInput {
		r.Flags |= gcUserInputSet
	}
	if gc.HasTransparent {
		r.Flags |= gcTransparentColorSet
	}
	return marshalRecord(&r)
}
