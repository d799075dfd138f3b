package demo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// HeaderSize is the fixed length of the HL2DEMO file header.
	HeaderSize = 1072
	DemoType   = "HL2DEMO"

	pathLength = 260
)

var ErrDemoHeader = errors.New("invalid demo header")

// Header is the metadata block at the start of every demo file.
type Header struct {
	DemoType string  `json:"demo_type"`
	Version  int     `json:"version"`
	Protocol int     `json:"protocol"`
	Server   string  `json:"server"`
	Nick     string  `json:"nick"`
	Map      string  `json:"map"`
	Game     string  `json:"game"`
	Duration float64 `json:"duration"`
	Ticks    int     `json:"ticks"`
	Frames   int     `json:"frames"`
	Signon   int     `json:"signon"`
}

type rawHeader struct {
	Magic    [8]byte
	Version  int32
	Protocol int32
	Server   [pathLength]byte
	Nick     [pathLength]byte
	Map      [pathLength]byte
	Game     [pathLength]byte
	Duration float32
	Ticks    int32
	Frames   int32
	Signon   int32
}

func cString(b []byte) string {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return string(b[:idx])
	}

	return string(b)
}

func putString(dst []byte, value string) error {
	if len(value) >= len(dst) {
		return fmt.Errorf("%w: %q too long", ErrDemoHeader, value)
	}

	copy(dst, value)

	return nil
}

// ReadHeader reads the header from the start of a demo.
func ReadHeader(reader io.Reader) (Header, error) {
	var raw rawHeader
	if err := binary.Read(reader, binary.LittleEndian, &raw); err != nil {
		return Header{}, errors.Join(err, ErrDemoHeader)
	}

	if magic := cString(raw.Magic[:]); magic != DemoType {
		return Header{}, fmt.Errorf("%w: unexpected type %q", ErrDemoHeader, magic)
	}

	return Header{
		DemoType: DemoType,
		Version:  int(raw.Version),
		Protocol: int(raw.Protocol),
		Server:   cString(raw.Server[:]),
		Nick:     cString(raw.Nick[:]),
		Map:      cString(raw.Map[:]),
		Game:     cString(raw.Game[:]),
		Duration: float64(raw.Duration),
		Ticks:    int(raw.Ticks),
		Frames:   int(raw.Frames),
		Signon:   int(raw.Signon),
	}, nil
}

// MarshalBinary encodes the header in the on disk layout.
func (h Header) MarshalBinary() ([]byte, error) {
	raw := rawHeader{
		Version:  int32(h.Version),  //nolint:gosec
		Protocol: int32(h.Protocol), //nolint:gosec
		Duration: float32(h.Duration),
		Ticks:    int32(h.Ticks),  //nolint:gosec
		Frames:   int32(h.Frames), //nolint:gosec
		Signon:   int32(h.Signon), //nolint:gosec
	}

	copy(raw.Magic[:], DemoType)

	for _, field := range []struct {
		dst   []byte
		value string
	}{
		{raw.Server[:], h.Server},
		{raw.Nick[:], h.Nick},
		{raw.Map[:], h.Map},
		{raw.Game[:], h.Game},
	} {
		if err := putString(field.dst, field.value); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	buf.Grow(HeaderSize)

	if err := binary.Write(&buf, binary.LittleEndian, raw); err != nil {
		return nil, errors.Join(err, ErrDemoHeader)
	}

	return buf.Bytes(), nil
}
