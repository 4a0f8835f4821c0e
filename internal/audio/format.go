package audio

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Format is a compressed target format produced by the encoder.
type Format int

const (
	Opus Format = iota
	Mp3
	Unknown
)

var formatProps = [...]struct {
	name    string
	codec   string
	bitrate string
}{
	Opus: {"opus", "libopus", "256k"},
	Mp3:  {"mp3", "libmp3lame", "320k"},
}

func (f Format) String() string {
	if f < 0 || f >= Unknown {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatProps[f].name
}

// Ext is the file extension without dot.
func (f Format) Ext() string {
	return f.String()
}

func (f Format) DefaultCodec() string {
	if f < 0 || f >= Unknown {
		return ""
	}
	return formatProps[f].codec
}

func (f Format) DefaultBitrate() string {
	if f < 0 || f >= Unknown {
		return ""
	}
	return formatProps[f].bitrate
}

func ParseFormat(s string) (Format, error) {
	for i := range Unknown {
		if strings.EqualFold(i.String(), s) {
			return i, nil
		}
	}
	return Unknown, fmt.Errorf("unknown audio format '%s'", s)
}

func (f *Format) UnmarshalYAML(node *yaml.Node) error {
	var y string
	err := node.Decode(&y)
	if err != nil {
		return err
	}
	format, err := ParseFormat(y)
	if err != nil {
		return err
	}
	*f = format
	return nil
}
