package asset

import (
	"fmt"
	"strings"
)

// Kind is the type tag of an asset.
type Kind uint8

const (
	KindAudio Kind = iota + 1
	KindSprite
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "AUDIO"
	case KindSprite:
		return "SPRITE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the tag names used in manifests and scripts.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AUDIO":
		return KindAudio, nil
	case "SPRITE":
		return KindSprite, nil
	}
	return 0, fmt.Errorf("unknown asset kind %q", s)
}

// Data is decoded asset content: an immutable buffer of 32-bit words.
// Kind must not read the receiver.
type Data interface {
	Kind() Kind
	// Words returns the decoded buffer. Callers must not modify it.
	Words() []uint32
}

// SpriteData is a decoded image, one RGBA8888 word per pixel, row-major.
type SpriteData struct {
	Width  int
	Height int
	pixels []uint32
}

func NewSpriteData(width, height int, pixels []uint32) SpriteData {
	return SpriteData{Width: width, Height: height, pixels: pixels}
}

func (SpriteData) Kind() Kind           { return KindSprite }
func (d SpriteData) Words() []uint32    { return d.pixels }
func (d SpriteData) At(x, y int) uint32 { return d.pixels[y*d.Width+x] }

// AudioData is decoded PCM, one word per sample with channels interleaved.
type AudioData struct {
	SampleRate int
	Channels   int
	BitDepth   int
	samples    []uint32
}

func NewAudioData(rate, channels, bitDepth int, samples []uint32) AudioData {
	return AudioData{SampleRate: rate, Channels: channels, BitDepth: bitDepth, samples: samples}
}

func (AudioData) Kind() Kind        { return KindAudio }
func (d AudioData) Words() []uint32 { return d.samples }

// Frames returns the number of sample frames.
func (d AudioData) Frames() int {
	if d.Channels == 0 {
		return 0
	}
	return len(d.samples) / d.Channels
}
