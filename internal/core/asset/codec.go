package asset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"
)

// Codec turns raw file bytes into decoded Data. The concrete Data kind is
// decided by the codec, not by the kind the caller asked for.
type Codec interface {
	Decode(name string, raw []byte) (Data, error)
}

// DecodeFunc decodes one file format.
type DecodeFunc func(raw []byte) (Data, error)

// ExtCodec dispatches on the lower-cased file extension.
type ExtCodec struct {
	decoders map[string]DecodeFunc
}

// NewExtCodec returns a codec that knows png, jpeg, gif and PCM wav.
func NewExtCodec() *ExtCodec {
	c := &ExtCodec{decoders: make(map[string]DecodeFunc)}
	img := func(raw []byte) (Data, error) { return DecodeImage(raw) }
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif"} {
		c.decoders[ext] = img
	}
	c.decoders[".wav"] = func(raw []byte) (Data, error) { return DecodeWAV(raw) }
	return c
}

// Register adds or replaces the decoder for ext (".ogg").
func (c *ExtCodec) Register(ext string, fn DecodeFunc) {
	c.decoders[strings.ToLower(ext)] = fn
}

func (c *ExtCodec) Decode(name string, raw []byte) (Data, error) {
	ext := strings.ToLower(path.Ext(name))
	fn, ok := c.decoders[ext]
	if !ok {
		return nil, fmt.Errorf("no codec for %q files", ext)
	}
	return fn(raw)
}

// DecodeImage decodes any registered image format into RGBA8888 words.
func DecodeImage(raw []byte) (SpriteData, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return SpriteData{}, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint32, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			pix = append(pix, (r>>8)<<24|(g>>8)<<16|(bl>>8)<<8|(a>>8))
		}
	}
	return NewSpriteData(w, h, pix), nil
}

var errShortWAV = errors.New("truncated wav")

// DecodeWAV decodes an uncompressed 8 or 16 bit PCM RIFF/WAVE file.
// 16 bit samples keep their two's complement bit pattern in the low half word.
func DecodeWAV(raw []byte) (AudioData, error) {
	if len(raw) < 12 || string(raw[0:4]) != "RIFF" || string(raw[8:12]) != "WAVE" {
		return AudioData{}, errors.New("not a RIFF/WAVE file")
	}
	var (
		channels, bits int
		rate           int
		haveFmt        bool
	)
	le := binary.LittleEndian
	for off := 12; off+8 <= len(raw); {
		id := string(raw[off : off+4])
		size := int(le.Uint32(raw[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(raw) {
			return AudioData{}, errShortWAV
		}
		chunk := raw[body : body+size]
		switch id {
		case "fmt ":
			if size < 16 {
				return AudioData{}, errShortWAV
			}
			if format := le.Uint16(chunk[0:2]); format != 1 {
				return AudioData{}, fmt.Errorf("unsupported wav format %d", format)
			}
			channels = int(le.Uint16(chunk[2:4]))
			rate = int(le.Uint32(chunk[4:8]))
			bits = int(le.Uint16(chunk[14:16]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return AudioData{}, errors.New("wav data chunk before fmt chunk")
			}
			samples, err := pcmWords(chunk, bits)
			if err != nil {
				return AudioData{}, err
			}
			return NewAudioData(rate, channels, bits, samples), nil
		}
		// chunks are word aligned
		off = body + size + size&1
	}
	return AudioData{}, errors.New("wav has no data chunk")
}

func pcmWords(chunk []byte, bits int) ([]uint32, error) {
	switch bits {
	case 8:
		out := make([]uint32, len(chunk))
		for i, b := range chunk {
			out[i] = uint32(b)
		}
		return out, nil
	case 16:
		if len(chunk)%2 != 0 {
			return nil, errShortWAV
		}
		out := make([]uint32, len(chunk)/2)
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(chunk[2*i:]))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported wav bit depth %d", bits)
}
