package asset

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/novaengine/nova/internal/core/errs"
)

// countingCodec decodes every file to a 1x1 sprite and counts calls. When
// gate is set each decode blocks until it is closed.
type countingCodec struct {
	calls   atomic.Int32
	started chan struct{}
	gate    chan struct{}
}

func (c *countingCodec) Decode(string, []byte) (Data, error) {
	c.calls.Add(1)
	if c.started != nil {
		close(c.started)
	}
	if c.gate != nil {
		<-c.gate
	}
	return NewSpriteData(1, 1, []uint32{0xFF}), nil
}

// heldSubmitter accepts jobs and keeps them without running them.
type heldSubmitter struct {
	mu     sync.Mutex
	tasks  []func(context.Context) error
	reject bool
}

func (s *heldSubmitter) Submit(_ string, fn func(context.Context) error) error {
	if s.reject {
		return errs.Core("job.submit", "rejected")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, fn)
	return nil
}

func newTestCache(t *testing.T, files fstest.MapFS, opts ...Option) *Cache {
	t.Helper()
	return NewCache("", zaptest.NewLogger(t), append([]Option{WithFS(files)}, opts...)...)
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeWAV(rate, channels int, samples []int16) []byte {
	le := binary.LittleEndian
	data := make([]byte, 2*len(samples))
	for i, s := range samples {
		le.PutUint16(data[2*i:], uint16(s))
	}
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, le, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16))
	binary.Write(&buf, le, uint16(1))
	binary.Write(&buf, le, uint16(channels))
	binary.Write(&buf, le, uint32(rate))
	binary.Write(&buf, le, uint32(rate*channels*2))
	binary.Write(&buf, le, uint16(channels*2))
	binary.Write(&buf, le, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, le, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "hero.png", want: "hero.png"},
		{in: "./hero.png", want: "hero.png"},
		{in: "sprites/../hero.png", want: "hero.png"},
		{in: `sprites\hero.png`, want: "sprites/hero.png"},
		{in: "e\u0301.png", want: "\u00e9.png"},
		{in: "../secret.png", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "", wantErr: true},
		{in: "a/..", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Resolve(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_ConcurrentCallersShareOneDecode(t *testing.T) {
	codec := &countingCodec{gate: make(chan struct{})}
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: []byte("x")}}, WithCodec(codec))

	const n = 32
	handles := make([]*Asset[SpriteData], n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := Load[SpriteData](c, "hero.png")
			if err == nil {
				handles[i] = a
			}
		}(i)
	}
	wg.Wait()
	close(codec.gate)

	for _, h := range handles {
		require.NotNil(t, h)
		assert.Same(t, handles[0], h)
	}
	data, err := handles[0].Get()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xFF}, data.Words())
	assert.Equal(t, int32(1), codec.calls.Load())

	st := c.Stats()
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, uint64(n-1), st.Hits)
}

func TestLoad_EquivalentPathsShareHandle(t *testing.T) {
	codec := &countingCodec{}
	c := newTestCache(t, fstest.MapFS{"ui/hero.png": {Data: []byte("x")}}, WithCodec(codec))

	a, err := Load[SpriteData](c, "ui/hero.png")
	require.NoError(t, err)
	b, err := Load[SpriteData](c, `./ui\hero.png`)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, "ui/hero.png", b.Path())
	_, err = a.Get()
	require.NoError(t, err)
}

func TestLoad_KindMismatchSurfacesAtGet(t *testing.T) {
	codec := &countingCodec{}
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: []byte("x")}}, WithCodec(codec))

	a, err := Load[AudioData](c, "hero.png")
	require.NoError(t, err)
	assert.Equal(t, KindAudio, a.Kind())

	_, err = a.Get()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAssetLoad))
	assert.Contains(t, err.Error(), "decoded as SPRITE, requested AUDIO")
	assert.Panics(t, func() { a.MustGet() })
}

func TestLoad_MissingPath(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{})

	_, err := Load[SpriteData](c, "nope.png")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrAssetLoad))
	assert.Zero(t, c.Stats().Entries)

	_, err = Load[SpriteData](c, "../outside.png")
	assert.True(t, errors.Is(err, errs.ErrAssetLoad))
}

func TestLoad_DecodeFailure(t *testing.T) {
	before := testutil.ToFloat64(decodesTotal.WithLabelValues("SPRITE", "failed"))
	c := newTestCache(t, fstest.MapFS{"broken.png": {Data: []byte("not a png")}})

	a, err := Load[SpriteData](c, "broken.png")
	require.NoError(t, err)

	require.NoError(t, a.Wait(context.Background()))
	assert.True(t, a.Ready())

	_, err = a.Get()
	assert.True(t, errors.Is(err, errs.ErrAssetLoad))
	assert.Equal(t, uint64(1), c.Stats().Failures)
	assert.Equal(t, before+1, testutil.ToFloat64(decodesTotal.WithLabelValues("SPRITE", "failed")))
}

func TestLoadKind(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: encodePNG(t)}})

	h, err := LoadKind(c, "hero.png", KindSprite)
	require.NoError(t, err)
	require.NoError(t, h.Wait(context.Background()))

	typed, err := Load[SpriteData](c, "hero.png")
	require.NoError(t, err)
	assert.Same(t, h, Handle(typed))

	_, err = LoadKind(c, "hero.png", Kind(99))
	assert.True(t, errors.Is(err, errs.ErrAssetLoad))
}

func TestDecodePNG(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: encodePNG(t)}})

	a, err := Load[SpriteData](c, "hero.png")
	require.NoError(t, err)
	sprite, err := a.Get()
	require.NoError(t, err)

	assert.Equal(t, 2, sprite.Width)
	assert.Equal(t, 1, sprite.Height)
	assert.Equal(t, uint32(0xFF0000FF), sprite.At(0, 0))
	assert.Equal(t, uint32(0x00FF00FF), sprite.At(1, 0))
}

func TestDecodeWAV(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{"beep.wav": {Data: encodeWAV(44100, 2, []int16{1, -2, 3, -4})}})

	a, err := Load[AudioData](c, "beep.wav")
	require.NoError(t, err)
	audio, err := a.Get()
	require.NoError(t, err)

	assert.Equal(t, 44100, audio.SampleRate)
	assert.Equal(t, 2, audio.Channels)
	assert.Equal(t, 16, audio.BitDepth)
	assert.Equal(t, 2, audio.Frames())
	assert.Equal(t, []uint32{1, 0xFFFE, 3, 0xFFFC}, audio.Words())

	_, err = DecodeWAV([]byte("RIFF0000WAVE"))
	assert.Error(t, err)

	odd := append(encodeWAV(8000, 1, []int16{1, 2}), 0x7F)
	binary.LittleEndian.PutUint32(odd[40:], 5)
	_, err = DecodeWAV(odd)
	assert.ErrorIs(t, err, errShortWAV)
}

func TestGet_DecodesInlineWhenJobNotStarted(t *testing.T) {
	codec := &countingCodec{}
	jobs := &heldSubmitter{}
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: []byte("x")}}, WithCodec(codec), WithSubmitter(jobs))

	a, err := Load[SpriteData](c, "hero.png")
	require.NoError(t, err)
	require.Len(t, jobs.tasks, 1)
	assert.False(t, a.Ready())
	assert.Equal(t, 1, c.Stats().InFlight)

	_, err = a.Get()
	require.NoError(t, err)
	assert.True(t, a.Ready())

	require.NoError(t, jobs.tasks[0](context.Background()))
	assert.Equal(t, int32(1), codec.calls.Load())
	assert.Zero(t, c.Stats().InFlight)
}

func TestLoad_RejectedSubmissionDefersDecode(t *testing.T) {
	codec := &countingCodec{}
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: []byte("x")}},
		WithCodec(codec), WithSubmitter(&heldSubmitter{reject: true}))

	a, err := Load[SpriteData](c, "hero.png")
	require.NoError(t, err)
	assert.Zero(t, codec.calls.Load())

	_, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, int32(1), codec.calls.Load())
}

func TestWait_HonoursContext(t *testing.T) {
	codec := &countingCodec{started: make(chan struct{}), gate: make(chan struct{})}
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: []byte("x")}}, WithCodec(codec))

	a, err := Load[SpriteData](c, "hero.png")
	require.NoError(t, err)
	<-codec.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Wait(ctx), context.Canceled)

	close(codec.gate)
	_, err = a.Get()
	require.NoError(t, err)
}

func TestClose(t *testing.T) {
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: encodePNG(t)}})

	a, err := Load[SpriteData](c, "hero.png")
	require.NoError(t, err)

	require.NoError(t, c.Close(context.Background()))
	assert.True(t, a.Ready())
	assert.Zero(t, c.Stats().Entries)

	_, err = a.Get()
	assert.NoError(t, err, "handles outlive the cache")

	_, err = Load[SpriteData](c, "hero.png")
	assert.True(t, errors.Is(err, errs.ErrAssetLoad))
	assert.NoError(t, c.Close(context.Background()))
}

func TestClose_RacingLoads(t *testing.T) {
	files := fstest.MapFS{}
	for i := 0; i < 32; i++ {
		files[fmt.Sprintf("tile%02d.png", i)] = &fstest.MapFile{Data: []byte("x")}
	}
	c := newTestCache(t, files, WithCodec(&countingCodec{}))

	var wg sync.WaitGroup
	handles := make(chan *Asset[SpriteData], len(files))
	for name := range files {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := Load[SpriteData](c, name)
			if err != nil {
				assert.True(t, errors.Is(err, errs.ErrAssetLoad))
				return
			}
			handles <- a
		}()
	}
	require.NoError(t, c.Close(context.Background()))
	wg.Wait()
	close(handles)

	assert.Zero(t, c.Stats().Entries, "no entry outlives Close")
	for a := range handles {
		assert.True(t, a.Ready(), "Close waits for %s", a.Path())
	}
}

func TestClose_WaitsForInlineDecode(t *testing.T) {
	codec := &countingCodec{started: make(chan struct{}), gate: make(chan struct{})}
	c := newTestCache(t, fstest.MapFS{"hero.png": {Data: []byte("x")}},
		WithCodec(codec), WithSubmitter(&heldSubmitter{reject: true}))

	a, err := Load[SpriteData](c, "hero.png")
	require.NoError(t, err)
	got := make(chan error, 1)
	go func() {
		_, err := a.Get()
		got <- err
	}()
	<-codec.started

	closed := make(chan error, 1)
	go func() { closed <- c.Close(context.Background()) }()
	select {
	case <-closed:
		t.Fatal("Close returned while a decode was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(codec.gate)
	require.NoError(t, <-closed)
	require.NoError(t, <-got)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" sprite ")
	require.NoError(t, err)
	assert.Equal(t, KindSprite, k)

	_, err = ParseKind("mesh")
	assert.Error(t, err)
}
