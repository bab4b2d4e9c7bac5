package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := Core("scene.start", "unknown scene %q", "missing")

	assert.True(t, errors.Is(err, ErrCore))
	assert.False(t, errors.Is(err, ErrAssetLoad))
	assert.False(t, errors.Is(err, ErrComponent))
	assert.Equal(t, `CoreException: scene.start: unknown scene "missing"`, err.Error())
}

func TestErrorIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("boot: %w", Component("ecs.add_component", "dup"))

	assert.True(t, errors.Is(err, ErrComponent))
	assert.Equal(t, KindComponent, KindOf(err))
}

func TestAssetLoadUnwrapsCause(t *testing.T) {
	cause := errors.New("bad header")
	err := AssetLoad("asset.decode", cause, "decode %s", "a.png")

	assert.True(t, errors.Is(err, ErrAssetLoad))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "AssetLoadError: asset.decode: decode a.png: bad header", err.Error())
}

func TestNonSentinelDoesNotMatch(t *testing.T) {
	a := Core("op", "a")
	b := Core("op", "b")

	assert.False(t, errors.Is(a, b))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}
