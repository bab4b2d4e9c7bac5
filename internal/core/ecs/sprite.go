package ecs

import "github.com/novaengine/nova/internal/core/asset"

// SpriteRenderer draws a shared sprite asset at the owner's Transform.
type SpriteRenderer struct {
	Base
	sprite *asset.Asset[asset.SpriteData]
}

func (*SpriteRenderer) Kind() Kind { return KindSpriteRenderer }

// SetSprite replaces the rendered sprite. The asset is shared, not copied.
func (r *SpriteRenderer) SetSprite(a *asset.Asset[asset.SpriteData]) {
	r.sprite = a
}

// Sprite returns the current sprite asset, nil if none was set.
func (r *SpriteRenderer) Sprite() *asset.Asset[asset.SpriteData] {
	return r.sprite
}
