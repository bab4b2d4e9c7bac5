package ecs

// Vec3 is a plain three-component vector.
type Vec3 struct {
	X, Y, Z float32
}

// Transform is the position, rotation and scale of an entity. Every entity
// gets one at spawn and keeps it until it is destroyed.
type Transform struct {
	Base
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

func newTransform(pos Vec3) *Transform {
	return &Transform{
		Position: pos,
		Scale:    Vec3{X: 1, Y: 1, Z: 1},
	}
}

func (*Transform) Kind() Kind { return KindTransform }

// Translate moves the entity by d.
func (t *Transform) Translate(d Vec3) {
	t.Position.X += d.X
	t.Position.Y += d.Y
	t.Position.Z += d.Z
}
