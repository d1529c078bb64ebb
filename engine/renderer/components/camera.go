package components

import (
	m "github.com/spaghettifunk/helios/engine/math"
)

// Camera holds the projection and view matrices for a frame. The view matrix
// is rebuilt every frame from the viewer transform, the projection only when
// the aspect ratio changes.
type Camera struct {
	projectionMatrix m.Mat4
	viewMatrix       m.Mat4
	inverseView      m.Mat4
}

func NewCamera() *Camera {
	return &Camera{
		projectionMatrix: m.NewMat4Identity(),
		viewMatrix:       m.NewMat4Identity(),
		inverseView:      m.NewMat4Identity(),
	}
}

// SetPerspectiveProjection sets a right handed perspective projection with
// depth mapped to [0, 1].
func (c *Camera) SetPerspectiveProjection(fovYRadians, aspect, near, far float32) {
	c.projectionMatrix = m.NewMat4Perspective(fovYRadians, aspect, near, far)
}

// SetViewYXZ rebuilds the view matrix from the viewer position and a YXZ
// Euler rotation, the same convention used by entity transforms.
func (c *Camera) SetViewYXZ(position, rotation m.Vec3) {
	c3 := m.Cos(rotation.Z)
	s3 := m.Sin(rotation.Z)
	c2 := m.Cos(rotation.X)
	s2 := m.Sin(rotation.X)
	c1 := m.Cos(rotation.Y)
	s1 := m.Sin(rotation.Y)

	u := m.NewVec3(c1*c3+s1*s2*s3, c2*s3, c1*s2*s3-c3*s1)
	v := m.NewVec3(c3*s1*s2-c1*s3, c2*c3, c1*c3*s2+s1*s3)
	w := m.NewVec3(c2*s1, -s2, c1*c2)

	view := m.NewMat4Identity()
	view.Data[0] = u.X
	view.Data[4] = u.Y
	view.Data[8] = u.Z
	view.Data[1] = v.X
	view.Data[5] = v.Y
	view.Data[9] = v.Z
	view.Data[2] = w.X
	view.Data[6] = w.Y
	view.Data[10] = w.Z
	view.Data[12] = -u.Dot(position)
	view.Data[13] = -v.Dot(position)
	view.Data[14] = -w.Dot(position)
	c.viewMatrix = view

	inverse := m.NewMat4Identity()
	inverse.Data[0] = u.X
	inverse.Data[1] = u.Y
	inverse.Data[2] = u.Z
	inverse.Data[4] = v.X
	inverse.Data[5] = v.Y
	inverse.Data[6] = v.Z
	inverse.Data[8] = w.X
	inverse.Data[9] = w.Y
	inverse.Data[10] = w.Z
	inverse.Data[12] = position.X
	inverse.Data[13] = position.Y
	inverse.Data[14] = position.Z
	c.inverseView = inverse
}

func (c *Camera) ProjectionMatrix() m.Mat4 {
	return c.projectionMatrix
}

func (c *Camera) ViewMatrix() m.Mat4 {
	return c.viewMatrix
}

func (c *Camera) InverseViewMatrix() m.Mat4 {
	return c.inverseView
}

// Position returns the viewer position in world space.
func (c *Camera) Position() m.Vec3 {
	return m.NewVec3(c.inverseView.Data[12], c.inverseView.Data[13], c.inverseView.Data[14])
}
