package math

/**
 * @brief Represents the transform of an object in the world: a translation,
 * a per-axis scale and a per-axis Euler rotation applied in Y-X-Z order
 * (Tait-Bryan angles).
 */
type Transform struct {
	/** @brief The position in the world. */
	Translation Vec3
	/** @brief The per-axis scale. */
	Scale Vec3
	/** @brief The per-axis Euler rotation, in radians. */
	Rotation Vec3
}

func NewTransform() Transform {
	return Transform{
		Scale: NewVec3One(),
	}
}

// Matrix returns the model matrix corresponding to
// translate * rotateY * rotateX * rotateZ * scale, expanded so the
// intermediate matrices are never built.
func (t Transform) Matrix() Mat4 {
	c3 := kcos(t.Rotation.Z)
	s3 := ksin(t.Rotation.Z)
	c2 := kcos(t.Rotation.X)
	s2 := ksin(t.Rotation.X)
	c1 := kcos(t.Rotation.Y)
	s1 := ksin(t.Rotation.Y)

	out := Mat4{}
	out.Data[0] = t.Scale.X * (c1*c3 + s1*s2*s3)
	out.Data[1] = t.Scale.X * (c2 * s3)
	out.Data[2] = t.Scale.X * (c1*s2*s3 - c3*s1)

	out.Data[4] = t.Scale.Y * (c3*s1*s2 - c1*s3)
	out.Data[5] = t.Scale.Y * (c2 * c3)
	out.Data[6] = t.Scale.Y * (c1*c3*s2 + s1*s3)

	out.Data[8] = t.Scale.Z * (c2 * s1)
	out.Data[9] = t.Scale.Z * (-s2)
	out.Data[10] = t.Scale.Z * (c1 * c2)

	out.Data[12] = t.Translation.X
	out.Data[13] = t.Translation.Y
	out.Data[14] = t.Translation.Z
	out.Data[15] = 1.0
	return out
}

// NormalMatrix returns the matrix used to transform normals into world
// space, transpose(inverse(mat3(M))), widened to a Mat4 so it can be pushed
// alongside the model matrix without repacking.
func (t Transform) NormalMatrix() Mat4 {
	c3 := kcos(t.Rotation.Z)
	s3 := ksin(t.Rotation.Z)
	c2 := kcos(t.Rotation.X)
	s2 := ksin(t.Rotation.X)
	c1 := kcos(t.Rotation.Y)
	s1 := ksin(t.Rotation.Y)
	invScale := Vec3{X: 1.0 / t.Scale.X, Y: 1.0 / t.Scale.Y, Z: 1.0 / t.Scale.Z}

	out := Mat4{}
	out.Data[0] = invScale.X * (c1*c3 + s1*s2*s3)
	out.Data[1] = invScale.X * (c2 * s3)
	out.Data[2] = invScale.X * (c1*s2*s3 - c3*s1)

	out.Data[4] = invScale.Y * (c3*s1*s2 - c1*s3)
	out.Data[5] = invScale.Y * (c2 * c3)
	out.Data[6] = invScale.Y * (c1*c3*s2 + s1*s3)

	out.Data[8] = invScale.Z * (c2 * s1)
	out.Data[9] = invScale.Z * (-s2)
	out.Data[10] = invScale.Z * (c1 * c2)

	out.Data[15] = 1.0
	return out
}
