package geom

import "math"

// normalizeEpsilon matches the length below which a direction is treated as zero.
const normalizeEpsilon = 1e-5

// Vec3 is a point or direction in world space. Y is up; the ground plane is X/Z.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

var (
	Zero    = Vec3{}
	Up      = Vec3{Y: 1}
	Forward = Vec3{Z: 1}
)

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Dist returns the euclidean distance between two points.
func Dist(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// Normalize returns the unit vector of v. ok is false when v is too short
// to have a direction, in which case the zero vector is returned.
func (v Vec3) Normalize() (Vec3, bool) {
	l := v.Len()
	if l < normalizeEpsilon {
		return Zero, false
	}
	return v.Scale(1 / l), true
}

// IsNaN reports whether any component is NaN.
func (v Vec3) IsNaN() bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// Angle returns the unsigned angle between a and b in degrees, in [0, 180].
// Degenerate inputs yield 0.
func Angle(a, b Vec3) float64 {
	denom := math.Sqrt(a.Dot(a) * b.Dot(b))
	if denom < 1e-15 {
		return 0
	}
	cos := a.Dot(b) / denom
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// YawPitch converts a facing direction into yaw (degrees clockwise from +Z
// around +Y) and pitch (degrees, positive looking down).
func YawPitch(dir Vec3) (yaw, pitch float64) {
	yaw = math.Atan2(dir.X, dir.Z) * 180 / math.Pi
	h := math.Sqrt(dir.X*dir.X + dir.Z*dir.Z)
	pitch = -math.Atan2(dir.Y, h) * 180 / math.Pi
	return yaw, pitch
}

// DirectionFromAngle returns the X/Z unit offset for a planar angle in
// degrees, measured from +X toward +Z.
func DirectionFromAngle(deg float64) (x, z float64) {
	rad := deg * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}
