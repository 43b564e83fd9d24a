package geom

import "math"

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Contains reports whether p lies inside or on the box.
func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsXZ reports whether p lies within the box footprint, ignoring height.
func (b AABB) ContainsXZ(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// SegmentHitT returns the first segment parameter t in [0,1] where the
// segment a->b enters the box. The bool is false when there is no hit.
func (b AABB) SegmentHitT(a, c Vec3) (float64, bool) {
	tMin := 0.0
	tMax := 1.0

	axes := [3][4]float64{
		{a.X, c.X - a.X, b.Min.X, b.Max.X},
		{a.Y, c.Y - a.Y, b.Min.Y, b.Max.Y},
		{a.Z, c.Z - a.Z, b.Min.Z, b.Max.Z},
	}
	for _, ax := range axes {
		o, d, lo, hi := ax[0], ax[1], ax[2], ax[3]
		if math.Abs(d) < 1e-12 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		invD := 1.0 / d
		t1 := (lo - o) * invD
		t2 := (hi - o) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	if tMax < 0 || tMin > 1 {
		return 0, false
	}
	return tMin, true
}

// SegmentIntersects checks if the segment a->c touches the box.
func (b AABB) SegmentIntersects(a, c Vec3) bool {
	_, hit := b.SegmentHitT(a, c)
	return hit
}
