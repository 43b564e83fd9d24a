package game

import (
	"image/color"
	"math"
	"strconv"

	"github.com/Garsondee/Drone-Sense/internal/geom"
)

// sim speed steps selectable with , and .
var simSpeeds = []float64{0, 0.5, 1, 2, 4, 8}

// slower returns the next lower speed step.
func slower(cur float64) float64 {
	for i := len(simSpeeds) - 1; i > 0; i-- {
		if simSpeeds[i] <= cur {
			return simSpeeds[i-1]
		}
	}
	return simSpeeds[0]
}

// faster returns the next higher speed step.
func faster(cur float64) float64 {
	for _, s := range simSpeeds {
		if s > cur {
			return s
		}
	}
	return simSpeeds[len(simSpeeds)-1]
}

func speedLabel(s float64) string {
	if s == 0 {
		return "PAUSED"
	}
	return strconv.FormatFloat(s, 'f', -1, 64) + "x"
}

// viewport maps the world X/Z plane onto screen pixels. Z grows downwards.
type viewport struct {
	offX, offY float64
	scale      float64 // pixels per world unit
}

func (v viewport) toScreen(p geom.Vec3) (float32, float32) {
	return float32(v.offX + p.X*v.scale), float32(v.offY + p.Z*v.scale)
}

// fitScale returns the largest scale that fits a w×d world into px×py pixels.
func fitScale(w, d float64, px, py int) float64 {
	if w <= 0 || d <= 0 {
		return 1
	}
	return math.Min(float64(px)/w, float64(py)/d)
}

// heading returns the planar facing angle in radians, screen-space.
func heading(forward geom.Vec3) float64 {
	return math.Atan2(forward.Z, forward.X)
}

// conePoints returns the outline of a view cone on the X/Z plane: the apex
// followed by steps+1 points along the arc. halfAngle is in degrees.
func conePoints(origin, forward geom.Vec3, halfAngle, length float64, steps int) []geom.Vec3 {
	if steps < 1 {
		steps = 1
	}
	h := heading(forward)
	half := halfAngle * math.Pi / 180
	pts := make([]geom.Vec3, 0, steps+2)
	pts = append(pts, origin)
	for i := 0; i <= steps; i++ {
		a := h - half + 2*half*float64(i)/float64(steps)
		pts = append(pts, geom.Vec3{
			X: origin.X + math.Cos(a)*length,
			Y: origin.Y,
			Z: origin.Z + math.Sin(a)*length,
		})
	}
	return pts
}

// groundColor shades terrain by height: low ground dark, ridges lighter.
func groundColor(h, maxH float64) color.RGBA {
	t := 0.0
	if maxH > 0 {
		t = math.Max(0, math.Min(1, h/maxH))
	}
	return color.RGBA{
		R: uint8(24 + t*30),
		G: uint8(38 + t*44),
		B: uint8(26 + t*22),
		A: 255,
	}
}
