package sim

import (
	"fmt"
	"os"

	"github.com/Garsondee/Drone-Sense/internal/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FeatureCollection renders the world on the X/Z plane: the patrol bounds,
// buildings, soldiers by status and each drone's sampled track.
func (s *Sim) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	bounds := geojson.NewFeature(s.droneOpts.Bounds.Orb().ToPolygon())
	bounds.Properties["kind"] = "bounds"
	fc.Append(bounds)

	for i, b := range s.Terrain.Buildings() {
		f := geojson.NewFeature(orb.Bound{
			Min: orb.Point{b.Min.X, b.Min.Z},
			Max: orb.Point{b.Max.X, b.Max.Z},
		}.ToPolygon())
		f.Properties["kind"] = "building"
		f.Properties["index"] = i
		f.Properties["height"] = b.Max.Y - b.Min.Y
		fc.Append(f)
	}

	for _, sol := range s.Registry.All() {
		f := geojson.NewFeature(orb.Point{sol.Position.X, sol.Position.Z})
		f.Properties["kind"] = "soldier"
		f.Properties["id"] = sol.ID
		f.Properties["label"] = sol.Label
		f.Properties["status"] = sol.Status.String()
		if sol.FoundBy != "" {
			f.Properties["found_by"] = sol.FoundBy
			f.Properties["found_tick"] = sol.FoundTick
		}
		fc.Append(f)
	}

	for i, d := range s.Drones {
		track := append(append([]geom.Vec3(nil), s.Track(i)...), d.Position())
		f := geojson.NewFeature(trackLine(track))
		f.Properties["kind"] = "drone"
		f.Properties["id"] = d.ID
		f.Properties["label"] = d.Label
		f.Properties["found"] = d.FoundCount()
		yaw, _ := d.Heading()
		f.Properties["yaw"] = yaw
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes FeatureCollection to path.
func (s *Sim) WriteGeoJSON(path string) error {
	raw, err := s.FeatureCollection().MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil { // #nosec G306 -- export for external viewers
		return fmt.Errorf("write geojson %s: %w", path, err)
	}
	return nil
}
