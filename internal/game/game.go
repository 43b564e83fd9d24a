package game

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/Garsondee/Drone-Sense/internal/geom"
	"github.com/Garsondee/Drone-Sense/internal/logger"
	"github.com/Garsondee/Drone-Sense/internal/sim"
	"github.com/Garsondee/Drone-Sense/internal/world"
	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

// borderWidth is the pixel gap between the window edge and the map.
const borderWidth = 24

// hudScale is the integer upscale factor applied to HUD text.
const hudScale = 2

const (
	coneSteps    = 24
	coneMaxLen   = 160 // world units; long ranges would cover the whole map
	coneOpacity  = 0.22
	statusFrames = 120
)

var (
	colBackground = color.RGBA{R: 12, G: 14, B: 16, A: 255}
	colBorder     = color.RGBA{R: 60, G: 75, B: 95, A: 255}
	colBounds     = color.RGBA{R: 200, G: 200, B: 120, A: 140}
	colBuilding   = color.RGBA{R: 90, G: 86, B: 80, A: 255}
	colRoof       = color.RGBA{R: 130, G: 124, B: 112, A: 255}
	colMissing    = color.RGBA{R: 210, G: 70, B: 70, A: 255}
	colFound      = color.RGBA{R: 80, G: 210, B: 110, A: 255}
	colDrone      = color.RGBA{R: 90, G: 170, B: 240, A: 255}
	colDest       = color.RGBA{R: 90, G: 170, B: 240, A: 90}
	colCone       = color.RGBA{R: 120, G: 200, B: 255, A: 255}
)

// Game is the ebiten viewer over a running simulation.
type Game struct {
	sim *sim.Sim
	dt  float64

	width      int
	height     int
	gameWidth  int
	gameHeight int
	offX       int
	offY       int
	vp         viewport

	terrainImg *ebiten.Image
	coneBuf    *ebiten.Image
	hudBuf     *ebiten.Image
	face       *text.GoXFace

	events    *EventLog
	prevKeys  map[ebiten.Key]bool
	showHUD   bool
	showCones bool
	simSpeed  float64
	tickAccum float64
	maxTicks  int
	done      bool

	status      string
	statusTimer int
}

// New creates a viewer that advances s by dt per tick and pauses after
// maxTicks ticks or once every soldier is found. maxTicks <= 0 runs forever.
func New(s *sim.Sim, dt float64, maxTicks int) *Game {
	g := &Game{
		sim:       s,
		dt:        dt,
		maxTicks:  maxTicks,
		events:    NewEventLog(),
		prevKeys:  make(map[ebiten.Key]bool),
		showHUD:   true,
		showCones: true,
		simSpeed:  1,
		face:      text.NewGoXFace(basicfont.Face7x13),
	}

	w, d := s.Terrain.Width(), s.Terrain.Depth()
	scale := fitScale(w, d, 1100, 720)
	g.gameWidth = int(w * scale)
	g.gameHeight = int(d * scale)
	g.offX = borderWidth
	g.offY = borderWidth
	g.width = g.gameWidth + borderWidth*2 + logPanelWidth
	g.height = g.gameHeight + borderWidth*2
	g.vp = viewport{offX: float64(g.offX), offY: float64(g.offY), scale: scale}

	g.terrainImg = ebiten.NewImageFromImage(renderTerrain(s.Terrain, g.gameWidth, g.gameHeight, scale))
	g.coneBuf = ebiten.NewImage(g.width, g.height)
	g.hudBuf = ebiten.NewImage(g.width/hudScale, g.height/hudScale)
	g.events.Pull(s.Log)
	return g
}

// WindowSize returns the preferred window size.
func (g *Game) WindowSize() (int, int) { return g.width, g.height }

// renderTerrain shades the height field into a w×h image.
func renderTerrain(t *world.Terrain, w, h int, scale float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	maxH := t.MaxHeight()
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			img.SetRGBA(px, py, groundColor(t.HeightAt(float64(px)/scale, float64(py)/scale), maxH))
		}
	}
	return img
}

func (g *Game) Update() error {
	g.handleInput()
	if g.statusTimer > 0 {
		g.statusTimer--
	}
	if g.done || g.simSpeed <= 0 {
		return nil
	}

	g.tickAccum += g.simSpeed
	for g.tickAccum >= 1.0 {
		g.tickAccum -= 1.0
		if err := g.simTick(); err != nil {
			return err
		}
		if g.done {
			g.tickAccum = 0
			break
		}
	}
	return nil
}

func (g *Game) simTick() error {
	if err := g.sim.Step(g.dt); err != nil {
		return fmt.Errorf("sim tick %d: %w", g.sim.Tick, err)
	}
	g.events.Pull(g.sim.Log)
	if g.sim.AllFound() || (g.maxTicks > 0 && g.sim.Tick >= g.maxTicks) {
		g.done = true
		sum := g.sim.Summary()
		logger.L().Info("run finished", "tick", sum.Tick, "found", sum.Found, "total", sum.Total)
		g.setStatus(fmt.Sprintf("finished at T=%d", sum.Tick))
	}
	return nil
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusTimer = statusFrames
}

// handleInput processes keypresses (edge-triggered).
func (g *Game) handleInput() {
	currentKeys := map[ebiten.Key]bool{}
	pressed := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !g.prevKeys[k]
	}

	if pressed(ebiten.KeyP) {
		if g.simSpeed > 0 {
			g.simSpeed = 0
		} else {
			g.simSpeed = 1
		}
	}
	if pressed(ebiten.KeyComma) {
		g.simSpeed = slower(g.simSpeed)
	}
	if pressed(ebiten.KeyPeriod) {
		g.simSpeed = faster(g.simSpeed)
	}
	if pressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if pressed(ebiten.KeyV) {
		g.showCones = !g.showCones
	}
	if pressed(ebiten.KeyC) {
		if err := clipboard.WriteAll(g.sim.Summary().String()); err != nil {
			logger.L().Warn("clipboard copy failed", "err", err)
			g.setStatus("clipboard unavailable")
		} else {
			g.setStatus("summary copied")
		}
	}

	g.prevKeys = currentKeys
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colBackground)

	var op ebiten.DrawImageOptions
	op.GeoM.Translate(float64(g.offX), float64(g.offY))
	screen.DrawImage(g.terrainImg, &op)

	g.drawBounds(screen)
	g.drawBuildings(screen)
	if g.showCones {
		g.drawConesBuffered(screen)
	}
	g.drawSoldiers(screen)
	g.drawDrones(screen)

	ox, oy := float32(g.offX), float32(g.offY)
	gw, gh := float32(g.gameWidth), float32(g.gameHeight)
	vector.StrokeRect(screen, ox-1, oy-1, gw+2, gh+2, 2, colBorder, false)

	g.events.Draw(screen, g.offX*2+g.gameWidth, g.height)

	if g.showHUD {
		g.drawHUD(screen)
	}
	if g.statusTimer > 0 {
		ebitenutil.DebugPrintAt(screen, g.status, g.offX+6, g.offY+6)
	}
}

func (g *Game) drawBounds(screen *ebiten.Image) {
	if len(g.sim.Drones) == 0 {
		return
	}
	bounds := g.sim.Drones[0].Navigator().Bounds()
	x0, y0 := g.vp.toScreen(geom.Vec3{X: bounds.MinX, Z: bounds.MinZ})
	x1, y1 := g.vp.toScreen(geom.Vec3{X: bounds.MaxX, Z: bounds.MaxZ})
	vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, colBounds, false)
}

func (g *Game) drawBuildings(screen *ebiten.Image) {
	for _, b := range g.sim.Terrain.Buildings() {
		x0, y0 := g.vp.toScreen(b.Min)
		x1, y1 := g.vp.toScreen(b.Max)
		vector.FillRect(screen, x0, y0, x1-x0, y1-y0, colBuilding, false)
		vector.StrokeRect(screen, x0+1, y0+1, x1-x0-2, y1-y0-2, 1, colRoof, false)
	}
}

func (g *Game) drawSoldiers(screen *ebiten.Image) {
	for _, s := range g.sim.Registry.All() {
		x, y := g.vp.toScreen(s.Position)
		col := colMissing
		if s.Status == drone.StatusFound {
			col = colFound
		}
		vector.FillCircle(screen, x, y, 3, col, true)
	}
}

func (g *Game) drawDrones(screen *ebiten.Image) {
	for _, d := range g.sim.Drones {
		x, y := g.vp.toScreen(d.Position())
		dx, dy := g.vp.toScreen(d.Destination())
		vector.StrokeLine(screen, x, y, dx, dy, 1, colDest, true)
		vector.StrokeCircle(screen, dx, dy, 3, 1, colDest, true)

		vector.FillCircle(screen, x, y, 4, colDrone, true)
		fwd := d.Forward()
		vector.StrokeLine(screen, x, y, x+float32(fwd.X)*10, y+float32(fwd.Z)*10, 1.5, colDrone, true)
		ebitenutil.DebugPrintAt(screen, d.Label, int(x)+6, int(y)-16)
	}
}

// drawConesBuffered fills every drone's view cone into one buffer, then
// composites it once so overlapping cones do not stack opacity.
func (g *Game) drawConesBuffered(screen *ebiten.Image) {
	g.coneBuf.Clear()
	for _, d := range g.sim.Drones {
		if d.Navigator().Initial() {
			continue
		}
		s := d.Sensor()
		length := s.MaxRange
		if length > coneMaxLen {
			length = coneMaxLen
		}
		pts := conePoints(d.Position(), d.Forward(), s.FOV, length, coneSteps)

		var path vector.Path
		for i, p := range pts {
			x, y := g.vp.toScreen(p)
			if i == 0 {
				path.MoveTo(x, y)
			} else {
				path.LineTo(x, y)
			}
		}
		path.Close()
		vector.FillPath(g.coneBuf, &path, &vector.FillOptions{}, &vector.DrawPathOptions{AntiAlias: true})
	}

	opts := &ebiten.DrawImageOptions{}
	opts.ColorScale.ScaleWithColor(colCone)
	opts.ColorScale.ScaleAlpha(coneOpacity)
	screen.DrawImage(g.coneBuf, opts)
}

// hudLines builds the HUD legend for a summary.
func hudLines(sum sim.Summary, speed float64, cones bool) []string {
	coneState := "on"
	if !cones {
		coneState = "off"
	}
	return []string{
		fmt.Sprintf("T=%04d  SIM: %s  P=pause  ,/. speed", sum.Tick, speedLabel(speed)),
		fmt.Sprintf("Found %d/%d  reroutes a=%d s=%d d=%d", sum.Found, sum.Total, sum.Arrivals, sum.Stalls, sum.Deferrals),
		fmt.Sprintf("[V] cones: %s  [C] copy summary  [H] HUD", coneState),
	}
}

// drawHUD renders text into hudBuf at 1x then composites it at hudScale.
func (g *Game) drawHUD(screen *ebiten.Image) {
	lines := hudLines(g.sim.Summary(), g.simSpeed, g.showCones)

	const lineH = 14
	const charW = 7
	const padX = 5
	const padY = 3

	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*charW + padX*2)
	boxH := float32(len(lines)*lineH + padY*2)
	bx := float32(4)
	by := float32(g.height/hudScale) - boxH - 4

	g.hudBuf.Clear()
	vector.FillRect(g.hudBuf, bx, by, boxW, boxH, color.RGBA{R: 6, G: 8, B: 12, A: 210}, false)
	vector.StrokeRect(g.hudBuf, bx, by, boxW, boxH, 1, color.RGBA{R: 60, G: 80, B: 110, A: 180}, false)

	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(bx+padX), float64(by)+padY+float64(i*lineH))
		op.ColorScale.ScaleWithColor(color.White)
		text.Draw(g.hudBuf, line, g.face, op)
	}

	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(hudScale, hudScale)
	screen.DrawImage(g.hudBuf, opts)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
