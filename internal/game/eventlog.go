package game

import (
	"fmt"
	"image/color"

	"github.com/Garsondee/Drone-Sense/internal/sim"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	logPanelWidth = 320
	logMaxEntries = 60
	logLineHeight = 11
	logHighlight  = 3
)

// EventLog is a ring buffer of sim log entries rendered in the side panel.
// It tails a sim.Log through a cursor and drops per-tick movement noise.
type EventLog struct {
	entries []sim.LogEntry
	head    int
	count   int
	cursor  int
}

// NewEventLog creates an empty event log.
func NewEventLog() *EventLog {
	return &EventLog{entries: make([]sim.LogEntry, logMaxEntries)}
}

// Add appends an entry, overwriting the oldest once full.
func (el *EventLog) Add(e sim.LogEntry) {
	el.entries[el.head] = e
	el.head = (el.head + 1) % logMaxEntries
	if el.count < logMaxEntries {
		el.count++
	}
}

// Pull copies entries added to l since the last call.
func (el *EventLog) Pull(l *sim.Log) int {
	n := 0
	for _, e := range l.Since(el.cursor) {
		el.cursor++
		if e.Category == sim.CatMove {
			continue
		}
		el.Add(e)
		n++
	}
	return n
}

// Recent returns entries oldest first.
func (el *EventLog) Recent() []sim.LogEntry {
	out := make([]sim.LogEntry, el.count)
	for i := 0; i < el.count; i++ {
		out[i] = el.entries[(el.head-el.count+i+logMaxEntries)%logMaxEntries]
	}
	return out
}

func categoryColor(cat string) color.RGBA {
	switch cat {
	case sim.CatVision:
		return color.RGBA{R: 230, G: 200, B: 70, A: 255}
	case sim.CatNav:
		return color.RGBA{R: 90, G: 160, B: 220, A: 255}
	default:
		return color.RGBA{R: 130, G: 130, B: 130, A: 255}
	}
}

// Draw renders the panel at panelX, newest entry at the bottom.
func (el *EventLog) Draw(screen *ebiten.Image, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, logPanelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1, color.RGBA{R: 50, G: 60, B: 80, A: 255}, false)
	vector.FillRect(screen, float32(panelX), 0, logPanelWidth, 16, color.RGBA{R: 20, G: 26, B: 36, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENT LOG", panelX+8, 2)

	entries := el.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	y := 20
	for i, e := range entries {
		if i >= len(entries)-logHighlight {
			vector.FillRect(screen, float32(panelX+2), float32(y), logPanelWidth-4, logLineHeight, color.RGBA{R: 30, G: 36, B: 48, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+3), 3, 5, categoryColor(e.Category), false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%4d [%s] %s", e.Tick, e.Agent, e.Value), panelX+12, y)
		y += logLineHeight
	}
}
