package sim

import (
	"fmt"
	"strings"
	"sync"
)

// Log categories.
const (
	CatNav    = "nav"
	CatVision = "vision"
	CatMove   = "move"
	CatSim    = "sim"
)

// LogEntry is one recorded event during a simulation.
type LogEntry struct {
	Tick     int
	Agent    string  // drone or soldier label, or "--" for global events
	Category string  // nav, vision, move, sim
	Key      string  // specific event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=0042] D1   vision  found            S7 at 31.2m (4.1°)
func (e LogEntry) String() string {
	return fmt.Sprintf("[T=%04d] %-4s %-7s %-16s %s",
		e.Tick, e.Agent, e.Category, e.Key, e.Value)
}

// Log collects structured events during a run. Unlike the viewer's event
// panel it is unbounded and machine-readable.
type Log struct {
	mu      sync.Mutex
	entries []LogEntry
	verbose bool
}

// NewLog creates a Log. If verbose is true, per-tick position, velocity and
// heading entries are also recorded.
func NewLog(verbose bool) *Log {
	return &Log{verbose: verbose}
}

func (l *Log) Verbose() bool { return l.verbose }

// Add records a new entry.
func (l *Log) Add(tick int, agent, category, key, value string, numVal float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{
		Tick:     tick,
		Agent:    agent,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (l *Log) AddVerbose(tick int, agent, category, key, value string, numVal float64) {
	if !l.verbose {
		return
	}
	l.Add(tick, agent, category, key, value, numVal)
}

// Entries returns a copy of all recorded entries.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Filter returns entries matching category and key. Empty matches anything.
func (l *Log) Filter(category, key string) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterAgent returns entries for one agent label.
func (l *Log) FilterAgent(label string) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if e.Agent == label {
			out = append(out, e)
		}
	}
	return out
}

// FilterTickRange returns entries within [fromTick, toTick] inclusive.
func (l *Log) FilterTickRange(fromTick, toTick int) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if e.Tick >= fromTick && e.Tick <= toTick {
			out = append(out, e)
		}
	}
	return out
}

func (l *Log) CountCategory(category, key string) int {
	return len(l.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key.
func (l *Log) LastOf(category, key string) (LogEntry, bool) {
	entries := l.Filter(category, key)
	if len(entries) == 0 {
		return LogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if any entry matches category, key and value substring.
func (l *Log) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range l.Filter(category, key) {
		if valueSubstr == "" || strings.Contains(e.Value, valueSubstr) {
			return true
		}
	}
	return false
}

// FormatRange returns the log filtered to a tick range.
func (l *Log) FormatRange(fromTick, toTick int) string {
	return formatEntries(l.FilterTickRange(fromTick, toTick))
}

func formatEntries(entries []LogEntry) string {
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Since returns entries recorded at or after index i.
func (l *Log) Since(i int) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 {
		i = 0
	}
	if i >= len(l.entries) {
		return nil
	}
	return append([]LogEntry(nil), l.entries[i:]...)
}
