// Package render writes a stats snapshot to the terminal. It owns the two
// presentation modes: a compact hero line that always shows the
// abbreviated star count, and a block of detailed counters that either
// count up with an ease-out animation (interactive terminal) or print
// their final values immediately (pipe or file).
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/repopulse/repopulse/internal/domain"
)

const (
	// countUpDuration is the fixed length of the count-up animation.
	countUpDuration = 2 * time.Second
	// frameInterval approximates a display refresh tick.
	frameInterval = 33 * time.Millisecond
)

var (
	colorCyan  = lipgloss.Color("36")
	colorWhite = lipgloss.Color("255")
	colorDim   = lipgloss.Color("240")

	styleHero  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleLabel = lipgloss.NewStyle().Foreground(colorDim)
	styleValue = lipgloss.NewStyle().Foreground(colorWhite)
)

// Renderer pushes a snapshot to the presentation layer.
type Renderer interface {
	Render(snapshot domain.StatsSnapshot)
}

// slot is one display position: a label, a target value, and the
// formatting used both for intermediate animation frames and the final
// value.
type slot struct {
	label  string
	target int
	format func(int) string
}

// Terminal renders the snapshot to a writer. Whether the detailed slots
// animate is decided once at construction; elements that become visible
// later do not retroactively animate.
type Terminal struct {
	w       io.Writer
	animate bool

	duration time.Duration
	interval time.Duration

	// mu serializes cursor movement when several animation loops redraw
	// their own lines on the same screen.
	mu sync.Mutex
}

// NewTerminal creates a renderer for w. animate selects the count-up mode
// for the detailed slots; use Interactive to derive it from the output.
func NewTerminal(w io.Writer, animate bool) *Terminal {
	return &Terminal{
		w:        w,
		animate:  animate,
		duration: countUpDuration,
		interval: frameInterval,
	}
}

// Interactive reports whether f is an interactive terminal. It is the
// one-shot visibility check performed before rendering.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Render writes the hero line and the detailed counter block for the
// snapshot. It blocks until any animations have run to completion; there
// is no cancellation once the count-up starts.
func (t *Terminal) Render(snapshot domain.StatsSnapshot) {
	fmt.Fprintln(t.w, styleHero.Render("★ "+domain.Abbreviate(snapshot.Stars)))

	slots := detailSlots(snapshot)
	if !t.animate {
		for _, s := range slots {
			t.printSlot(s, s.format(s.target))
		}
		return
	}

	// Draw the block at zero first so every animation loop owns a fixed
	// line to redraw.
	for _, s := range slots {
		t.printSlot(s, s.format(0))
	}

	start := time.Now()
	var eg errgroup.Group
	for i, s := range slots {
		s := s
		row := len(slots) - i // lines above the cursor
		eg.Go(func() error {
			t.countUp(s, row, start)
			return nil
		})
	}
	_ = eg.Wait()
}

// countUp drives a single slot from zero to its target, redrawing its
// line each frame until the duration elapses.
func (t *Terminal) countUp(s slot, row int, start time.Time) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for now := range ticker.C {
		elapsed := now.Sub(start)
		if elapsed >= t.duration {
			break
		}
		t.redrawSlot(s, row, s.format(valueAt(s.target, elapsed, t.duration)))
	}
	t.redrawSlot(s, row, s.format(s.target))
}

// valueAt returns the eased counter value after elapsed time. The curve
// is ease-out cubic: fast at first, settling into the target.
func valueAt(target int, elapsed, duration time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= duration {
		return target
	}
	p := float64(elapsed) / float64(duration)
	eased := 1 - math.Pow(1-p, 3)
	return int(math.Round(eased * float64(target)))
}

func (t *Terminal) printSlot(s slot, value string) {
	fmt.Fprintf(t.w, "%s %s\n", styleLabel.Render(s.label+":"), styleValue.Render(value))
}

// redrawSlot rewrites the slot's line in place, row lines above the
// cursor. Cursor save/restore plus the mutex keep concurrent loops from
// interleaving escape sequences.
func (t *Terminal) redrawSlot(s slot, row int, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "\x1b7\x1b[%dA\r\x1b[2K%s %s\x1b8",
		row, styleLabel.Render(s.label+":"), styleValue.Render(value))
}

// detailSlots lays out the detailed counters. The open-issue count is
// always a literal integer, never abbreviated.
func detailSlots(snapshot domain.StatsSnapshot) []slot {
	return []slot{
		{label: "Stars", target: snapshot.Stars, format: domain.Abbreviate},
		{label: "Forks", target: snapshot.Forks, format: domain.Abbreviate},
		{label: "Watchers", target: snapshot.Watchers, format: domain.Abbreviate},
		{label: "Open issues", target: snapshot.OpenIssues, format: strconv.Itoa},
	}
}
