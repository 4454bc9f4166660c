package cli

import (
	"time"

	"github.com/charmbracelet/log"
)

// timer tracks the start time of an operation and logs completion with
// elapsed duration. It is safe for sequential use by a single goroutine.
type timer struct {
	logger *log.Logger
	start  time.Time
}

// newTimer captures the current time as the operation start.
func newTimer(l *log.Logger) *timer {
	return &timer{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since the timer was created,
// rounded to the nearest millisecond.
// Example output: "Rendered 42 entries as SVG (1.234s)"
func (t *timer) done(msg string) {
	t.logger.Infof("%s (%s)", msg, time.Since(t.start).Round(time.Millisecond))
}
