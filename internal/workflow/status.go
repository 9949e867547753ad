package workflow

import (
	"context"
	"time"
)

// StatusInterval is how long each progress line is shown.
const StatusInterval = 1800 * time.Millisecond

// StatusMessages cycle while an analysis is loading.
var StatusMessages = []string{
	"Connecting to AI model...",
	"Parsing code structure...",
	"Detecting bugs and issues...",
	"Running security analysis...",
	"Evaluating performance...",
	"Generating recommendations...",
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the default Ticker factory.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// rotate calls set with the next status message on every tick until ctx
// is done. The first message is assumed to be shown already.
func rotate(ctx context.Context, t Ticker, set func(string)) {
	defer t.Stop()
	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			i = (i + 1) % len(StatusMessages)
			set(StatusMessages[i])
		}
	}
}
