// Package notify holds transient, auto-expiring user notifications.
package notify

import (
	"sync"
	"time"
)

// Display timing of a toast: visible, then fading out, then gone.
const (
	DisplayDuration = 3500 * time.Millisecond
	ExitDuration    = 300 * time.Millisecond
)

// Kind is the tone of a notification.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Icon is the glyph shown in front of a toast.
func (k Kind) Icon() string {
	switch k {
	case KindSuccess:
		return "✓"
	case KindError:
		return "✕"
	default:
		return "ℹ"
	}
}

// Toast is one notification.
type Toast struct {
	ID        uint64
	Message   string
	Kind      Kind
	CreatedAt time.Time
	// Leaving is set once the display window has elapsed and the toast
	// is in its exit transition.
	Leaving bool
}

// Scheduler runs f after d. time.AfterFunc satisfies it through
// TimerScheduler; tests substitute a manual one.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// TimerScheduler schedules with the runtime timer.
type TimerScheduler struct{}

// AfterFunc implements Scheduler.
func (TimerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// Notifier is the push side of a Queue, as seen by producers.
type Notifier interface {
	Push(message string, kind Kind) Toast
}

// Queue keeps toasts in insertion order. Each toast expires on its own
// timer; identical messages are not merged.
type Queue struct {
	mu       sync.Mutex
	toasts   []Toast
	nextID   uint64
	sched    Scheduler
	now      func() time.Time
	onChange func()
}

// Option configures a Queue.
type Option func(*Queue)

// WithScheduler overrides the timer source.
func WithScheduler(s Scheduler) Option {
	return func(q *Queue) { q.sched = s }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New returns an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{sched: TimerScheduler{}, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// OnChange registers a callback fired after every push, fade and removal.
// It is called without the queue lock held.
func (q *Queue) OnChange(f func()) {
	q.mu.Lock()
	q.onChange = f
	q.mu.Unlock()
}

// Push appends a toast and schedules its fade and removal.
func (q *Queue) Push(message string, kind Kind) Toast {
	q.mu.Lock()
	q.nextID++
	t := Toast{ID: q.nextID, Message: message, Kind: kind, CreatedAt: q.now()}
	q.toasts = append(q.toasts, t)
	q.mu.Unlock()

	q.sched.AfterFunc(DisplayDuration, func() {
		if q.update(t.ID, func(i int) { q.toasts[i].Leaving = true }) {
			q.sched.AfterFunc(ExitDuration, func() { q.remove(t.ID) })
		}
	})

	q.changed()
	return t
}

// Info pushes an info toast.
func (q *Queue) Info(message string) Toast { return q.Push(message, KindInfo) }

// Success pushes a success toast.
func (q *Queue) Success(message string) Toast { return q.Push(message, KindSuccess) }

// Error pushes an error toast.
func (q *Queue) Error(message string) Toast { return q.Push(message, KindError) }

// Toasts returns a snapshot of live toasts, oldest first.
func (q *Queue) Toasts() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Toast(nil), q.toasts...)
}

// Len returns the number of live toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

func (q *Queue) update(id uint64, f func(i int)) bool {
	q.mu.Lock()
	found := false
	for i := range q.toasts {
		if q.toasts[i].ID == id {
			f(i)
			found = true
			break
		}
	}
	q.mu.Unlock()
	if found {
		q.changed()
	}
	return found
}

func (q *Queue) remove(id uint64) {
	q.mu.Lock()
	found := false
	for i := range q.toasts {
		if q.toasts[i].ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			found = true
			break
		}
	}
	q.mu.Unlock()
	if found {
		q.changed()
	}
}

func (q *Queue) changed() {
	q.mu.Lock()
	f := q.onChange
	q.mu.Unlock()
	if f != nil {
		f()
	}
}
