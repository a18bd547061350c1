// ─────────────────────────────────────────────────────────────────────────────
//  embeddemo :: looper  —  startup line, then one line per interval forever
//
//  Shared by the firmware (machine.Serial) and the hosted build (stdout).
//  Kept free of fmt so it stays small under TinyGo.
// ─────────────────────────────────────────────────────────────────────────────

package looper

import (
	"context"
	"io"
	"time"
)

const (
	BaudRate = 9600

	StartupMessage = "Hello from TinyGo on Arduino Uno!"
	LoopMessage    = "Looping..."
	Interval       = time.Second
)

// State is the looper's position in its two-state machine.
type State int

const (
	StateInit State = iota
	StateLooping
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateLooping:
		return "looping"
	default:
		return "unknown"
	}
}

// Looper writes its lines to an already opened serial channel.
type Looper struct {
	out      io.Writer
	startup  string
	message  string
	interval time.Duration
	sleep    func(time.Duration)
	state    State
}

// Option customizes a Looper.
type Option func(*Looper)

// WithMessages overrides the startup and loop lines.
func WithMessages(startup, message string) Option {
	return func(l *Looper) {
		l.startup = startup
		l.message = message
	}
}

// WithInterval overrides the pause between loop lines.
func WithInterval(d time.Duration) Option {
	return func(l *Looper) { l.interval = d }
}

// WithSleep replaces the blocking delay, mostly for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(l *Looper) { l.sleep = fn }
}

// New returns a Looper in StateInit.
func New(out io.Writer, opts ...Option) *Looper {
	l := &Looper{
		out:      out,
		startup:  StartupMessage,
		message:  LoopMessage,
		interval: Interval,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State reports the current state.
func (l *Looper) State() State { return l.state }

// Step performs the action of the current state. In StateInit it writes the
// startup line and moves to StateLooping; in StateLooping it writes the loop
// line and then blocks for the interval. The transition out of StateInit
// happens even if the write fails.
func (l *Looper) Step() error {
	switch l.state {
	case StateInit:
		l.state = StateLooping
		return l.println(l.startup)
	default:
		err := l.println(l.message)
		l.sleep(l.interval)
		return err
	}
}

// Run steps until ctx is done or a write fails. ctx is only checked between
// steps; a sleep in progress is never cut short.
func (l *Looper) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Step(); err != nil {
			return err
		}
	}
}

// RunForever steps until power loss or reset. Write errors are dropped.
func (l *Looper) RunForever() {
	for {
		_ = l.Step()
	}
}

func (l *Looper) println(s string) error {
	_, err := io.WriteString(l.out, s+"\r\n")
	return err
}
