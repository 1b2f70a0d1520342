package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrOpen is returned without calling through while the upstream is
	// considered down.
	ErrOpen = errors.New("upstream circuit is open")
	// ErrProbeLimit is returned while half-open once every probe slot is taken.
	ErrProbeLimit = errors.New("upstream circuit is probing")
)

// State is where a breaker sits in its cycle.
type State int

const (
	Closed State = iota
	HalfOpen
	Open
)

var stateNames = [...]string{Closed: "closed", HalfOpen: "half-open", Open: "open"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Policy decides when a breaker opens and how it recovers.
type Policy struct {
	// Probes is how many calls may run while half-open; that many successes close it.
	Probes uint32
	// Window is how long closed-state tallies accumulate before resetting.
	Window time.Duration
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
	// Trip runs after each failure while closed.
	Trip func(Tally) bool
	// OnChange is called under the breaker lock; it must not call back in.
	OnChange func(name string, from, to State)
}

// Tally counts outcomes since the last reset.
type Tally struct {
	Calls         uint32
	Successes     uint32
	Failures      uint32
	SuccessStreak uint32
	FailureStreak uint32
}

// FailureRatio is Failures over Calls, zero before any call.
func (t Tally) FailureRatio() float64 {
	if t.Calls == 0 {
		return 0
	}
	return float64(t.Failures) / float64(t.Calls)
}

// Breaker guards calls to an upstream that widgets depend on. Each state
// change or window reset starts a new epoch; outcomes reported against an
// older epoch are ignored.
type Breaker struct {
	name   string
	policy Policy

	mu       sync.Mutex
	state    State
	epoch    uint64
	tally    Tally
	deadline time.Time
	now      func() time.Time
}

// New creates a breaker. Zero policy fields get defaults: one probe, a
// one minute window and cooldown, and tripping on six straight failures.
func New(name string, policy Policy) *Breaker {
	if policy.Probes == 0 {
		policy.Probes = 1
	}
	if policy.Window <= 0 {
		policy.Window = time.Minute
	}
	if policy.Cooldown <= 0 {
		policy.Cooldown = time.Minute
	}
	if policy.Trip == nil {
		policy.Trip = func(t Tally) bool { return t.FailureStreak > 5 }
	}

	b := &Breaker{name: name, policy: policy, now: time.Now}
	b.deadline = b.now().Add(policy.Window)
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

// State reports the current state, applying any elapsed cooldown or window.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// Tally returns the counts for the current epoch.
func (b *Breaker) Tally() Tally {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.tally
}

// Do runs fn when the breaker admits it and records whether it returned nil.
// A panic in fn is recorded as a failure before it propagates.
func (b *Breaker) Do(fn func() error) (err error) {
	epoch, err := b.enter()
	if err != nil {
		return err
	}

	ok := false
	defer func() { b.leave(epoch, ok) }()

	err = fn()
	ok = err == nil
	return err
}

func (b *Breaker) enter() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	if b.state == Open {
		return 0, ErrOpen
	}
	if b.state == HalfOpen && b.tally.Calls >= b.policy.Probes {
		return 0, ErrProbeLimit
	}
	b.tally.Calls++
	return b.epoch, nil
}

func (b *Breaker) leave(epoch uint64, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.advance()
	if epoch != b.epoch {
		return
	}

	t := &b.tally
	if ok {
		t.Successes++
		t.SuccessStreak++
		t.FailureStreak = 0
		if b.state == HalfOpen && t.SuccessStreak >= b.policy.Probes {
			b.moveTo(Closed)
		}
		return
	}

	t.Failures++
	t.FailureStreak++
	t.SuccessStreak = 0
	if b.state == HalfOpen || b.policy.Trip(*t) {
		b.moveTo(Open)
	}
}

// advance applies deadlines that have passed. Callers hold mu.
func (b *Breaker) advance() {
	if b.deadline.IsZero() || b.now().Before(b.deadline) {
		return
	}
	switch b.state {
	case Closed:
		b.reset()
	case Open:
		b.moveTo(HalfOpen)
	}
}

func (b *Breaker) moveTo(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.reset()
	if b.policy.OnChange != nil {
		b.policy.OnChange(b.name, from, to)
	}
}

func (b *Breaker) reset() {
	b.epoch++
	b.tally = Tally{}
	switch b.state {
	case Closed:
		b.deadline = b.now().Add(b.policy.Window)
	case Open:
		b.deadline = b.now().Add(b.policy.Cooldown)
	default:
		b.deadline = time.Time{}
	}
}
