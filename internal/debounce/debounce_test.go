package debounce

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock fires callbacks when Advance moves past their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// AdvanceTo moves the clock to an absolute offset, firing due timers in order.
func (c *fakeClock) AdvanceTo(at time.Duration) {
	c.mu.Lock()
	sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at < c.timers[j].at })
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= at {
			t.fired = true
			due = append(due, t)
		}
	}
	c.now = at
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

type recorder struct {
	mu     sync.Mutex
	values []string
	times  []time.Duration
	clock  *fakeClock
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
	r.times = append(r.times, r.clock.now)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{clock: clock}
	d := New(500*time.Millisecond, rec.record, WithClock(clock))

	d.Set("a")
	clock.AdvanceTo(100 * time.Millisecond)
	d.Set("ab")
	clock.AdvanceTo(200 * time.Millisecond)
	d.Set("abc")

	clock.AdvanceTo(699 * time.Millisecond)
	assert.Empty(t, rec.values, "nothing should fire before the quiet period ends")

	clock.AdvanceTo(700 * time.Millisecond)
	require.Len(t, rec.values, 1)
	assert.Equal(t, "abc", rec.values[0])
	assert.Equal(t, 700*time.Millisecond, rec.times[0])

	clock.AdvanceTo(5 * time.Second)
	assert.Len(t, rec.values, 1)
}

func TestDebouncer_SeparateBursts(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{clock: clock}
	d := New(100*time.Millisecond, rec.record, WithClock(clock))

	d.Set("first")
	clock.AdvanceTo(150 * time.Millisecond)
	d.Set("second")
	clock.AdvanceTo(300 * time.Millisecond)

	assert.Equal(t, []string{"first", "second"}, rec.values)
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{clock: clock}
	d := New(500*time.Millisecond, rec.record, WithClock(clock))

	d.Set("x")
	assert.True(t, d.Pending())
	d.Stop()
	assert.False(t, d.Pending())

	clock.AdvanceTo(time.Second)
	assert.Empty(t, rec.values)

	d.Set("after stop")
	clock.AdvanceTo(2 * time.Second)
	assert.Empty(t, rec.values, "Set after Stop must not schedule")
}

func TestDebouncer_StaleCallbackIgnored(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{clock: clock}
	d := New(time.Millisecond, rec.record, WithClock(clock))

	d.Set("old")
	clock.mu.Lock()
	stale := clock.timers[0]
	clock.mu.Unlock()

	d.Set("new")
	// Simulate a timer whose callback was already running when Stop was called.
	stale.f()
	assert.Empty(t, rec.values)

	clock.AdvanceTo(time.Second)
	assert.Equal(t, []string{"new"}, rec.values)
}

func TestDebouncer_RealClock(t *testing.T) {
	got := make(chan int, 1)
	d := New(10*time.Millisecond, func(v int) { got <- v })
	defer d.Stop()

	d.Set(1)
	d.Set(2)

	select {
	case v := <-got:
		assert.Equal(t, 2, v)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced value never delivered")
	}
}
