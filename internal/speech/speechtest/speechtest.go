// Package speechtest provides a manual clock and a scriptable engine for
// testing code built on speech.Sequencer.
package speechtest

import (
	"sort"
	"sync"
	"time"

	"github.com/mrlokans/scripture/internal/speech"
)

// Clock fires timers only when Advance is called.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*timer
}

type timer struct {
	clock   *Clock
	at      time.Duration
	seq     int
	f       func()
	stopped bool
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func NewClock() *Clock {
	return &Clock{}
}

// epoch is the wall time a fresh Clock reports.
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return epoch.Add(c.now)
}

func (c *Clock) AfterFunc(d time.Duration, f func()) speech.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &timer{clock: c, at: c.now + d, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward by d and runs every timer that comes due, in
// order, including timers scheduled by the callbacks themselves.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			if c.timers[i].at == c.timers[j].at {
				return c.timers[i].seq < c.timers[j].seq
			}
			return c.timers[i].at < c.timers[j].at
		})
		var next *timer
		for len(c.timers) > 0 {
			t := c.timers[0]
			if t.stopped {
				c.timers = c.timers[1:]
				continue
			}
			if t.at <= target {
				next = t
				c.timers = c.timers[1:]
				next.stopped = true
				c.now = t.at
			}
			break
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		next.f()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Engine records utterances. Finish and Fail complete the most recent one,
// Cancel reports ErrInterrupted to it like a browser engine does.
type Engine struct {
	mu        sync.Mutex
	VoiceList []speech.Voice
	VoicesErr error
	SpeakErr  error
	spoken    []speech.Utterance
	active    *speech.Utterance
	cancels   int
	pauses    int
	resumes   int
}

func NewEngine(voices ...speech.Voice) *Engine {
	return &Engine{VoiceList: voices}
}

func (e *Engine) Voices() ([]speech.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.VoiceList, e.VoicesErr
}

func (e *Engine) Speak(u speech.Utterance) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SpeakErr != nil {
		return e.SpeakErr
	}
	e.spoken = append(e.spoken, u)
	e.active = &u
	return nil
}

func (e *Engine) Cancel() {
	e.mu.Lock()
	e.cancels++
	active := e.active
	e.active = nil
	e.mu.Unlock()
	if active != nil && active.OnError != nil {
		active.OnError(speech.ErrInterrupted)
	}
}

func (e *Engine) Pause() {
	e.mu.Lock()
	e.pauses++
	e.mu.Unlock()
}

func (e *Engine) Resume() {
	e.mu.Lock()
	e.resumes++
	e.mu.Unlock()
}

// Finish completes the active utterance naturally. It reports false when
// nothing is being spoken.
func (e *Engine) Finish() bool {
	e.mu.Lock()
	active := e.active
	e.active = nil
	e.mu.Unlock()
	if active == nil {
		return false
	}
	if active.OnEnd != nil {
		active.OnEnd()
	}
	return true
}

// Fail fails the active utterance with err.
func (e *Engine) Fail(err error) bool {
	e.mu.Lock()
	active := e.active
	e.active = nil
	e.mu.Unlock()
	if active == nil {
		return false
	}
	if active.OnError != nil {
		active.OnError(err)
	}
	return true
}

// Spoken returns every utterance submitted so far.
func (e *Engine) Spoken() []speech.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]speech.Utterance(nil), e.spoken...)
}

// Last returns the most recent utterance.
func (e *Engine) Last() (speech.Utterance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.spoken) == 0 {
		return speech.Utterance{}, false
	}
	return e.spoken[len(e.spoken)-1], true
}

func (e *Engine) Cancels() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancels
}

func (e *Engine) Pauses() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauses
}
