package speech

import (
	"strings"
	"sync"
	"time"
)

// silentWordsPerMinute is the speaking speed SilentEngine simulates at rate 1.0.
const silentWordsPerMinute = 180

var silentVoices = []Voice{
	{Name: "Silent English", Lang: "en-US", Default: true},
	{Name: "Silent Mandarin", Lang: "zh-CN"},
	{Name: "Silent Cantonese", Lang: "zh-HK"},
}

// SilentEngine produces no audio. It completes each utterance after the time
// reading it aloud would take, which keeps chaining behaviour realistic on
// hosts without a synthesizer.
type SilentEngine struct {
	clock Clock

	mu      sync.Mutex
	timer   Timer
	current *Utterance
	started time.Time
	left    time.Duration
	paused  bool
}

func NewSilentEngine(clock Clock) *SilentEngine {
	if clock == nil {
		clock = RealClock()
	}
	return &SilentEngine{clock: clock}
}

func (e *SilentEngine) Voices() ([]Voice, error) {
	return append([]Voice(nil), silentVoices...), nil
}

// Duration is how long SilentEngine takes to "speak" text at rate.
func Duration(text string, rate float64) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return time.Duration(float64(words) * float64(time.Minute) / (silentWordsPerMinute * ClampRate(rate)))
}

func (e *SilentEngine) Speak(u Utterance) error {
	prev := e.replace(&u)
	if prev != nil && prev.OnError != nil {
		prev.OnError(ErrInterrupted)
	}
	return nil
}

func (e *SilentEngine) replace(u *Utterance) *Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.current
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.current = u
	e.paused = false
	if u != nil {
		e.schedule(u, Duration(u.Text, u.Rate))
	}
	return prev
}

func (e *SilentEngine) schedule(u *Utterance, d time.Duration) {
	e.started = e.clock.Now()
	e.left = d
	e.timer = e.clock.AfterFunc(d, func() {
		e.mu.Lock()
		if e.current != u {
			e.mu.Unlock()
			return
		}
		e.current = nil
		e.timer = nil
		e.mu.Unlock()
		if u.OnEnd != nil {
			u.OnEnd()
		}
	})
}

func (e *SilentEngine) Cancel() {
	prev := e.replace(nil)
	if prev != nil && prev.OnError != nil {
		prev.OnError(ErrCanceled)
	}
}

func (e *SilentEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil || e.paused || e.timer == nil {
		return
	}
	e.timer.Stop()
	e.timer = nil
	if elapsed := e.clock.Now().Sub(e.started); elapsed < e.left {
		e.left -= elapsed
	} else {
		e.left = 0
	}
	e.paused = true
}

func (e *SilentEngine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil || !e.paused {
		return
	}
	e.paused = false
	e.schedule(e.current, e.left)
}
