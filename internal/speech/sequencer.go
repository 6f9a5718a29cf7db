package speech

import (
	"log"
	"sync"
	"time"
)

const (
	DefaultSettleDelay  = 100 * time.Millisecond
	DefaultRestartDelay = 300 * time.Millisecond
)

// Request asks the sequencer to speak Text under ID. OnEnd runs after the
// utterance completes naturally, and only if no later request superseded it.
// Restarting bypasses the same-id toggle.
type Request struct {
	Text       string
	ID         string
	OnEnd      func()
	Restarting bool
}

// VoiceSettings are the user preferences that shape an utterance.
type VoiceSettings struct {
	Language string  `json:"language"`
	Rate     float64 `json:"rate"`
}

type State struct {
	Speaking    bool   `json:"is_speaking"`
	CurrentID   string `json:"current_speaking_id,omitempty"`
	AutoPlaying bool   `json:"is_auto_playing"`
	Paused      bool   `json:"is_paused"`
	Generation  uint64 `json:"generation"`
}

type Option func(*Sequencer)

func WithClock(c Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

func WithDelays(settle, restart time.Duration) Option {
	return func(s *Sequencer) {
		s.settleDelay = settle
		s.restartDelay = restart
	}
}

func WithSettings(vs VoiceSettings) Option {
	return func(s *Sequencer) {
		vs.Rate = ClampRate(vs.Rate)
		s.settings = vs
	}
}

// Sequencer is the single "currently speaking" slot. All state changes happen
// under mu; engine calls and user callbacks run after it is released.
type Sequencer struct {
	engine       Engine
	clock        Clock
	settleDelay  time.Duration
	restartDelay time.Duration

	// submit serializes engine.Speak against engine.Cancel. It is taken
	// before mu, never while mu is held.
	submit sync.Mutex

	mu           sync.Mutex
	generation   uint64
	speaking     bool
	paused       bool
	autoPlaying  bool
	currentID    string
	currentText  string
	onEnd        func()
	settings     VoiceSettings
	settleTimer  Timer
	restartTimer Timer
}

func NewSequencer(engine Engine, opts ...Option) *Sequencer {
	s := &Sequencer{
		engine:       engine,
		clock:        RealClock(),
		settleDelay:  DefaultSettleDelay,
		restartDelay: DefaultRestartDelay,
		settings:     VoiceSettings{Language: "en", Rate: DefaultRate},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Speak starts a new utterance, superseding whatever is playing. Repeating
// the current id without OnEnd stops playback instead.
func (s *Sequencer) Speak(req Request) {
	s.mu.Lock()
	if !req.Restarting && req.OnEnd == nil && s.speaking && s.currentID == req.ID {
		s.stopLocked()
		s.mu.Unlock()
		s.cancelEngine()
		return
	}

	s.stopTimersLocked()
	s.generation++
	gen := s.generation
	s.speaking = true
	s.paused = false
	s.currentID = req.ID
	s.currentText = req.Text
	s.onEnd = req.OnEnd
	s.mu.Unlock()

	// The previous utterance must be gone before the settle timer can fire.
	s.cancelEngine()

	s.mu.Lock()
	if s.currentLocked(gen) {
		s.settleTimer = s.clock.AfterFunc(s.settleDelay, func() { s.start(gen) })
	}
	s.mu.Unlock()
}

func (s *Sequencer) currentLocked(gen uint64) bool {
	return gen == s.generation && s.speaking
}

func (s *Sequencer) cancelEngine() {
	s.submit.Lock()
	defer s.submit.Unlock()
	s.engine.Cancel()
}

// start builds and submits the utterance once the settle delay has passed.
func (s *Sequencer) start(gen uint64) {
	s.mu.Lock()
	if !s.currentLocked(gen) {
		s.mu.Unlock()
		return
	}
	text := s.currentText
	settings := s.settings
	s.mu.Unlock()

	voices, err := s.engine.Voices()
	if err != nil {
		log.Printf("[SPEECH] Failed to list voices, using language tag only: %v", err)
	}
	sel := SelectVoice(voices, settings.Language)

	// Voices may block; a Stop or newer Speak in the meantime wins.
	s.submit.Lock()
	s.mu.Lock()
	current := s.currentLocked(gen)
	s.mu.Unlock()
	if !current {
		s.submit.Unlock()
		return
	}
	err = s.engine.Speak(Utterance{
		Text:    text,
		Voice:   sel.Voice,
		Lang:    sel.Lang,
		Rate:    settings.Rate,
		Pitch:   NeutralPitch,
		OnEnd:   func() { s.finish(gen) },
		OnError: func(err error) { s.fail(gen, err) },
	})
	s.submit.Unlock()
	if err != nil {
		s.fail(gen, err)
	}
}

func (s *Sequencer) finish(gen uint64) {
	s.mu.Lock()
	if !s.currentLocked(gen) {
		s.mu.Unlock()
		return
	}
	onEnd := s.onEnd
	s.speaking = false
	s.paused = false
	s.currentID = ""
	s.currentText = ""
	s.onEnd = nil
	s.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
}

func (s *Sequencer) fail(gen uint64, err error) {
	if IsTransient(err) {
		return
	}
	s.mu.Lock()
	if !s.currentLocked(gen) {
		s.mu.Unlock()
		return
	}
	log.Printf("[SPEECH] Engine error while speaking %s: %v", s.currentID, err)
	s.stopLocked()
	s.mu.Unlock()
}

// Stop cancels playback unconditionally and clears auto-play.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
	s.cancelEngine()
}

func (s *Sequencer) stopLocked() {
	s.stopTimersLocked()
	s.generation++
	s.speaking = false
	s.paused = false
	s.autoPlaying = false
	s.currentID = ""
	s.currentText = ""
	s.onEnd = nil
}

func (s *Sequencer) stopTimersLocked() {
	if s.settleTimer != nil {
		s.settleTimer.Stop()
		s.settleTimer = nil
	}
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
	}
}

func (s *Sequencer) Pause() {
	s.mu.Lock()
	if !s.speaking || s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = true
	s.mu.Unlock()
	s.engine.Pause()
}

func (s *Sequencer) Resume() {
	s.mu.Lock()
	if !s.speaking || !s.paused {
		s.mu.Unlock()
		return
	}
	s.paused = false
	s.mu.Unlock()
	s.engine.Resume()
}

func (s *Sequencer) SetAutoPlaying(on bool) {
	s.mu.Lock()
	s.autoPlaying = on
	s.mu.Unlock()
}

// ApplySettings stores new voice settings. If the language or rate changed
// while speaking, the current text is resubmitted after the restart delay so
// playback continues in the new voice.
func (s *Sequencer) ApplySettings(vs VoiceSettings) {
	vs.Rate = ClampRate(vs.Rate)

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := vs.Language != s.settings.Language || vs.Rate != s.settings.Rate
	s.settings = vs
	if !changed || !s.speaking {
		return
	}

	gen := s.generation
	req := Request{Text: s.currentText, ID: s.currentID, OnEnd: s.onEnd, Restarting: true}
	if s.restartTimer != nil {
		s.restartTimer.Stop()
	}
	s.restartTimer = s.clock.AfterFunc(s.restartDelay, func() {
		s.mu.Lock()
		current := s.currentLocked(gen)
		s.mu.Unlock()
		if current {
			s.Speak(req)
		}
	})
}

func (s *Sequencer) Settings() VoiceSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Speaking:    s.speaking,
		CurrentID:   s.currentID,
		AutoPlaying: s.autoPlaying,
		Paused:      s.paused,
		Generation:  s.generation,
	}
}

// Voices lists the engine's installed voices.
func (s *Sequencer) Voices() ([]Voice, error) {
	return s.engine.Voices()
}
