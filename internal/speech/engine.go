// Package speech drives a text-to-speech engine through a small state
// machine: one utterance at a time, identified by a verse id, with stale
// engine callbacks suppressed by a generation counter.
package speech

import (
	"errors"
	"strings"
)

var (
	// ErrInterrupted is reported by engines when a newer utterance preempts one in progress.
	ErrInterrupted = errors.New("speech interrupted")
	// ErrCanceled is reported by engines for utterances dropped by Cancel.
	ErrCanceled = errors.New("speech canceled")
)

// IsTransient reports whether err is the expected result of preempting an
// utterance rather than an engine failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrInterrupted) || errors.Is(err, ErrCanceled) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return msg == "interrupted" || msg == "canceled"
}

type Voice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

// Utterance is one unit of speech. Engines call exactly one of OnEnd or
// OnError when the utterance finishes, possibly from another goroutine.
type Utterance struct {
	Text    string
	Voice   string
	Lang    string
	Rate    float64
	Pitch   float64
	OnEnd   func()
	OnError func(error)
}

// Engine is a speech synthesizer. Cancel is asynchronous: the canceled
// utterance's OnError may arrive after Cancel returns.
type Engine interface {
	Voices() ([]Voice, error)
	Speak(u Utterance) error
	Cancel()
	Pause()
	Resume()
}
