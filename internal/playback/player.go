package playback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/speech"
	"github.com/mrlokans/scripture/internal/verses"
)

var (
	ErrVerseNotFound = errors.New("verse not found")
	ErrNothingToPlay = errors.New("nothing to play")
)

// Speaker is the sequencer surface the player drives.
type Speaker interface {
	Speak(req speech.Request)
	Stop()
	SetAutoPlaying(on bool)
	State() speech.State
}

type Mode string

const (
	ModeIdle     Mode = "idle"
	ModeVerse    Mode = "verse"
	ModeChapter  Mode = "chapter"
	ModePlaylist Mode = "playlist"
	ModePage     Mode = "page"
)

// State adds the running queue to the sequencer state. Queued is the number
// of slots in a playlist; other queues report zero.
type State struct {
	speech.State
	Mode   Mode `json:"mode"`
	Played int  `json:"played"`
	Queued int  `json:"queued,omitempty"`
}

// sized is implemented by queues that know their length up front.
type sized interface {
	Len() int
}

// Player runs at most one queue at a time. Starting a new one abandons the
// previous queue; its pending completion is dropped by the sequencer.
type Player struct {
	speaker Speaker

	mu     sync.Mutex
	run    uint64
	mode   Mode
	played int
	queued int
}

func NewPlayer(speaker Speaker) *Player {
	return &Player{speaker: speaker, mode: ModeIdle}
}

// SpeakText speaks arbitrary text under id, toggling off if id is already
// playing.
func (p *Player) SpeakText(id, text string) {
	p.mu.Lock()
	p.run++
	p.mode = ModeVerse
	p.played = 1
	p.mu.Unlock()

	p.speaker.SetAutoPlaying(false)
	p.speaker.Speak(speech.Request{Text: text, ID: id})
}

// PlayVerse speaks one verse from src.
func (p *Player) PlayVerse(src Source, book string, chapter, verse int) error {
	book, err := resolveBook(src, book)
	if err != nil {
		return err
	}
	text, ok := src.Verse(book, chapter, verse)
	if !ok {
		return fmt.Errorf("%w: %s", ErrVerseNotFound, verses.VerseID(book, chapter, verse))
	}
	p.SpeakText(verses.VerseID(book, chapter, verse), text)
	return nil
}

// PlayChapter reads from verse onwards, continuing through following
// chapters and books until stopped or the corpus ends.
func (p *Player) PlayChapter(src Source, book string, chapter, verse int) error {
	book, err := resolveBook(src, book)
	if err != nil {
		return err
	}
	if src.VerseCount(book, chapter) == 0 {
		return fmt.Errorf("%w: %s %d", ErrVerseNotFound, book, chapter)
	}
	return p.Play(ModeChapter, NewChapterQueue(src, book, chapter, verse))
}

// PlayRange plays r loops times.
func (p *Player) PlayRange(src Source, r entities.VerseRange, loops int) error {
	if err := r.Validate(); err != nil {
		return err
	}
	book, err := resolveBook(src, r.BookID)
	if err != nil {
		return err
	}
	r.BookID = book
	return p.Play(ModePlaylist, NewPlaylistQueue(src, r, loops))
}

// PlayPage plays verses start..to of one chapter and stops at to.
func (p *Player) PlayPage(src Source, book string, chapter, start, to int) error {
	book, err := resolveBook(src, book)
	if err != nil {
		return err
	}
	return p.Play(ModePage, NewPageQueue(src, book, chapter, start, to))
}

// Play starts q under mode. It returns ErrNothingToPlay if q is empty.
func (p *Player) Play(mode Mode, q Queue) error {
	p.mu.Lock()
	p.run++
	run := p.run
	p.mode = mode
	p.played = 0
	p.queued = 0
	if sq, ok := q.(sized); ok {
		p.queued = sq.Len()
	}
	p.mu.Unlock()

	p.speaker.SetAutoPlaying(true)
	if !p.advance(run, q) {
		return ErrNothingToPlay
	}
	return nil
}

func (p *Player) advance(run uint64, q Queue) bool {
	p.mu.Lock()
	if run != p.run {
		p.mu.Unlock()
		return false
	}
	item, ok := q.Next()
	if !ok {
		p.mode = ModeIdle
		p.mu.Unlock()
		p.speaker.SetAutoPlaying(false)
		return false
	}
	p.played++
	p.mu.Unlock()

	p.speaker.Speak(speech.Request{
		Text:  item.Text,
		ID:    item.ID,
		OnEnd: func() { p.advance(run, q) },
	})
	return true
}

func (p *Player) Stop() {
	p.mu.Lock()
	p.run++
	p.mode = ModeIdle
	p.mu.Unlock()
	p.speaker.Stop()
}

func (p *Player) State() State {
	st := p.speaker.State()
	p.mu.Lock()
	defer p.mu.Unlock()
	state := State{State: st, Mode: p.mode, Played: p.played, Queued: p.queued}
	if !st.Speaking && !st.AutoPlaying {
		state.Mode = ModeIdle
	}
	if state.Mode == ModeIdle {
		state.Queued = 0
	}
	return state
}

func resolveBook(src Source, book string) (string, error) {
	id, ok := src.CanonicalID(book)
	if !ok {
		return "", fmt.Errorf("%w: %s", corpus.ErrBookNotFound, book)
	}
	return id, nil
}
