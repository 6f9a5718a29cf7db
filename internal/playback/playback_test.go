package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/speech"
	"github.com/mrlokans/scripture/internal/speech/speechtest"
)

func testCorpus() *corpus.Corpus {
	return corpus.New("en", []entities.Book{
		{ID: "gn", Name: "Genesis", Chapters: [][]string{
			{"gn1.1", "gn1.2"},
			{"gn2.1"},
		}},
		{ID: "ex", Name: "Exodus", Chapters: [][]string{
			{"ex1.1", "", "ex1.3"},
		}},
		{ID: "rv", Name: "Revelation", Chapters: [][]string{
			{"rv1.1", "rv1.2"},
		}},
	})
}

func drain(q Queue) []string {
	var ids []string
	for {
		item, ok := q.Next()
		if !ok {
			return ids
		}
		ids = append(ids, item.ID)
	}
}

func TestChapterQueue(t *testing.T) {
	c := testCorpus()

	q := NewChapterQueue(c, "Genesis", 1, 2)
	assert.Equal(t, []string{"gn 1:2", "gn 2:1", "ex 1:1", "ex 1:3", "rv 1:1", "rv 1:2"}, drain(q))

	_, ok := q.Next()
	assert.False(t, ok, "stays exhausted")

	q.Reset()
	item, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, Item{ID: "gn 1:2", Text: "gn1.2"}, item)

	assert.Empty(t, drain(NewChapterQueue(c, "rv", 1, 3)))
}

func TestPlaylistQueue(t *testing.T) {
	c := testCorpus()

	q := NewPlaylistQueue(c, entities.VerseRange{BookID: "ex", Chapter: 1, StartVerse: 1, EndVerse: 3}, 2)
	assert.Equal(t, 6, q.Len())
	assert.Equal(t, []string{"ex 1:1", "ex 1:3", "ex 1:1", "ex 1:3"}, drain(q))

	q = NewPlaylistQueue(c, entities.VerseRange{BookID: "gn", Chapter: 1, StartVerse: 2, EndVerse: 4}, 0)
	assert.Equal(t, []string{"gn 1:2"}, drain(q), "loops below one play once; missing verses are skipped")
}

func TestPageQueue(t *testing.T) {
	c := testCorpus()

	assert.Equal(t, []string{"ex 1:3"}, drain(NewPageQueue(c, "ex", 1, 2, 10)))
	assert.Equal(t, []string{"gn 1:1"}, drain(NewPageQueue(c, "gn", 1, 0, 1)))
}

type harness struct {
	seq    *speech.Sequencer
	engine *speechtest.Engine
	clock  *speechtest.Clock
	player *Player
}

func newHarness() *harness {
	engine := speechtest.NewEngine()
	clock := speechtest.NewClock()
	seq := speech.NewSequencer(engine, speech.WithClock(clock))
	return &harness{seq: seq, engine: engine, clock: clock, player: NewPlayer(seq)}
}

// step lets the current utterance start and then completes it.
func (h *harness) step(t *testing.T) string {
	t.Helper()
	h.clock.Advance(speech.DefaultSettleDelay)
	u, ok := h.engine.Last()
	require.True(t, ok)
	require.True(t, h.engine.Finish())
	return u.Text
}

func TestPlayer_ChapterChainsAcrossBooks(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.player.PlayChapter(testCorpus(), "gn", 2, 1))

	state := h.player.State()
	assert.True(t, state.AutoPlaying)
	assert.Equal(t, ModeChapter, state.Mode)
	assert.Equal(t, "gn 2:1", state.CurrentID)

	assert.Equal(t, "gn2.1", h.step(t))
	assert.Equal(t, "ex 1:1", h.player.State().CurrentID)
	assert.Equal(t, "ex1.1", h.step(t))
	assert.Equal(t, "ex 1:3", h.player.State().CurrentID)
}

func TestPlayer_LastVerseOfCorpusEndsAutoPlay(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.player.PlayChapter(testCorpus(), "rv", 1, 2))

	assert.Equal(t, "rv1.2", h.step(t))

	state := h.player.State()
	assert.False(t, state.AutoPlaying)
	assert.False(t, state.Speaking)
	assert.Empty(t, state.CurrentID)
	assert.Equal(t, ModeIdle, state.Mode)
	assert.Zero(t, h.clock.Pending())
}

func TestPlayer_PlayRangeRepeats(t *testing.T) {
	h := newHarness()
	r := entities.VerseRange{BookID: "Genesis", Chapter: 1, StartVerse: 1, EndVerse: 1}
	require.NoError(t, h.player.PlayRange(testCorpus(), r, 3))

	for i := 0; i < 3; i++ {
		assert.Equal(t, "gn1.1", h.step(t))
	}
	assert.False(t, h.player.State().AutoPlaying)
	assert.Equal(t, 3, h.player.State().Played)
	assert.Len(t, h.engine.Spoken(), 3)
}

func TestPlayer_PageStopsAtPageEnd(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.player.PlayPage(testCorpus(), "gn", 1, 1, 1))

	assert.Equal(t, "gn1.1", h.step(t))
	assert.False(t, h.player.State().Speaking)
	assert.Len(t, h.engine.Spoken(), 1)
}

func TestPlayer_StopAbandonsChain(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.player.PlayChapter(testCorpus(), "gn", 1, 1))
	h.clock.Advance(speech.DefaultSettleDelay)

	h.player.Stop()
	h.engine.Spoken()[0].OnEnd()
	h.clock.Advance(speech.DefaultSettleDelay)

	state := h.player.State()
	assert.False(t, state.Speaking)
	assert.False(t, state.AutoPlaying)
	assert.Len(t, h.engine.Spoken(), 1)
}

func TestPlayer_VerseSupersedesChapter(t *testing.T) {
	h := newHarness()
	c := testCorpus()
	require.NoError(t, h.player.PlayChapter(c, "gn", 1, 1))
	h.clock.Advance(speech.DefaultSettleDelay)

	require.NoError(t, h.player.PlayVerse(c, "rv", 1, 1))
	state := h.player.State()
	assert.Equal(t, "rv 1:1", state.CurrentID)
	assert.False(t, state.AutoPlaying)
	assert.Equal(t, ModeVerse, state.Mode)

	assert.Equal(t, "rv1.1", h.step(t))
	assert.False(t, h.player.State().Speaking)
	assert.Len(t, h.engine.Spoken(), 2)
}

func TestPlayer_VerseToggle(t *testing.T) {
	h := newHarness()
	c := testCorpus()
	require.NoError(t, h.player.PlayVerse(c, "gn", 1, 1))
	require.NoError(t, h.player.PlayVerse(c, "gn", 1, 1))
	assert.False(t, h.player.State().Speaking)
}

func TestPlayer_Errors(t *testing.T) {
	h := newHarness()
	c := testCorpus()

	assert.ErrorIs(t, h.player.PlayVerse(c, "jude", 1, 1), corpus.ErrBookNotFound)
	assert.ErrorIs(t, h.player.PlayVerse(c, "gn", 1, 9), ErrVerseNotFound)
	assert.ErrorIs(t, h.player.PlayChapter(c, "gn", 7, 1), ErrVerseNotFound)
	assert.ErrorIs(t, h.player.PlayRange(c, entities.VerseRange{BookID: "gn", Chapter: 1, StartVerse: 3, EndVerse: 1}, 1), entities.ErrInvalidRange)
	assert.ErrorIs(t, h.player.PlayPage(c, "gn", 1, 5, 9), ErrNothingToPlay)
	assert.False(t, h.player.State().AutoPlaying)
}
