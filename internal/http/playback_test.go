package http

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/scripture/internal/playback"
	"github.com/mrlokans/scripture/internal/speech"
)

// settle runs the sequencer's settle timer so the queued text reaches the engine.
func (a *testApp) settle() {
	a.clock.Advance(speech.DefaultSettleDelay)
}

func (a *testApp) lastSpoken(t *testing.T) string {
	t.Helper()
	u, ok := a.engine.Last()
	require.True(t, ok, "nothing spoken")
	return u.Text
}

func TestSpeak_Verse(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/playback/speak", gin.H{"id": "jhn 3:2"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode[playback.State](t, w)
	assert.True(t, state.Speaking)
	assert.Equal(t, "jhn 3:2", state.CurrentID)
	assert.Equal(t, playback.ModeVerse, state.Mode)

	app.settle()
	assert.Equal(t, "He came by night.", app.lastSpoken(t))

	// the same id again toggles playback off
	w = app.do(t, http.MethodPost, "/api/playback/speak", gin.H{"id": "jhn 3:2"})
	require.Equal(t, http.StatusOK, w.Code)
	state = decode[playback.State](t, w)
	assert.False(t, state.Speaking)
	assert.Equal(t, playback.ModeIdle, state.Mode)
}

func TestSpeak_Text(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/playback/speak", gin.H{"id": "selection", "text": "Grace and peace"})

	require.Equal(t, http.StatusOK, w.Code)
	app.settle()
	assert.Equal(t, "Grace and peace", app.lastSpoken(t))
}

func TestSpeak_PreferredLanguageCorpus(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.prefs.Apply(languageUpdate("zh-cn")))

	w := app.do(t, http.MethodPost, "/api/playback/speak", gin.H{"id": "jhn 1:1"})

	require.Equal(t, http.StatusOK, w.Code)
	app.settle()
	u, ok := app.engine.Last()
	require.True(t, ok)
	assert.Equal(t, "太初有道。", u.Text)
	assert.Equal(t, "Chinese (Mandarin)", u.Voice)
}

func TestSpeak_Errors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"missing id", gin.H{"text": "hello"}, http.StatusBadRequest},
		{"range without text", gin.H{"id": "jhn 3:1-2"}, http.StatusBadRequest},
		{"malformed id", gin.H{"id": "jhn"}, http.StatusBadRequest},
		{"unknown book", gin.H{"id": "xyz 1:1"}, http.StatusNotFound},
		{"verse out of range", gin.H{"id": "jhn 3:9"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(t, http.MethodPost, "/api/playback/speak", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
	_, spoken := app.engine.Last()
	assert.False(t, spoken)
}

func TestPlayChapter_ChainsAcrossChapters(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/playback/chapter", gin.H{"book": "John", "chapter": 2})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode[playback.State](t, w)
	assert.Equal(t, playback.ModeChapter, state.Mode)
	assert.True(t, state.AutoPlaying)

	app.settle()
	assert.Equal(t, "On the third day.", app.lastSpoken(t))

	require.True(t, app.engine.Finish())
	app.settle()
	assert.Equal(t, "There was a man.", app.lastSpoken(t))

	require.True(t, app.engine.Finish())
	app.settle()
	assert.Equal(t, "He came by night.", app.lastSpoken(t))

	w = app.do(t, http.MethodGet, "/api/playback/state", nil)
	state = decode[playback.State](t, w)
	assert.Equal(t, "jhn 3:2", state.CurrentID)
	assert.Equal(t, 3, state.Played)
}

func TestPlayChapter_StartVerseAndErrors(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/playback/chapter", gin.H{"book": "jhn", "chapter": 3, "verse": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jhn 3:3", decode[playback.State](t, w).CurrentID)

	w = app.do(t, http.MethodPost, "/api/playback/chapter", gin.H{"book": "jhn", "chapter": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/playback/chapter", gin.H{"book": "jhn", "chapter": 9})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "verse_not_found", decode[ErrorResponse](t, w).Code)

	w = app.do(t, http.MethodPost, "/api/playback/chapter", gin.H{"book": "xyz", "chapter": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "book_not_found", decode[ErrorResponse](t, w).Code)
}

func TestPlayRange_Loops(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/playback/range", gin.H{"id": "gen 1:1-2", "loops": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[playback.State](t, w)
	assert.Equal(t, playback.ModePlaylist, started.Mode)
	assert.Equal(t, 4, started.Queued)

	var texts []string
	for i := 0; i < 4; i++ {
		app.settle()
		texts = append(texts, app.lastSpoken(t))
		require.True(t, app.engine.Finish())
	}
	assert.Equal(t, []string{
		"In the beginning.", "And the earth was without form.",
		"In the beginning.", "And the earth was without form.",
	}, texts)

	state := decode[playback.State](t, app.do(t, http.MethodGet, "/api/playback/state", nil))
	assert.False(t, state.Speaking)
	assert.False(t, state.AutoPlaying)
	assert.Equal(t, playback.ModeIdle, state.Mode)
	assert.Zero(t, state.Queued)
}

func TestPlayPage(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/playback/page", gin.H{"book": "jhn", "chapter": 3, "from": 1, "to": 2, "verse": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decode[playback.State](t, w)
	assert.Equal(t, playback.ModePage, state.Mode)
	assert.Equal(t, "jhn 3:2", state.CurrentID)

	app.settle()
	require.True(t, app.engine.Finish())
	app.settle()

	state = decode[playback.State](t, app.do(t, http.MethodGet, "/api/playback/state", nil))
	assert.False(t, state.Speaking, "page playback stops at the last verse of the page")
	assert.Len(t, app.engine.Spoken(), 1)

	w = app.do(t, http.MethodPost, "/api/playback/page", gin.H{"book": "jhn", "chapter": 3, "from": 3, "to": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStopPauseResume(t *testing.T) {
	app := newTestApp(t)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/playback/chapter", gin.H{"book": "jhn", "chapter": 1}).Code)
	app.settle()

	state := decode[playback.State](t, app.do(t, http.MethodPost, "/api/playback/pause", nil))
	assert.True(t, state.Paused)
	assert.Equal(t, 1, app.engine.Pauses())

	state = decode[playback.State](t, app.do(t, http.MethodPost, "/api/playback/resume", nil))
	assert.False(t, state.Paused)
	assert.True(t, state.Speaking)

	state = decode[playback.State](t, app.do(t, http.MethodPost, "/api/playback/stop", nil))
	assert.False(t, state.Speaking)
	assert.False(t, state.AutoPlaying)
	assert.Equal(t, playback.ModeIdle, state.Mode)

	// a completion arriving after stop does not advance the chapter
	app.engine.Finish()
	app.settle()
	assert.Len(t, app.engine.Spoken(), 1)
}

func TestVoices(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/voices", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Voices   []speech.Voice       `json:"voices"`
		Selected speech.Selection     `json:"selected"`
		Settings speech.VoiceSettings `json:"settings"`
	}](t, w)
	assert.Len(t, resp.Voices, 2)
	assert.Equal(t, "English (America)", resp.Selected.Voice)
	assert.Equal(t, "en", resp.Settings.Language)
}
