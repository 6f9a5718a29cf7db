package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/scripture/internal/annotations"
	"github.com/mrlokans/scripture/internal/audit"
	"github.com/mrlokans/scripture/internal/corpus"
	"github.com/mrlokans/scripture/internal/database"
	"github.com/mrlokans/scripture/internal/entities"
	"github.com/mrlokans/scripture/internal/playback"
	"github.com/mrlokans/scripture/internal/settingsstore"
	"github.com/mrlokans/scripture/internal/speech"
	"github.com/mrlokans/scripture/internal/speech/speechtest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testBooks = map[string][]entities.Book{
	"en": {
		{ID: "gen", Name: "Genesis", Chapters: [][]string{
			{"In the beginning.", "And the earth was without form."},
		}},
		{ID: "jhn", Name: "John", Chapters: [][]string{
			{"In the beginning was the Word."},
			{"On the third day."},
			{"There was a man.", "He came by night.", "Jesus answered."},
		}},
	},
	"zh-cn": {
		{ID: "gen", Name: "创世记", Chapters: [][]string{{"起初，神创造天地。", "地是空虚混沌。"}}},
		{ID: "jhn", Name: "约翰福音", Chapters: [][]string{{"太初有道。"}, {"第三日。"}, {"有一个人。", "夜里来见耶稣。", "耶稣回答说。"}}},
	},
}

func writeCorpora(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for lang, books := range testBooks {
		data, err := json.Marshal(books)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, lang+".json"), data, 0o644))
	}
	return dir
}

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []backlite.Task
	err      error
	statuses map[string]backlite.TaskStatus
}

func (q *fakeQueue) Enqueue(_ context.Context, task backlite.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	q.enqueued = append(q.enqueued, task)
	return "task-1", nil
}

func (q *fakeQueue) Status(_ context.Context, id string) (backlite.TaskStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if status, ok := q.statuses[id]; ok {
		return status, nil
	}
	return backlite.TaskStatusNotFound, nil
}

type fakeScheduler struct {
	mu          sync.Mutex
	reschedules int
	runs        int
	err         error
}

func (s *fakeScheduler) Reschedule(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reschedules++
	return s.err
}

func (s *fakeScheduler) RunNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
}

func (s *fakeScheduler) IsRunning() bool            { return true }
func (s *fakeScheduler) GetNextRunTime() *time.Time { return nil }

type testApp struct {
	router    *gin.Engine
	db        *database.Database
	corpora   *corpus.Registry
	store     *annotations.Store
	prefs     *settingsstore.SettingsStore
	engine    *speechtest.Engine
	clock     *speechtest.Clock
	sequencer *speech.Sequencer
	events    *audit.Service
	auditDir  string
	queue     *fakeQueue
	scheduler *fakeScheduler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	for _, env := range []string{"CORPUS_DEFAULT_LANGUAGE", "SPEECH_DEFAULT_RATE", "READER_THEME", "READER_FONT_SIZE", "EXPORT_DIR", "EXPORT_SYNC_ENABLED", "EXPORT_SYNC_SCHEDULE"} {
		t.Setenv(env, "")
	}

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "app.db"), database.WithSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := corpus.NewRegistry(writeCorpora(t), "en")
	_, err = registry.Get("en")
	require.NoError(t, err)

	app := &testApp{
		db:        db,
		corpora:   registry,
		store:     annotations.New(db.Settings(), registry),
		prefs:     settingsstore.New(db.Settings()),
		engine:    speechtest.NewEngine(speech.Voice{Name: "English (America)", Lang: "en-US"}, speech.Voice{Name: "Chinese (Mandarin)", Lang: "cmn-zh-CN"}),
		clock:     speechtest.NewClock(),
		events:    audit.NewService(db.Audit()),
		auditDir:  t.TempDir(),
		queue:     &fakeQueue{statuses: map[string]backlite.TaskStatus{"task-1": backlite.TaskStatusRunning}},
		scheduler: &fakeScheduler{},
	}
	app.sequencer = speech.NewSequencer(app.engine, speech.WithClock(app.clock))
	app.prefs.OnVoiceChange(app.sequencer.ApplySettings)
	t.Cleanup(app.events.Wait)

	app.router = NewRouter(RouterConfig{
		Corpora:     registry,
		Preferences: app.prefs,
		Annotations: app.store,
		Importer:    app.store,
		Player:      playback.NewPlayer(app.sequencer),
		Speech:      app.sequencer,
		ExportSync:  app.prefs,
		TaskQueue:   app.queue,
		Scheduler:   app.scheduler,
		Archiver:    audit.NewAuditor(app.auditDir),
		AuditEvents: app.events,
		Database:    db,
		Version:     "test",
	})
	return app
}

func (a *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doRequest(t, a.router, method, path, body)
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		value string
		want  uint
		ok    bool
	}{
		{"123", 123, true},
		{"abc", 0, false},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tt.value}}

			id, ok := parseIDParam(c, "id")

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestParseVerseQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ok    bool
		error string
	}{
		{"complete", "?book=jhn&chapter=3&verse=16", true, ""},
		{"missing book", "?chapter=3&verse=16", false, "book is required"},
		{"missing verse", "?book=jhn&chapter=3", false, "verse is required"},
		{"zero chapter", "?book=jhn&chapter=0&verse=1", false, "invalid chapter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/"+tt.query, nil)

			loc, ok := parseVerseQuery(c)

			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, VerseLocation{Book: "jhn", Chapter: 3, Verse: 16}, loc)
			} else {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), tt.error)
			}
		})
	}
}

func TestParsePagination(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?limit=500&offset=-3", nil)

	limit, offset := parsePagination(c, 25, 100)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 0, offset)

	c.Request = httptest.NewRequest("GET", "/?limit=10&offset=20", nil)
	limit, offset = parsePagination(c, 25, 100)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)
}

func TestRangeRequestResolve(t *testing.T) {
	r, err := RangeRequest{ID: "jhn 3:1-2"}.resolve()
	require.NoError(t, err)
	assert.Equal(t, entities.VerseRange{BookID: "jhn", Chapter: 3, StartVerse: 1, EndVerse: 2}, r)

	r, err = RangeRequest{
		Range: &entities.VerseRange{BookID: "gen", Chapter: 1, StartVerse: 2, EndVerse: 2},
		ID:    "jhn 3:1",
	}.resolve()
	require.NoError(t, err)
	assert.Equal(t, "gen", r.BookID, "object wins over id")

	_, err = RangeRequest{Range: &entities.VerseRange{BookID: "gen", Chapter: 1, StartVerse: 2, EndVerse: 1}}.resolve()
	assert.ErrorIs(t, err, entities.ErrInvalidRange)

	_, err = RangeRequest{}.resolve()
	assert.Error(t, err)
}

func TestRespondDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{entities.ErrInvalidRange, http.StatusBadRequest},
		{settingsstore.ErrInvalidPreference, http.StatusBadRequest},
		{corpus.ErrBookNotFound, http.StatusNotFound},
		{playback.ErrVerseNotFound, http.StatusNotFound},
		{playback.ErrNothingToPlay, http.StatusUnprocessableEntity},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondDomainError(c, tt.err, "test")
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}
}
