package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scripture/internal/playback"
	"github.com/mrlokans/scripture/internal/speech"
	"github.com/mrlokans/scripture/internal/verses"
)

// SpeechControl is the part of speech.Sequencer the controller uses directly.
type SpeechControl interface {
	Voices() ([]speech.Voice, error)
	Settings() speech.VoiceSettings
	Pause()
	Resume()
}

type PlaybackController struct {
	player  *playback.Player
	speech  SpeechControl
	corpora corpusResolver
}

func NewPlaybackController(player *playback.Player, sc SpeechControl, corpora CorpusProvider, language LanguageSource) *PlaybackController {
	return &PlaybackController{
		player:  player,
		speech:  sc,
		corpora: corpusResolver{corpora: corpora, language: language},
	}
}

type SpeakRequest struct {
	ID   string `json:"id" binding:"required"`
	Text string `json:"text"`
}

type ChapterPlayRequest struct {
	Book    string `json:"book" binding:"required"`
	Chapter int    `json:"chapter" binding:"required,min=1"`
	Verse   int    `json:"verse"`
}

type RangePlayRequest struct {
	RangeRequest
	Loops int `json:"loops"`
}

type PagePlayRequest struct {
	Book    string `json:"book" binding:"required"`
	Chapter int    `json:"chapter" binding:"required,min=1"`
	From    int    `json:"from"`
	To      int    `json:"to" binding:"required,min=1"`
	Verse   int    `json:"verse"` // start here instead of From when inside the page
}

// Speak handles POST /api/playback/speak. Without text the id must name a
// single verse, which is read from the corpus. Repeating the id that is
// playing stops it.
func (pc *PlaybackController) Speak(c *gin.Context) {
	var req SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Text) != "" {
		pc.player.SpeakText(req.ID, req.Text)
		c.JSON(http.StatusOK, pc.player.State())
		return
	}

	r, err := verses.ParseID(req.ID)
	if err != nil {
		respondDomainError(c, err, "parse verse id")
		return
	}
	if !r.IsSingle() {
		respondBadRequest(c, "id must name a single verse when text is omitted")
		return
	}
	cp, ok := pc.corpora.resolve(c)
	if !ok {
		return
	}
	if err := pc.player.PlayVerse(cp, r.BookID, r.Chapter, r.StartVerse); err != nil {
		respondDomainError(c, err, "play verse")
		return
	}
	c.JSON(http.StatusOK, pc.player.State())
}

// PlayChapter handles POST /api/playback/chapter
func (pc *PlaybackController) PlayChapter(c *gin.Context) {
	var req ChapterPlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	cp, ok := pc.corpora.resolve(c)
	if !ok {
		return
	}
	verse := req.Verse
	if verse < 1 {
		verse = 1
	}
	if err := pc.player.PlayChapter(cp, req.Book, req.Chapter, verse); err != nil {
		respondDomainError(c, err, "play chapter")
		return
	}
	c.JSON(http.StatusOK, pc.player.State())
}

// PlayRange handles POST /api/playback/range
func (pc *PlaybackController) PlayRange(c *gin.Context) {
	var req RangePlayRequest
	r, ok := bindRange(c, &req, &req.RangeRequest)
	if !ok {
		return
	}
	cp, ok := pc.corpora.resolve(c)
	if !ok {
		return
	}
	if err := pc.player.PlayRange(cp, r, req.Loops); err != nil {
		respondDomainError(c, err, "play range")
		return
	}
	c.JSON(http.StatusOK, pc.player.State())
}

// PlayPage handles POST /api/playback/page
func (pc *PlaybackController) PlayPage(c *gin.Context) {
	var req PagePlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	start := req.From
	if req.Verse >= req.From && req.Verse <= req.To {
		start = req.Verse
	}
	if start > req.To {
		respondBadRequest(c, "from must not be after to")
		return
	}
	cp, ok := pc.corpora.resolve(c)
	if !ok {
		return
	}
	if err := pc.player.PlayPage(cp, req.Book, req.Chapter, start, req.To); err != nil {
		respondDomainError(c, err, "play page")
		return
	}
	c.JSON(http.StatusOK, pc.player.State())
}

// Stop handles POST /api/playback/stop
func (pc *PlaybackController) Stop(c *gin.Context) {
	pc.player.Stop()
	c.JSON(http.StatusOK, pc.player.State())
}

// Pause handles POST /api/playback/pause
func (pc *PlaybackController) Pause(c *gin.Context) {
	pc.speech.Pause()
	c.JSON(http.StatusOK, pc.player.State())
}

// Resume handles POST /api/playback/resume
func (pc *PlaybackController) Resume(c *gin.Context) {
	pc.speech.Resume()
	c.JSON(http.StatusOK, pc.player.State())
}

// State handles GET /api/playback/state
func (pc *PlaybackController) State(c *gin.Context) {
	c.JSON(http.StatusOK, pc.player.State())
}

// Voices handles GET /api/voices. selected is the voice the current language
// resolves to.
func (pc *PlaybackController) Voices(c *gin.Context) {
	voices, err := pc.speech.Voices()
	if err != nil {
		respondInternalError(c, err, "list voices")
		return
	}
	settings := pc.speech.Settings()
	c.JSON(http.StatusOK, gin.H{
		"voices":   voices,
		"selected": speech.SelectVoice(voices, settings.Language),
		"settings": settings,
	})
}
