package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a storage connection. database.Database implements it.
type Pinger interface {
	Ping() error
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      Pinger
	corpora CorpusProvider
	version string
}

func NewHealthController(db Pinger, corpora CorpusProvider, version string) *HealthController {
	return &HealthController{db: db, corpora: corpora, version: version}
}

// probe is one named dependency check. A failing critical probe makes the
// service unhealthy; the corpus only degrades reading.
type probe struct {
	name     string
	critical bool
	run      func() error
}

var errNotConfigured = errors.New("not configured")

func (h *HealthController) probes() []probe {
	probes := []probe{{name: "database", critical: true, run: func() error {
		if h.db == nil {
			return errNotConfigured
		}
		return h.db.Ping()
	}}}
	if h.corpora != nil {
		probes = append(probes, probe{name: "corpus", run: func() error {
			_, err := h.corpora.Get(h.corpora.DefaultLanguage())
			return err
		}})
	}
	return probes
}

func (h *HealthController) Status(c *gin.Context) {
	health := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  make(map[string]string),
	}
	code := http.StatusOK

	for _, p := range h.probes() {
		err := p.run()
		switch {
		case err == nil:
			health.Checks[p.name] = "ok"
			continue
		case errors.Is(err, errNotConfigured):
			health.Checks[p.name] = err.Error()
		default:
			health.Checks[p.name] = "error: " + err.Error()
		}
		if p.critical {
			health.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	c.IndentedJSON(code, health)
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// DemoStatus reports whether writes are blocked by demo mode.
func DemoStatus(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"demo_mode": enabled})
	}
}
