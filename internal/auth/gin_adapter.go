package auth

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
)

// sessionWriter flushes the session cookie exactly once, right before the
// response headers are sent.
type sessionWriter struct {
	gin.ResponseWriter
	flush sync.Once
	save  func(http.ResponseWriter)
}

func (w *sessionWriter) WriteHeader(code int) {
	w.flush.Do(func() { w.save(w.ResponseWriter) })
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) WriteHeaderNow() {
	w.flush.Do(func() { w.save(w.ResponseWriter) })
	w.ResponseWriter.WriteHeaderNow()
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.flush.Do(func() { w.save(w.ResponseWriter) })
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) WriteString(s string) (int, error) {
	w.flush.Do(func() { w.save(w.ResponseWriter) })
	return w.ResponseWriter.WriteString(s)
}

// saveSession commits a modified session or clears a destroyed one.
func (sm *SessionManager) saveSession(r *http.Request) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		ctx := r.Context()
		switch sm.Status(ctx) {
		case scs.Modified:
			token, expiry, err := sm.Commit(ctx)
			if err != nil {
				log.Printf("Failed to commit session: %v", err)
				return
			}
			sm.WriteSessionCookie(ctx, w, token, expiry)
		case scs.Destroyed:
			sm.WriteSessionCookie(ctx, w, "", time.Time{})
		}
	}
}

// SessionLoadSave is scs LoadAndSave for gin. It must run before any handler
// touches the session.
func (sm *SessionManager) SessionLoadSave() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if cookie, err := c.Request.Cookie(sm.Cookie.Name); err == nil {
			token = cookie.Value
		}

		ctx, err := sm.Load(c.Request.Context(), token)
		if err != nil {
			log.Printf("Failed to load session: %v", err)
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Request = c.Request.WithContext(ctx)

		w := &sessionWriter{ResponseWriter: c.Writer, save: sm.saveSession(c.Request)}
		c.Writer = w

		c.Next()

		// handlers that never wrote a body
		w.flush.Do(func() { w.save(w.ResponseWriter) })
	}
}
