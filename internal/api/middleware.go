package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/varoOP/shelfdb/internal/domain"
	"github.com/varoOP/shelfdb/internal/session"
)

// sessionKey is the gin context key under which the caller's session
// snapshot is stored.
const sessionKey = "shelfdb_session"

// RequestLogger logs one line per request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}

// Sessions resolves the caller's session from the cookie, creating one (and
// setting the cookie) when absent or expired. secure marks the cookie
// HTTPS-only and should be on whenever the service is served over TLS.
func Sessions(manager *session.Manager, cookieName string, ttl time.Duration, secure bool) gin.HandlerFunc {
	maxAge := int(ttl.Seconds())

	return func(c *gin.Context) {
		var sess session.Session

		if id, err := c.Cookie(cookieName); err == nil {
			if existing, ok := manager.Get(id); ok {
				sess = existing
			}
		}

		if sess.ID == "" {
			sess = manager.New()
			c.SetCookie(cookieName, sess.ID, maxAge, "/", "", secure, true)
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// Identity binds an externally verified user id to the session when the
// request carries a valid bearer credential. Anonymous requests pass through
// untouched.
func Identity(verifier domain.IdentityVerifier, manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if userID, ok := verifier.Verify(c.Request.Context(), token); ok {
				sess := sessionFrom(c)
				if sess.UserID != userID {
					manager.Authenticate(sess.ID, userID)
					sess.UserID = userID
					c.Set(sessionKey, sess)
				}
			}
		}
		c.Next()
	}
}

// sessionFrom returns the session snapshot placed by the Sessions middleware.
func sessionFrom(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(session.Session); ok {
			return sess
		}
	}
	return session.Session{}
}

// abortJSON writes an error message and stops the chain.
func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
