package dysession

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCookieName name of the cookie carrying the session key
const DefaultCookieName = "sessionid"

type sessionContextKey struct{}

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if !o.HttpOnly {
		o.HttpOnly = true
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// StoreFactory create the session store for the key presented by a request
type StoreFactory func(sessionKey string) *SessionStore

// NewContext attach the session store to the context
func NewContext(ctx context.Context, ss *SessionStore) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, ss)
}

// FromContext return the session store attached by Middleware
func FromContext(ctx context.Context) (*SessionStore, bool) {
	ss, ok := ctx.Value(sessionContextKey{}).(*SessionStore)
	return ss, ok
}

// Middleware attaches a lazily loaded session to each request and saves it before the response
// headers are written when it has been modified.
func Middleware(factory StoreFactory, cookie CookieOptions, logger zerolog.Logger) func(http.Handler) http.Handler {
	cookie = cookie.normalize()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var requestKey string
			if c, err := r.Cookie(cookie.Name); err == nil {
				requestKey = c.Value
			}

			ss := factory(requestKey)
			r = r.WithContext(NewContext(r.Context(), ss))

			sw := &sessionWriter{ResponseWriter: w}
			sw.before = func() {
				commitSession(r.Context(), w, ss, requestKey, cookie, logger)
			}

			next.ServeHTTP(sw, r)

			sw.commit()
		})
	}
}

func commitSession(ctx context.Context, w http.ResponseWriter, ss *SessionStore, requestKey string, cookie CookieOptions, logger zerolog.Logger) {
	if ss.Accessed() {
		w.Header().Add("Vary", "Cookie")
	}

	if requestKey != "" && ss.IsEmpty() {
		clearCookie(w, cookie)
		return
	}

	if !ss.Modified() || ss.IsEmpty() {
		return
	}

	err := ss.Save(ctx, false)
	if err != nil {
		logger.Error().Err(err).Str("session_key", ss.SessionKey()).Msg("failed to save session")
		return
	}

	maxAge := cookie.MaxAge
	if maxAge == 0 {
		maxAge = ss.cfg.CachePeriod
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookie.Name,
		Value:    ss.SessionKey(),
		Path:     cookie.Path,
		Domain:   cookie.Domain,
		Expires:  time.Now().Add(maxAge),
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: cookie.HttpOnly,
		Secure:   cookie.Secure,
		SameSite: cookie.SameSite,
	})
}

func clearCookie(w http.ResponseWriter, cookie CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookie.Name,
		Value:    "",
		Path:     cookie.Path,
		Domain:   cookie.Domain,
		MaxAge:   -1,
		HttpOnly: cookie.HttpOnly,
		Secure:   cookie.Secure,
		SameSite: cookie.SameSite,
	})
}

// sessionWriter runs before once ahead of the first write so the cookie can still be set
type sessionWriter struct {
	http.ResponseWriter
	before    func()
	committed bool
}

func (sw *sessionWriter) commit() {
	if sw.committed {
		return
	}
	sw.committed = true
	sw.before()
}

func (sw *sessionWriter) WriteHeader(code int) {
	sw.commit()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.commit()
	return sw.ResponseWriter.Write(b)
}
