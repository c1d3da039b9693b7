// Package auth keeps the browser session in a signed JWT cookie.
// A session always carries an anonymous visitor ID and optionally
// the ID of the logged-in user.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/tinyapp/internal/logger"
	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/randstr"
)

type userKeeper interface {
	IsUserIDExists(ctx context.Context, userID string) (bool, error)
}

// Session is the identity attached to a request.
type Session struct {
	// UserID is empty for anonymous visitors.
	UserID string

	// VisitorID is generated on first contact and survives login and logout.
	VisitorID string
}

// IsLoggedIn reports whether the session belongs to an authenticated user.
func (s *Session) IsLoggedIn() bool {
	return s != nil && s.UserID != ""
}

// Claims is the payload of the session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id,omitempty"`
	VisitorID string `json:"visitor_id"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// SessionKey is the context key of the *Session of a request.
const SessionKey ContextKey = "session"

// Auth issues and reads session cookies.
type Auth struct {
	db              userKeeper
	cookieName      string
	signingKey      []byte
	maxAge          time.Duration
	visitorIDLength int
}

func New(
	db userKeeper,
	cookieName string,
	signingKey []byte,
	maxAge time.Duration,
	visitorIDLength int,
) *Auth {
	return &Auth{
		db:              db,
		cookieName:      cookieName,
		signingKey:      signingKey,
		maxAge:          maxAge,
		visitorIDLength: visitorIDLength,
	}
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	session, _ := ctx.Value(SessionKey).(*Session)
	return session
}

// WithSession is an HTTP middleware that restores the session from the cookie
// or starts a new anonymous one, and stores it in the request context.
// A user ID that no longer names an existing user is dropped.
func (a *Auth) WithSession(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		session, err := a.getSessionFromCookie(request)
		changed := false
		if err != nil {
			session = &Session{VisitorID: randstr.Generate(a.visitorIDLength)}
			changed = true
		}

		if session.UserID != "" {
			exists, err := a.db.IsUserIDExists(request.Context(), session.UserID)
			if err != nil {
				logger.Log.Debugln("Error calling the `a.db.IsUserIDExists()`: ", zap.Error(err))
				response.WriteHeader(http.StatusInternalServerError)
				return
			}
			if !exists {
				session.UserID = ""
				changed = true
			}
		}

		if changed {
			if err := a.writeCookie(response, session); err != nil {
				logger.Log.Debugln("Error calling the `a.writeCookie()`: ", zap.Error(err))
				response.WriteHeader(http.StatusInternalServerError)
				return
			}
		}

		ctx := context.WithValue(request.Context(), SessionKey, session)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// RequireUser is an HTTP middleware answering 401 to anonymous sessions.
func (a *Auth) RequireUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !FromContext(request.Context()).IsLoggedIn() {
			render.Status(request, http.StatusUnauthorized)
			render.JSON(response, request, models.ErrorResponse{Error: "you must be logged in to do that"})
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// LogIn binds userID to the current session and reissues the cookie.
func (a *Auth) LogIn(response http.ResponseWriter, request *http.Request, userID string) error {
	session := a.currentSession(request)
	session.UserID = userID

	return a.writeCookie(response, session)
}

// LogOut forgets the user of the current session, keeping its visitor ID.
func (a *Auth) LogOut(response http.ResponseWriter, request *http.Request) error {
	session := a.currentSession(request)
	session.UserID = ""

	return a.writeCookie(response, session)
}

func (a *Auth) currentSession(request *http.Request) *Session {
	session := FromContext(request.Context())
	if session == nil {
		return &Session{VisitorID: randstr.Generate(a.visitorIDLength)}
	}

	return session
}

func (a *Auth) writeCookie(response http.ResponseWriter, session *Session) error {
	expiresAt := time.Now().Add(a.maxAge)
	tokenString, err := a.BuildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    session.UserID,
		VisitorID: session.VisitorID,
	})
	if err != nil {
		return err
	}

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.cookieName,
			Value:    tokenString,
			Path:     "/",
			Expires:  expiresAt,
			MaxAge:   int(a.maxAge.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	)

	return nil
}

func (a *Auth) getSessionFromCookie(request *http.Request) (*Session, error) {
	cookie, err := request.Cookie(a.cookieName)
	if err != nil {
		return nil, err
	}

	return a.GetSessionFromToken(cookie.Value)
}

// GetSessionFromToken validates a session token and extracts the session.
func (a *Auth) GetSessionFromToken(tokenString string) (*Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingKey, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.VisitorID == "" {
		return nil, fmt.Errorf("invalid session token")
	}

	return &Session{
		UserID:    claims.UserID,
		VisitorID: claims.VisitorID,
	}, nil
}

// BuildJWTString signs claims with HS256.
func (a *Auth) BuildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}
