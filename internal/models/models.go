package models

import (
	"errors"
	"time"
)

// VisitEvent is a single resolution of a short key.
type VisitEvent struct {
	Timestamp time.Time `json:"timestamp"`
	VisitorID string    `json:"visitorID"`
}

// ShortURL is the stored record behind a short key.
type ShortURL struct {
	ShortKey       string       `json:"shortKey"`
	OwnerUserID    string       `json:"ownerUserID"`
	LongURL        string       `json:"longURL"`
	CreatedAt      time.Time    `json:"createdAt"`
	LastModifiedAt *time.Time   `json:"lastModifiedAt"`
	VisitLog       []VisitEvent `json:"visitLog"`
}

// Clone returns a deep copy, so callers never share the visit log with the store.
func (u *ShortURL) Clone() *ShortURL {
	result := *u
	if u.LastModifiedAt != nil {
		lastModifiedAt := *u.LastModifiedAt
		result.LastModifiedAt = &lastModifiedAt
	}
	result.VisitLog = make([]VisitEvent, len(u.VisitLog))
	copy(result.VisitLog, u.VisitLog)

	return &result
}

// UserURL pairs a short key with its record, as listed for the owner.
type UserURL struct {
	ShortKey string    `json:"shortKey"`
	Record   *ShortURL `json:"record"`
}

type UserUrls []UserURL

// VisitStats holds the visit counters of a short URL.
type VisitStats struct {
	Total  int `json:"total"`
	Unique int `json:"unique"`
}

// InternalStatsResponse is returned by the trusted-subnet statistics endpoint.
type InternalStatsResponse struct {
	URLs  int64 `json:"urls"`
	Users int64 `json:"users"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type URLRequest struct {
	LongURL string `json:"longURL" validate:"required"`
}

type CreateURLResponse struct {
	ShortKey string `json:"shortKey"`
	LongURL  string `json:"longURL"`
}

type UpdateURLResponse struct {
	Updated bool `json:"updated"`
}

type URLListItem struct {
	ShortKey       string     `json:"shortKey"`
	LongURL        string     `json:"longURL"`
	CreatedAt      time.Time  `json:"createdAt"`
	LastModifiedAt *time.Time `json:"lastModifiedAt"`
}

type URLDetailsResponse struct {
	URLListItem
	Visits   VisitStats   `json:"visits"`
	VisitLog []VisitEvent `json:"visitLog"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginMatch selects which user field a login string is compared against.
type LoginMatch int

const (
	LoginMatchAny LoginMatch = iota
	LoginMatchEmail
	LoginMatchUsername
)

// ParseLoginMatch converts a config value ("any", "email", "username").
func ParseLoginMatch(value string) (LoginMatch, error) {
	switch value {
	case "", "any":
		return LoginMatchAny, nil
	case "email":
		return LoginMatchEmail, nil
	case "username":
		return LoginMatchUsername, nil
	}

	return LoginMatchAny, errors.New("unknown login policy: " + value)
}

var (
	ErrShortKeyExists = errors.New("the short key already exists")
	ErrUserIDExists   = errors.New("the user ID already exists")
	ErrUsernameExists = errors.New("the username already exists")
	ErrEmailExists    = errors.New("the email already exists")
	ErrURLNotFound    = errors.New("the URL does not exist")
	ErrUserNotFound   = errors.New("the user does not exist")
)
