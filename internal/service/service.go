// Package service implements account registration and authentication,
// and the ownership and visit logic of short URLs, on top of an abstract storage.
package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/randstr"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

const (
	DefaultShortKeyLength = 6
	DefaultUserIDLength   = 6
)

type userKeeper interface {
	ExistingUserField(ctx context.Context, username, email string) (string, error)
	InsertUser(ctx context.Context, usr *user.User) error
	FindUserByLogin(ctx context.Context, login string, match models.LoginMatch) (*user.User, error)
	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type urlsKeeper interface {
	InsertURL(ctx context.Context, record *models.ShortURL) error
	GetURL(ctx context.Context, shortKey string) (*models.ShortURL, error)
	GetUserUrls(ctx context.Context, userID string) (models.UserUrls, error)
	UpdateLongURL(ctx context.Context, shortKey, longURL string, modifiedAt time.Time) (bool, error)
	DeleteURL(ctx context.Context, shortKey string) error
	AppendVisit(ctx context.Context, shortKey string, visit models.VisitEvent) error
	GetNumberOfShortenedURLs(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	userKeeper
	urlsKeeper
	pinger
}

type Service struct {
	db               storage
	generate         func(length int) string
	nowFunc          func() time.Time
	shortKeyLength   int
	userIDLength     int
	passwordHashCost int

	// dummyHash is compared against when the login is unknown, so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

type InitOption func(*initOptions)

type initOptions struct {
	generate         func(length int) string
	nowFunc          func() time.Time
	shortKeyLength   int
	userIDLength     int
	passwordHashCost int
}

// WithKeyGenerator replaces randstr.Generate as the source of user IDs and short keys.
func WithKeyGenerator(generate func(length int) string) InitOption {
	return func(options *initOptions) {
		options.generate = generate
	}
}

func WithClock(nowFunc func() time.Time) InitOption {
	return func(options *initOptions) {
		options.nowFunc = nowFunc
	}
}

func WithShortKeyLength(length int) InitOption {
	return func(options *initOptions) {
		options.shortKeyLength = length
	}
}

func WithUserIDLength(length int) InitOption {
	return func(options *initOptions) {
		options.userIDLength = length
	}
}

// WithPasswordHashCost sets the bcrypt cost used for new passwords.
func WithPasswordHashCost(cost int) InitOption {
	return func(options *initOptions) {
		options.passwordHashCost = cost
	}
}

func New(db storage, optionsProto ...InitOption) (*Service, error) {
	options := &initOptions{
		generate:         randstr.Generate,
		nowFunc:          time.Now,
		shortKeyLength:   DefaultShortKeyLength,
		userIDLength:     DefaultUserIDLength,
		passwordHashCost: bcrypt.DefaultCost,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte(randstr.Generate(16)), options.passwordHashCost)
	if err != nil {
		return nil, err
	}

	return &Service{
		db:               db,
		generate:         options.generate,
		nowFunc:          options.nowFunc,
		shortKeyLength:   options.shortKeyLength,
		userIDLength:     options.userIDLength,
		passwordHashCost: options.passwordHashCost,
		dummyHash:        dummyHash,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetInternalStats returns the number of short URLs and users.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	urls, err := s.db.GetNumberOfShortenedURLs(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		URLs:  urls,
		Users: users,
	}, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrURLNotFound)
}
