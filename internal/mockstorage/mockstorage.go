// Package mockstorage provides a testify-based mock implementation
// of the storage interfaces consumed by the service and auth packages.
// It is used to simulate collisions and storage failures in unit tests.
package mockstorage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

// StorageMock is a testify mock of the user and URL stores.
type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) ExistingUserField(ctx context.Context, username, email string) (string, error) {
	args := m.Called(ctx, username, email)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) InsertUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

func (m *StorageMock) IsUserIDExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) FindUserByLogin(ctx context.Context, login string, match models.LoginMatch) (*user.User, error) {
	args := m.Called(ctx, login, match)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StorageMock) InsertURL(ctx context.Context, record *models.ShortURL) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *StorageMock) GetURL(ctx context.Context, shortKey string) (*models.ShortURL, error) {
	args := m.Called(ctx, shortKey)
	record, _ := args.Get(0).(*models.ShortURL)
	return record, args.Error(1)
}

func (m *StorageMock) GetUserUrls(ctx context.Context, userID string) (models.UserUrls, error) {
	args := m.Called(ctx, userID)
	urls, _ := args.Get(0).(models.UserUrls)
	return urls, args.Error(1)
}

func (m *StorageMock) UpdateLongURL(ctx context.Context, shortKey, longURL string, modifiedAt time.Time) (bool, error) {
	args := m.Called(ctx, shortKey, longURL, modifiedAt)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) DeleteURL(ctx context.Context, shortKey string) error {
	args := m.Called(ctx, shortKey)
	return args.Error(0)
}

func (m *StorageMock) AppendVisit(ctx context.Context, shortKey string, visit models.VisitEvent) error {
	args := m.Called(ctx, shortKey, visit)
	return args.Error(0)
}

func (m *StorageMock) GetNumberOfShortenedURLs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
