// Package memorystorage keeps users and short URLs in process memory.
// The user store and the URL store are guarded by independent locks,
// so every check-and-insert, update, delete and visit append is atomic
// with respect to its own store.
package memorystorage

import (
	"context"
	"sync"
	"time"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

// MemoryStorage is the in-memory implementation of the service storage.
type MemoryStorage struct {
	usersMu           sync.RWMutex
	users             map[string]*user.User
	userIDsByUsername map[string]string
	userIDsByEmail    map[string]string

	urlsMu sync.RWMutex
	urls   map[string]*models.ShortURL
	// shortKeys preserves insertion order of urls.
	shortKeys []string
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users:             map[string]*user.User{},
		userIDsByUsername: map[string]string{},
		userIDsByEmail:    map[string]string{},
		urls:              map[string]*models.ShortURL{},
		shortKeys:         []string{},
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}

func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// ExistingUserField returns "username" or "email" naming the field that
// already belongs to some user, or "" if neither does. The username wins
// when both collide.
func (theStorage *MemoryStorage) ExistingUserField(ctx context.Context, username, email string) (string, error) {
	theStorage.usersMu.RLock()
	defer theStorage.usersMu.RUnlock()

	return theStorage.existingUserField(username, email), nil
}

func (theStorage *MemoryStorage) existingUserField(username, email string) string {
	if _, found := theStorage.userIDsByUsername[username]; found {
		return "username"
	}
	if _, found := theStorage.userIDsByEmail[email]; found {
		return "email"
	}

	return ""
}

// InsertUser stores a copy of usr. It fails with models.ErrUserIDExists,
// models.ErrUsernameExists or models.ErrEmailExists without mutating anything.
func (theStorage *MemoryStorage) InsertUser(ctx context.Context, usr *user.User) error {
	theStorage.usersMu.Lock()
	defer theStorage.usersMu.Unlock()

	if _, found := theStorage.users[usr.ID]; found {
		return models.ErrUserIDExists
	}
	switch theStorage.existingUserField(usr.Username, usr.Email) {
	case "username":
		return models.ErrUsernameExists
	case "email":
		return models.ErrEmailExists
	}

	stored := *usr
	theStorage.users[stored.ID] = &stored
	theStorage.userIDsByUsername[stored.Username] = stored.ID
	theStorage.userIDsByEmail[stored.Email] = stored.ID

	return nil
}

func (theStorage *MemoryStorage) IsUserIDExists(ctx context.Context, userID string) (bool, error) {
	theStorage.usersMu.RLock()
	defer theStorage.usersMu.RUnlock()

	_, exists := theStorage.users[userID]

	return exists, nil
}

func (theStorage *MemoryStorage) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	theStorage.usersMu.RLock()
	defer theStorage.usersMu.RUnlock()

	usr, found := theStorage.users[userID]
	if !found {
		return nil, models.ErrUserNotFound
	}
	result := *usr

	return &result, nil
}

// FindUserByLogin looks the login up in a single pass according to match.
// With models.LoginMatchAny a username match takes precedence over an email match.
func (theStorage *MemoryStorage) FindUserByLogin(
	ctx context.Context,
	login string,
	match models.LoginMatch,
) (*user.User, error) {
	theStorage.usersMu.RLock()
	defer theStorage.usersMu.RUnlock()

	var (
		userID string
		found  bool
	)
	switch match {
	case models.LoginMatchEmail:
		userID, found = theStorage.userIDsByEmail[login]
	case models.LoginMatchUsername:
		userID, found = theStorage.userIDsByUsername[login]
	default:
		userID, found = theStorage.userIDsByUsername[login]
		if !found {
			userID, found = theStorage.userIDsByEmail[login]
		}
	}
	if !found {
		return nil, models.ErrUserNotFound
	}
	result := *theStorage.users[userID]

	return &result, nil
}

func (theStorage *MemoryStorage) GetNumberOfUsers(ctx context.Context) (int64, error) {
	theStorage.usersMu.RLock()
	defer theStorage.usersMu.RUnlock()

	return int64(len(theStorage.users)), nil
}

// InsertURL stores a copy of record, failing with models.ErrShortKeyExists
// if its key is taken.
func (theStorage *MemoryStorage) InsertURL(ctx context.Context, record *models.ShortURL) error {
	theStorage.urlsMu.Lock()
	defer theStorage.urlsMu.Unlock()

	if _, found := theStorage.urls[record.ShortKey]; found {
		return models.ErrShortKeyExists
	}
	theStorage.urls[record.ShortKey] = record.Clone()
	theStorage.shortKeys = append(theStorage.shortKeys, record.ShortKey)

	return nil
}

func (theStorage *MemoryStorage) IsShortKeyExists(ctx context.Context, shortKey string) (bool, error) {
	theStorage.urlsMu.RLock()
	defer theStorage.urlsMu.RUnlock()

	_, exists := theStorage.urls[shortKey]

	return exists, nil
}

func (theStorage *MemoryStorage) GetURL(ctx context.Context, shortKey string) (*models.ShortURL, error) {
	theStorage.urlsMu.RLock()
	defer theStorage.urlsMu.RUnlock()

	record, found := theStorage.urls[shortKey]
	if !found {
		return nil, models.ErrURLNotFound
	}

	return record.Clone(), nil
}

// GetUserUrls returns the records owned by userID in insertion order.
func (theStorage *MemoryStorage) GetUserUrls(ctx context.Context, userID string) (models.UserUrls, error) {
	theStorage.urlsMu.RLock()
	defer theStorage.urlsMu.RUnlock()

	result := models.UserUrls{}
	for _, shortKey := range theStorage.shortKeys {
		record := theStorage.urls[shortKey]
		if record.OwnerUserID != userID {
			continue
		}
		result = append(result, models.UserURL{
			ShortKey: shortKey,
			Record:   record.Clone(),
		})
	}

	return result, nil
}

// UpdateLongURL replaces the long URL and stamps modifiedAt. If longURL equals
// the stored value nothing changes and false is returned.
func (theStorage *MemoryStorage) UpdateLongURL(
	ctx context.Context,
	shortKey string,
	longURL string,
	modifiedAt time.Time,
) (bool, error) {
	theStorage.urlsMu.Lock()
	defer theStorage.urlsMu.Unlock()

	record, found := theStorage.urls[shortKey]
	if !found {
		return false, models.ErrURLNotFound
	}
	if record.LongURL == longURL {
		return false, nil
	}
	record.LongURL = longURL
	record.LastModifiedAt = &modifiedAt

	return true, nil
}

func (theStorage *MemoryStorage) DeleteURL(ctx context.Context, shortKey string) error {
	theStorage.urlsMu.Lock()
	defer theStorage.urlsMu.Unlock()

	if _, found := theStorage.urls[shortKey]; !found {
		return models.ErrURLNotFound
	}
	delete(theStorage.urls, shortKey)
	for i, key := range theStorage.shortKeys {
		if key == shortKey {
			theStorage.shortKeys = append(theStorage.shortKeys[:i], theStorage.shortKeys[i+1:]...)
			break
		}
	}

	return nil
}

// AppendVisit adds visit to the end of the record's visit log.
func (theStorage *MemoryStorage) AppendVisit(ctx context.Context, shortKey string, visit models.VisitEvent) error {
	theStorage.urlsMu.Lock()
	defer theStorage.urlsMu.Unlock()

	record, found := theStorage.urls[shortKey]
	if !found {
		return models.ErrURLNotFound
	}
	record.VisitLog = append(record.VisitLog, visit)

	return nil
}

func (theStorage *MemoryStorage) GetNumberOfShortenedURLs(ctx context.Context) (int64, error) {
	theStorage.urlsMu.RLock()
	defer theStorage.urlsMu.RUnlock()

	return int64(len(theStorage.urls)), nil
}
