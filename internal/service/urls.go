package service

import (
	"context"
	"errors"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/urlcheck"
)

// UrlsForUser lists the URLs owned by userID in creation order.
// An unknown user simply owns nothing.
func (s *Service) UrlsForUser(ctx context.Context, userID string) (models.UserUrls, error) {
	return s.db.GetUserUrls(ctx, userID)
}

// UserOwnsURL reports whether shortKey exists and belongs to userID.
func (s *Service) UserOwnsURL(ctx context.Context, userID, shortKey string) (bool, error) {
	record, err := s.db.GetURL(ctx, shortKey)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return record.OwnerUserID == userID, nil
}

// CreateShortURL stores longURL under a fresh short key owned by ownerUserID.
func (s *Service) CreateShortURL(ctx context.Context, longURL, ownerUserID string) (string, error) {
	normalized, ok := urlcheck.Normalize(longURL)
	if !ok {
		return "", ErrInvalidURL
	}

	for {
		record := &models.ShortURL{
			ShortKey:    s.generate(s.shortKeyLength),
			OwnerUserID: ownerUserID,
			LongURL:     normalized,
			CreatedAt:   s.nowFunc(),
			VisitLog:    []models.VisitEvent{},
		}

		err := s.db.InsertURL(ctx, record)
		if errors.Is(err, models.ErrShortKeyExists) {
			continue
		}
		if err != nil {
			return "", err
		}

		return record.ShortKey, nil
	}
}

// GetShortURL returns the record stored under shortKey.
func (s *Service) GetShortURL(ctx context.Context, shortKey string) (*models.ShortURL, error) {
	record, err := s.db.GetURL(ctx, shortKey)
	if isNotFound(err) {
		return nil, ErrNotFound
	}

	return record, err
}

// UpdateShortURL points shortKey at newLongURL. It returns false, and leaves
// the modification time alone, when the normalized URL is unchanged.
func (s *Service) UpdateShortURL(ctx context.Context, shortKey, newLongURL string) (bool, error) {
	normalized, ok := urlcheck.Normalize(newLongURL)
	if !ok {
		return false, ErrInvalidURL
	}

	updated, err := s.db.UpdateLongURL(ctx, shortKey, normalized, s.nowFunc())
	if isNotFound(err) {
		return false, ErrNotFound
	}

	return updated, err
}

func (s *Service) DeleteShortURL(ctx context.Context, shortKey string) error {
	err := s.db.DeleteURL(ctx, shortKey)
	if isNotFound(err) {
		return ErrNotFound
	}

	return err
}

// RecordVisit appends a visit by visitorID to the log of shortKey.
func (s *Service) RecordVisit(ctx context.Context, shortKey, visitorID string) error {
	err := s.db.AppendVisit(ctx, shortKey, models.VisitEvent{
		Timestamp: s.nowFunc(),
		VisitorID: visitorID,
	})
	if isNotFound(err) {
		return ErrNotFound
	}

	return err
}

// GetVisitStats counts all visits and distinct visitors of shortKey.
func (s *Service) GetVisitStats(ctx context.Context, shortKey string) (models.VisitStats, error) {
	record, err := s.GetShortURL(ctx, shortKey)
	if err != nil {
		return models.VisitStats{}, err
	}

	return countVisits(record.VisitLog), nil
}

func countVisits(visitLog []models.VisitEvent) models.VisitStats {
	visitorIDs := make([]string, 0, len(visitLog))
	for _, visit := range visitLog {
		visitorIDs = append(visitorIDs, visit.VisitorID)
	}

	return models.VisitStats{
		Total:  len(visitLog),
		Unique: len(funk.UniqString(visitorIDs)),
	}
}
