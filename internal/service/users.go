package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

// RegisterUser creates an account. Empty fields yield ErrIncompleteFields,
// collisions yield ErrUsernameTaken or ErrEmailTaken; in both cases the store
// is left untouched.
func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (*user.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, ErrIncompleteFields
	}

	existingField, err := s.db.ExistingUserField(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if err := takenFieldError(existingField); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordHashCost)
	if err != nil {
		return nil, fmt.Errorf("error while hashing the password: %w", err)
	}

	for {
		usr := &user.User{
			ID:           s.generate(s.userIDLength),
			Username:     username,
			Email:        email,
			PasswordHash: string(passwordHash),
		}

		err := s.db.InsertUser(ctx, usr)
		switch {
		case err == nil:
			return usr, nil
		case errors.Is(err, models.ErrUserIDExists):
			continue
		case errors.Is(err, models.ErrUsernameExists):
			return nil, ErrUsernameTaken
		case errors.Is(err, models.ErrEmailExists):
			return nil, ErrEmailTaken
		default:
			return nil, err
		}
	}
}

// Authenticate returns the user whose login and password match.
// Any mismatch yields ErrInvalidCredentials.
func (s *Service) Authenticate(
	ctx context.Context,
	login string,
	password string,
	match models.LoginMatch,
) (*user.User, error) {
	usr, err := s.db.FindUserByLogin(ctx, login, match)
	if errors.Is(err, models.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return usr, nil
}

func takenFieldError(field string) error {
	switch field {
	case "username":
		return ErrUsernameTaken
	case "email":
		return ErrEmailTaken
	}

	return nil
}
