package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/kochbuch-be/internal/auth"
	"github.com/isdelr/kochbuch-be/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, email, password string, displayName *string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, displayName, avatarURL *string) (models.User, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
}

// UserService is the credential store. It owns the users table and is the
// only place password hashes are read or written.
type UserService struct {
	store
	hasher *auth.PasswordHasher
	events EventServiceProvider
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB, timeout time.Duration, hasher *auth.PasswordHasher, events EventServiceProvider) *UserService {
	return &UserService{
		store:  store{db: db, timeout: timeout},
		hasher: hasher,
		events: events,
	}
}

// normalizeEmail trims surrounding whitespace. Emails are otherwise compared
// exactly as given.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func (s *UserService) hash(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", invalid(err.Error())
	}
	return hash, err
}

// Register creates an account. The unique index on email decides between
// concurrent registrations of the same address; the losers get ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string, displayName *string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return models.User{}, invalid("email and password are required")
	}

	hash, err := s.hash(password)
	if err != nil {
		return models.User{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, display_name, created_at) VALUES (?, ?, ?, ?, ?)",
		user.ID, user.Email, hash, user.DisplayName, user.CreatedAt)
	if err != nil {
		return models.User{}, errors.Wrap(mapConstraint(err), "insert user")
	}

	s.record(ctx, models.EventUserRegister, "info", "Account created.", &user.ID)
	return user, nil
}

// Authenticate checks an email and password pair. An unknown email and a wrong
// password both return ErrInvalidCredentials after the same hashing work.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = normalizeEmail(email)

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, display_name, avatar_url, created_at FROM users WHERE email = ?", email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.AvatarURL, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		s.hasher.VerifyMissing(password)
		s.record(ctx, models.EventUserLoginFail, "warn", "Failed login attempt.", nil)
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "lookup user")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.record(ctx, models.EventUserLoginFail, "warn", "Failed login attempt.", &user.ID)
		return models.User{}, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	s.record(ctx, models.EventUserLogin, "info", "Logged in.", &user.ID)
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, avatar_url, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.Email, &user.DisplayName, &user.AvatarURL, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, errors.Wrapf(ErrNotFound, "user %s", id)
	}
	if err != nil {
		return models.User{}, errors.Wrap(err, "get user")
	}
	return user, nil
}

// UpdateProfile replaces the display name and avatar of the account.
func (s *UserService) UpdateProfile(ctx context.Context, id string, displayName, avatarURL *string) (models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := execOwned(ctx, s.db, "UPDATE users SET display_name = ?, avatar_url = ? WHERE id = ?", displayName, avatarURL, id)
	if err != nil {
		return models.User{}, errors.Wrap(err, "update profile")
	}
	return s.GetUserByID(ctx, id)
}

// ChangePassword replaces the password after checking the current one. The
// update only applies if the stored hash is still the one that was checked.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if newPassword == "" {
		return invalid("new password is required")
	}
	newHash, err := s.hash(newPassword)
	if err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var current string
	err = s.db.QueryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(ErrNotFound, "user %s", id)
	}
	if err != nil {
		return errors.Wrap(err, "lookup password")
	}

	if !s.hasher.Verify(currentPassword, current) {
		return ErrInvalidCredentials
	}

	err = execOwned(ctx, s.db, "UPDATE users SET password_hash = ? WHERE id = ? AND password_hash = ?", newHash, id, current)
	if errors.Is(err, ErrNotFound) {
		// changed concurrently; the checked password is no longer current
		return ErrInvalidCredentials
	}
	if err != nil {
		return errors.Wrap(err, "update password")
	}

	s.record(ctx, models.EventUserPasswordChange, "info", "Password changed.", &id)
	return nil
}

// record writes an audit event. A nil userID is stored as NULL.
func (s *UserService) record(ctx context.Context, eventType, level, message string, userID *string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		ev := log.Error().Err(err).Str("event", eventType)
		if userID != nil {
			ev = ev.Str("user_id", *userID)
		}
		ev.Msg("Failed to record event")
	}
}
