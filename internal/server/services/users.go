// Package services contains server-side business logic: registration and
// account removal (UserService), token issuing and checking (AuthService)
// and owner-scoped note operations (NoteService).
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
)

// Registration is the input of UserService.Register. ProfileImage is an
// already inspected upload, or nil.
type Registration struct {
	Name         string
	Email        string
	Password     string
	ProfileImage *storage.Image
}

// UserService owns the credential records.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      storage.ImageStore
	logger      logging.Logger
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, images storage.ImageStore, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      logger.With("module", "users"),
	}
}

func validateRegistration(r Registration) error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return common.Validation("name is required")
	case strings.TrimSpace(r.Email) == "":
		return common.Validation("email is required")
	case r.Password == "":
		return common.Validation("password is required")
	}
	if err := validText("name", r.Name); err != nil {
		return err
	}
	return validText("email", r.Email)
}

// Register stores a new user with a bcrypt hash of the password. The email
// is kept exactly as given.
func (s *UserService) Register(ctx context.Context, r Registration) (*models.PublicUser, error) {
	if err := validateRegistration(r); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, r.Email)
	switch {
	case err == nil:
		return nil, common.ErrorDuplicateEmail
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error checking email: %w", err)
	}

	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	user := &models.User{Name: r.Name, Email: r.Email, PasswordHash: hash}

	if r.ProfileImage != nil {
		key := storage.NewKey(storage.ProfilePrefix, r.ProfileImage.Ext)
		if err := s.images.Save(ctx, key, r.ProfileImage.Reader(), r.ProfileImage.Size(), r.ProfileImage.ContentType); err != nil {
			return nil, fmt.Errorf("%w: save profile image: %v", common.ErrorInternal, err)
		}
		user.ProfileImage = &key
	}

	u, err := repo.Create(ctx, user)
	if err != nil {
		if user.ProfileImage != nil {
			s.removeImage(ctx, *user.ProfileImage)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u.Public(), nil
}

// FindByEmail returns the full record including the password hash.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, email)
}

// FindByID returns the public identity of the user.
func (s *UserService) FindByID(ctx context.Context, id int64) (*models.PublicUser, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// Delete removes the user with the given email together with their notes.
// Stored images are removed after the rows are gone, best-effort.
func (s *UserService) Delete(ctx context.Context, email string) error {
	users := s.repomanager.Users(s.db)

	u, err := users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	images, err := s.repomanager.Notes(s.db).ImagesByOwner(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("error listing note images: %w", err)
	}
	if u.ProfileImage != nil {
		images = append(images, *u.ProfileImage)
	}

	if err := users.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	for _, key := range images {
		s.removeImage(ctx, key)
	}

	s.logger.Info(ctx, "user deleted", "user_id", u.ID, "images", len(images))
	return nil
}

func (s *UserService) removeImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "failed to delete image", "key", key, "error", err)
	}
}
