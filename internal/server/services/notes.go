package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
)

// NoteService exposes note operations for an already authenticated user.
// A note owned by someone else is reported as common.ErrorNotFound.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      storage.ImageStore
	logger      logging.Logger
}

// NewNoteService constructs a NoteService.
func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, images storage.ImageStore, logger logging.Logger) *NoteService {
	return &NoteService{
		db:          db,
		repomanager: m,
		images:      images,
		logger:      logger.With("module", "notes"),
	}
}

func validTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return common.Validation("title is required")
	}
	return validText("title", title)
}

// validText rejects NUL bytes, which Postgres TEXT cannot store.
func validText(field, v string) error {
	if strings.IndexByte(v, 0) >= 0 {
		return common.Validation(field + " must not contain NUL bytes")
	}
	return nil
}

func colorOrDefault(c string) string {
	if c == "" {
		return common.DefaultNoteColor
	}
	return c
}

// saveUpload stores img under a fresh note key.
func (s *NoteService) saveUpload(ctx context.Context, img *storage.Image) (string, error) {
	key := storage.NewKey(storage.NotePrefix, img.Ext)
	if err := s.images.Save(ctx, key, img.Reader(), img.Size(), img.ContentType); err != nil {
		return "", fmt.Errorf("%w: save image: %v", common.ErrorInternal, err)
	}
	return key, nil
}

func (s *NoteService) removeImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn(ctx, "failed to delete image", "key", key, "error", err)
	}
}

// Create stores a new note with an optional image upload.
func (s *NoteService) Create(ctx context.Context, ownerID int64, in models.NoteInput, upload *storage.Image) (*models.Note, error) {
	if err := validTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validText("body", in.Body); err != nil {
		return nil, err
	}
	if err := validText("color", in.Color); err != nil {
		return nil, err
	}

	note := &models.Note{
		UserID: ownerID,
		Title:  in.Title,
		Body:   in.Body,
		Color:  colorOrDefault(in.Color),
	}

	if upload != nil {
		key, err := s.saveUpload(ctx, upload)
		if err != nil {
			return nil, err
		}
		note.Image = &key
	}

	n, err := s.repomanager.Notes(s.db).Create(ctx, note)
	if err != nil {
		if upload != nil {
			s.removeImage(ctx, *note.Image)
		}
		return nil, fmt.Errorf("error creating note: %w", err)
	}

	return n, nil
}

// List returns every note of the owner, pinned first, newest first.
func (s *NoteService) List(ctx context.Context, ownerID int64) ([]*models.Note, error) {
	return s.repomanager.Notes(s.db).ListByOwner(ctx, ownerID)
}

func (s *NoteService) Get(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	return s.repomanager.Notes(s.db).GetByID(ctx, ownerID, id)
}

// Update applies patch. When the image is replaced or cleared the previous
// file is removed after the transaction commits.
func (s *NoteService) Update(ctx context.Context, ownerID, id int64, patch models.NotePatch, upload *storage.Image) (*models.Note, error) {
	if patch.Title != nil {
		if err := validTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Body != nil {
		if err := validText("body", *patch.Body); err != nil {
			return nil, err
		}
	}
	if patch.Color != nil {
		if err := validText("color", *patch.Color); err != nil {
			return nil, err
		}
		c := colorOrDefault(*patch.Color)
		patch.Color = &c
	}

	if upload != nil {
		key, err := s.saveUpload(ctx, upload)
		if err != nil {
			return nil, err
		}
		patch.SetImage = true
		patch.Image = &key
	}

	var (
		updated  *models.Note
		previous *string
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Notes(tx)

		current, err := repo.GetForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}

		updated, err = repo.Update(ctx, ownerID, id, patch)
		if err != nil {
			return err
		}

		if patch.SetImage && current.Image != nil && (patch.Image == nil || *patch.Image != *current.Image) {
			previous = current.Image
		}
		return nil
	})
	if err != nil {
		if upload != nil {
			s.removeImage(ctx, *patch.Image)
		}
		return nil, err
	}

	if previous != nil {
		s.removeImage(ctx, *previous)
	}

	return updated, nil
}

func (s *NoteService) TogglePin(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	return s.repomanager.Notes(s.db).TogglePinned(ctx, ownerID, id)
}

func (s *NoteService) ToggleArchive(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	return s.repomanager.Notes(s.db).ToggleArchived(ctx, ownerID, id)
}

// Delete removes the note. Failing to remove its image is logged only.
func (s *NoteService) Delete(ctx context.Context, ownerID, id int64) error {
	image, err := s.repomanager.Notes(s.db).Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if image != nil {
		s.removeImage(ctx, *image)
	}

	s.logger.Debug(ctx, "note deleted", "note_id", id, "user_id", ownerID)
	return nil
}
