package notes

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// Repository persists notes. Every lookup is scoped to the owner, so a note
// owned by someone else is indistinguishable from a missing one.
type Repository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	GetByID(ctx context.Context, ownerID, id int64) (*models.Note, error)
	GetForUpdate(ctx context.Context, ownerID, id int64) (*models.Note, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Note, error)
	Update(ctx context.Context, ownerID, id int64, patch models.NotePatch) (*models.Note, error)
	TogglePinned(ctx context.Context, ownerID, id int64) (*models.Note, error)
	ToggleArchived(ctx context.Context, ownerID, id int64) (*models.Note, error)
	Delete(ctx context.Context, ownerID, id int64) (*string, error)
	ImagesByOwner(ctx context.Context, ownerID int64) ([]string, error)
}
