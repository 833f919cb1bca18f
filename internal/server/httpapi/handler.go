// Package httpapi is the REST boundary of the server. It decodes JSON and
// multipart requests, calls the services and maps their errors to statuses.
package httpapi

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
)

type UserService interface {
	Register(ctx context.Context, r services.Registration) (*models.PublicUser, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.PublicUser, error)
}

type NoteService interface {
	Create(ctx context.Context, ownerID int64, in models.NoteInput, upload *storage.Image) (*models.Note, error)
	List(ctx context.Context, ownerID int64) ([]*models.Note, error)
	Get(ctx context.Context, ownerID, id int64) (*models.Note, error)
	Update(ctx context.Context, ownerID, id int64, patch models.NotePatch, upload *storage.Image) (*models.Note, error)
	TogglePin(ctx context.Context, ownerID, id int64) (*models.Note, error)
	ToggleArchive(ctx context.Context, ownerID, id int64) (*models.Note, error)
	Delete(ctx context.Context, ownerID, id int64) error
}

// Handler holds the endpoints. Build the routes with NewRouter.
type Handler struct {
	users         UserService
	auth          AuthService
	notes         NoteService
	maxUploadSize int64
	logger        logging.Logger
}

func NewHandler(us UserService, as AuthService, ns NoteService, maxUploadSize int64, l logging.Logger) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = storage.DefaultMaxSize
	}
	return &Handler{
		users:         us,
		auth:          as,
		notes:         ns,
		maxUploadSize: maxUploadSize,
		logger:        l.With("module", "http"),
	}
}
