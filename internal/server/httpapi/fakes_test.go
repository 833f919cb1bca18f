package httpapi

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
)

var (
	alice = &models.PublicUser{ID: 1, Name: "Alice", Email: "a@x.com"}
	bob   = &models.PublicUser{ID: 2, Name: "Bob", Email: "b@x.com"}
)

type fakeUsers struct {
	got    services.Registration
	emails map[string]bool
}

func (f *fakeUsers) Register(ctx context.Context, r services.Registration) (*models.PublicUser, error) {
	f.got = r
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return nil, common.Validation("all fields are required")
	}
	if f.emails[r.Email] {
		return nil, common.ErrorDuplicateEmail
	}
	f.emails[r.Email] = true
	return &models.PublicUser{ID: 10, Name: r.Name, Email: r.Email}, nil
}

type fakeAuth struct{}

func (fakeAuth) Login(ctx context.Context, email, password string) (string, error) {
	if email == "a@x.com" && password == "pw123" {
		return "alice-token", nil
	}
	return "", common.ErrorInvalidCredentials
}

func (fakeAuth) Authenticate(ctx context.Context, token string) (*models.PublicUser, error) {
	switch token {
	case "":
		return nil, common.ErrMissingToken
	case "alice-token":
		return alice, nil
	case "bob-token":
		return bob, nil
	case "ghost-token":
		return nil, common.ErrUnknownUser
	default:
		return nil, common.ErrInvalidToken
	}
}

// fakeNotes keeps notes in a slice; owner checks mirror the service.
type fakeNotes struct {
	notes     []*models.Note
	lastPatch models.NotePatch
	lastImage *storage.Image
	listErr   error
	panicList bool
}

func (f *fakeNotes) find(owner, id int64) (*models.Note, error) {
	for _, n := range f.notes {
		if n.ID == id && n.UserID == owner {
			return n, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeNotes) Create(ctx context.Context, owner int64, in models.NoteInput, img *storage.Image) (*models.Note, error) {
	if in.Title == "" {
		return nil, common.Validation("title is required")
	}
	f.lastImage = img
	color := in.Color
	if color == "" {
		color = common.DefaultNoteColor
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n := &models.Note{ID: int64(len(f.notes) + 1), UserID: owner, Title: in.Title, Body: in.Body, Color: color, CreatedAt: now, UpdatedAt: now}
	if img != nil {
		key := "notes/x" + img.Ext
		n.Image = &key
	}
	f.notes = append(f.notes, n)
	return n, nil
}

func (f *fakeNotes) List(ctx context.Context, owner int64) ([]*models.Note, error) {
	if f.panicList {
		panic("boom")
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*models.Note{}
	for _, n := range f.notes {
		if n.UserID == owner {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotes) Get(ctx context.Context, owner, id int64) (*models.Note, error) {
	return f.find(owner, id)
}

func (f *fakeNotes) Update(ctx context.Context, owner, id int64, p models.NotePatch, img *storage.Image) (*models.Note, error) {
	f.lastPatch, f.lastImage = p, img
	n, err := f.find(owner, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.SetImage {
		n.Image = p.Image
	}
	return n, nil
}

func (f *fakeNotes) TogglePin(ctx context.Context, owner, id int64) (*models.Note, error) {
	n, err := f.find(owner, id)
	if err != nil {
		return nil, err
	}
	n.Pinned = !n.Pinned
	return n, nil
}

func (f *fakeNotes) ToggleArchive(ctx context.Context, owner, id int64) (*models.Note, error) {
	n, err := f.find(owner, id)
	if err != nil {
		return nil, err
	}
	n.Archived = !n.Archived
	return n, nil
}

func (f *fakeNotes) Delete(ctx context.Context, owner, id int64) error {
	for i, n := range f.notes {
		if n.ID == id && n.UserID == owner {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

type fixture struct {
	users *fakeUsers
	notes *fakeNotes
	h     *Handler
}

func newFixture() *fixture {
	users := &fakeUsers{emails: map[string]bool{}}
	notes := &fakeNotes{}
	return &fixture{
		users: users,
		notes: notes,
		h:     NewHandler(users, fakeAuth{}, notes, 1024, logging.Nop()),
	}
}
