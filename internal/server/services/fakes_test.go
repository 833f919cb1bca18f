package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	notesrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
	usersrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memDB mimics the two tables closely enough for service tests.
type memDB struct {
	mu     sync.Mutex
	now    time.Time
	nextID int64
	users  map[int64]*models.User
	notes  map[int64]*models.Note

	failWith error
}

func newMemDB() *memDB {
	return &memDB{
		now:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		users: map[int64]*models.User{},
		notes: map[int64]*models.Note{},
	}
}

func (m *memDB) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

type fakeUsers struct{ m *memDB }

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failWith != nil {
		return nil, f.m.failWith
	}
	for _, x := range f.m.users {
		if x.Email == u.Email {
			return nil, common.ErrorDuplicateEmail
		}
	}
	c := *u
	c.ID = f.m.id()
	c.CreatedAt = f.m.tick()
	f.m.users[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failWith != nil {
		return nil, f.m.failWith
	}
	for _, x := range f.m.users {
		if x.Email == email {
			c := *x
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(ctx context.Context, id int64) (*models.PublicUser, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if u, ok := f.m.users[id]; ok {
		return u.Public(), nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) Delete(ctx context.Context, id int64) error {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if _, ok := f.m.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.m.users, id)
	for nid, n := range f.m.notes {
		if n.UserID == id {
			delete(f.m.notes, nid)
		}
	}
	return nil
}

type fakeNotes struct{ m *memDB }

func (f *fakeNotes) owned(ownerID, id int64) (*models.Note, error) {
	n, ok := f.m.notes[id]
	if !ok || n.UserID != ownerID {
		return nil, common.ErrorNotFound
	}
	return n, nil
}

func cp(n *models.Note) *models.Note {
	c := *n
	return &c
}

func (f *fakeNotes) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	if f.m.failWith != nil {
		return nil, f.m.failWith
	}
	c := cp(note)
	c.ID = f.m.id()
	c.CreatedAt = f.m.tick()
	c.UpdatedAt = c.CreatedAt
	f.m.notes[c.ID] = c
	return cp(c), nil
}

func (f *fakeNotes) GetByID(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	n, err := f.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	return cp(n), nil
}

func (f *fakeNotes) GetForUpdate(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	return f.GetByID(ctx, ownerID, id)
}

func (f *fakeNotes) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Note, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	out := make([]*models.Note, 0)
	for _, n := range f.m.notes {
		if n.UserID == ownerID {
			out = append(out, cp(n))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeNotes) Update(ctx context.Context, ownerID, id int64, p models.NotePatch) (*models.Note, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	n, err := f.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Body != nil {
		n.Body = *p.Body
	}
	if p.Color != nil {
		n.Color = *p.Color
	}
	if p.SetImage {
		n.Image = p.Image
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	if p.Archived != nil {
		n.Archived = *p.Archived
	}
	n.UpdatedAt = f.m.tick()
	return cp(n), nil
}

func (f *fakeNotes) toggle(ownerID, id int64, flip func(*models.Note)) (*models.Note, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	n, err := f.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	flip(n)
	n.UpdatedAt = f.m.tick()
	return cp(n), nil
}

func (f *fakeNotes) TogglePinned(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	return f.toggle(ownerID, id, func(n *models.Note) { n.Pinned = !n.Pinned })
}

func (f *fakeNotes) ToggleArchived(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	return f.toggle(ownerID, id, func(n *models.Note) { n.Archived = !n.Archived })
}

func (f *fakeNotes) Delete(ctx context.Context, ownerID, id int64) (*string, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	n, err := f.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	delete(f.m.notes, id)
	return n.Image, nil
}

func (f *fakeNotes) ImagesByOwner(ctx context.Context, ownerID int64) ([]string, error) {
	f.m.mu.Lock()
	defer f.m.mu.Unlock()
	var out []string
	for _, n := range f.m.notes {
		if n.UserID == ownerID && n.Image != nil {
			out = append(out, *n.Image)
		}
	}
	return out, nil
}

type fakeRepoManager struct{ m *memDB }

func (r *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (r *fakeRepoManager) MigrationVersion(context.Context, *sql.DB) (int64, error) {
	return 0, nil
}
func (r *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository { return &fakeUsers{r.m} }
func (r *fakeRepoManager) Notes(db dbx.DBTX) notesrepo.Repository { return &fakeNotes{r.m} }

// flakyStore fails every Delete.
type flakyStore struct {
	*storage.MemoryStore
	deletes []string
}

func (s *flakyStore) Delete(ctx context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return errors.New("disk on fire")
}

var pngUpload = &storage.Image{
	Data:        []byte("\x89PNG\r\n\x1a\nfake"),
	ContentType: "image/png",
	Ext:         ".png",
}
