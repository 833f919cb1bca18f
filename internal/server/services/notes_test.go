package services

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noteFixture struct {
	svc    *NoteService
	mem    *memDB
	mock   sqlmock.Sqlmock
	images *storage.MemoryStore
}

func newNoteFixture(t *testing.T) *noteFixture {
	t.Helper()
	db, mock := newSQLMockDB(t)
	m := newMemDB()
	images := storage.NewMemoryStore()
	return &noteFixture{
		svc:    NewNoteService(db, &fakeRepoManager{m}, images, logging.Nop()),
		mem:    m,
		mock:   mock,
		images: images,
	}
}

func (f *noteFixture) expectTx() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func ptr[T any](v T) *T { return &v }

func TestCreate_AppliesDefaults(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "Shopping"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", n.Body)
	assert.Equal(t, common.DefaultNoteColor, n.Color)
	assert.False(t, n.Pinned)
	assert.False(t, n.Archived)
	assert.Nil(t, n.Image)
	assert.True(t, n.CreatedAt.Equal(n.UpdatedAt))

	got, err := f.svc.Get(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestCreate_EmptyColorFallsBack(t *testing.T) {
	f := newNoteFixture(t)

	n, err := f.svc.Create(context.Background(), 1, models.NoteInput{Title: "x", Color: ""}, nil)
	require.NoError(t, err)
	assert.Equal(t, "#ffffff", n.Color)

	n, err = f.svc.Create(context.Background(), 1, models.NoteInput{Title: "x", Color: "#ff0000"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", n.Color)
}

func TestCreate_RejectsBlankTitle(t *testing.T) {
	f := newNoteFixture(t)

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := f.svc.Create(context.Background(), 1, models.NoteInput{Title: title}, nil)
		assert.ErrorIs(t, err, common.ErrorValidation)
	}
	assert.Empty(t, f.mem.notes)
}

func TestCreate_RejectsNULBytes(t *testing.T) {
	f := newNoteFixture(t)

	for name, in := range map[string]models.NoteInput{
		"title": {Title: "a\x00b"},
		"body":  {Title: "T", Body: "x\x00"},
		"color": {Title: "T", Color: "#fff\x00"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), 1, in, nil)
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.ErrorContains(t, err, name)
		})
	}
	assert.Empty(t, f.mem.notes)
}

func TestCreate_WithUpload(t *testing.T) {
	f := newNoteFixture(t)

	n, err := f.svc.Create(context.Background(), 1, models.NoteInput{Title: "pic"}, pngUpload)
	require.NoError(t, err)
	require.NotNil(t, n.Image)
	assert.True(t, strings.HasPrefix(*n.Image, "notes/"))
	_, ok := f.images.Get(*n.Image)
	assert.True(t, ok)
}

func TestList_Ordering(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "A"}, nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, 1, models.NoteInput{Title: "B"}, nil)
	require.NoError(t, err)
	c, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "C"}, nil)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, 2, models.NoteInput{Title: "not mine"}, nil)
	require.NoError(t, err)

	_, err = f.svc.TogglePin(ctx, 1, a.ID)
	require.NoError(t, err)
	_, err = f.svc.TogglePin(ctx, 1, c.ID)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, 1)
	require.NoError(t, err)

	var titles []string
	for _, n := range list {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"C", "A", "B"}, titles)
}

func TestList_IncludesArchived(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "A"}, nil)
	require.NoError(t, err)
	_, err = f.svc.ToggleArchive(ctx, 1, n.ID)
	require.NoError(t, err)

	list, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Archived)
}

func TestUpdate_OnlyColor(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T", Body: "B"}, nil)
	require.NoError(t, err)

	f.expectTx()
	u, err := f.svc.Update(ctx, 1, n.ID, models.NotePatch{Color: ptr("#000000")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "#000000", u.Color)
	assert.Equal(t, n.Title, u.Title)
	assert.Equal(t, n.Body, u.Body)
	assert.Equal(t, n.Pinned, u.Pinned)
	assert.Equal(t, n.Archived, u.Archived)
	assert.True(t, u.UpdatedAt.After(n.UpdatedAt))
	assert.True(t, u.CreatedAt.Equal(n.CreatedAt))
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdate_EmptyPatchRefreshesTimestamp(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T"}, nil)
	require.NoError(t, err)

	f.expectTx()
	u, err := f.svc.Update(ctx, 1, n.ID, models.NotePatch{}, nil)
	require.NoError(t, err)
	assert.Equal(t, n.Title, u.Title)
	assert.True(t, u.UpdatedAt.After(n.UpdatedAt))
}

func TestUpdate_BlankTitleRejected(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T"}, nil)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, 1, n.ID, models.NotePatch{Title: ptr("  ")}, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)

	got, err := f.svc.Get(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
}

func TestUpdate_RejectsNULBytes(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T", Body: "B"}, nil)
	require.NoError(t, err)

	for name, p := range map[string]models.NotePatch{
		"title": {Title: ptr("\x00")},
		"body":  {Body: ptr("ok\x00")},
		"color": {Color: ptr("\x00#000")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, 1, n.ID, p, nil)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}

	got, err := f.svc.Get(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestUpdate_ReplaceImageRemovesOld(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T"}, pngUpload)
	require.NoError(t, err)
	old := *n.Image

	f.expectTx()
	u, err := f.svc.Update(ctx, 1, n.ID, models.NotePatch{}, pngUpload)
	require.NoError(t, err)
	require.NotNil(t, u.Image)
	assert.NotEqual(t, old, *u.Image)

	_, ok := f.images.Get(old)
	assert.False(t, ok)
	_, ok = f.images.Get(*u.Image)
	assert.True(t, ok)
}

func TestUpdate_ClearImage(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T"}, pngUpload)
	require.NoError(t, err)

	f.expectTx()
	u, err := f.svc.Update(ctx, 1, n.ID, models.NotePatch{SetImage: true}, nil)
	require.NoError(t, err)
	assert.Nil(t, u.Image)
	assert.Equal(t, 0, f.images.Len())
}

func TestUpdate_NotOwnerRollsBackAndDropsUpload(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T"}, nil)
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
	_, err = f.svc.Update(ctx, 2, n.ID, models.NotePatch{Title: ptr("hijack")}, pngUpload)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 0, f.images.Len())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestToggles_TwiceRestores(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T"}, nil)
	require.NoError(t, err)

	p1, err := f.svc.TogglePin(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.True(t, p1.Pinned)
	assert.True(t, p1.UpdatedAt.After(n.UpdatedAt))
	p2, err := f.svc.TogglePin(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.Pinned, p2.Pinned)

	a1, err := f.svc.ToggleArchive(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.True(t, a1.Archived)
	a2, err := f.svc.ToggleArchive(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.Archived, a2.Archived)
}

func TestForeignNoteLooksMissing(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "mine"}, nil)
	require.NoError(t, err)
	const missing = int64(9999)

	for _, id := range []int64{n.ID, missing} {
		_, err := f.svc.Get(ctx, 2, id)
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = f.svc.TogglePin(ctx, 2, id)
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = f.svc.ToggleArchive(ctx, 2, id)
		assert.ErrorIs(t, err, common.ErrorNotFound)
		assert.ErrorIs(t, f.svc.Delete(ctx, 2, id), common.ErrorNotFound)

		f.mock.ExpectBegin()
		f.mock.ExpectRollback()
		_, err = f.svc.Update(ctx, 2, id, models.NotePatch{}, nil)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	}

	got, err := f.svc.Get(ctx, 1, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
	assert.False(t, got.Pinned)
}

func TestDelete_RemovesImage(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T"}, pngUpload)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, 1, n.ID))
	assert.Equal(t, 0, f.images.Len())

	assert.ErrorIs(t, f.svc.Delete(ctx, 1, n.ID), common.ErrorNotFound)
}

func TestDelete_ImageFailureIsNotReported(t *testing.T) {
	f := newNoteFixture(t)
	ctx := context.Background()
	flaky := &flakyStore{MemoryStore: storage.NewMemoryStore()}
	f.svc.images = flaky

	n, err := f.svc.Create(ctx, 1, models.NoteInput{Title: "T"}, pngUpload)
	require.NoError(t, err)

	assert.NoError(t, f.svc.Delete(ctx, 1, n.ID))
	assert.Equal(t, []string{*n.Image}, flaky.deletes)
	assert.Empty(t, f.mem.notes)
}
