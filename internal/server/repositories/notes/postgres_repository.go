package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

const noteColumns = `id, user_id, title, content, color, image, pinned, archived, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var (
		n     models.Note
		image sql.NullString
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Color, &image,
		&n.Pinned, &n.Archived, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		n.Image = &image.String
	}
	return &n, nil
}

// one scans a single-row result, mapping an empty result to ErrorNotFound.
func one(row *sql.Row) (*models.Note, error) {
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StoreError(err)
	}
	return n, nil
}

// Create inserts note. created_at and updated_at share the statement's now().
func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	query :=
		`INSERT INTO notes (user_id, title, content, color, image, pinned, archived)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING ` + noteColumns

	return one(r.db.QueryRowContext(ctx, query,
		note.UserID, note.Title, note.Body, note.Color, note.Image, note.Pinned, note.Archived))
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2`

	return one(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = $1 AND user_id = $2 FOR UPDATE`

	return one(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// ListByOwner returns pinned notes first, newest first within each group.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		WHERE user_id = $1
		ORDER BY pinned DESC, created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, dbx.StoreError(err)
	}
	defer rows.Close()

	result := make([]*models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, dbx.StoreError(err)
		}
		result = append(result, n)
	}

	if err := rows.Err(); err != nil {
		return nil, dbx.StoreError(err)
	}

	return result, nil
}

// Update assigns the supplied fields only. updated_at is refreshed even
// when patch is empty.
func (r *PostgresRepository) Update(ctx context.Context, ownerID, id int64, patch models.NotePatch) (*models.Note, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Body != nil {
		set("content", *patch.Body)
	}
	if patch.Color != nil {
		set("color", *patch.Color)
	}
	if patch.SetImage {
		set("image", patch.Image)
	}
	if patch.Pinned != nil {
		set("pinned", *patch.Pinned)
	}
	if patch.Archived != nil {
		set("archived", *patch.Archived)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id, ownerID)
	query := fmt.Sprintf(`UPDATE notes SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), noteColumns)

	return one(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) TogglePinned(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	query := `UPDATE notes SET pinned = NOT pinned, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + noteColumns

	return one(r.db.QueryRowContext(ctx, query, id, ownerID))
}

func (r *PostgresRepository) ToggleArchived(ctx context.Context, ownerID, id int64) (*models.Note, error) {
	query := `UPDATE notes SET archived = NOT archived, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + noteColumns

	return one(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// Delete removes the note and returns the image key it referenced, if any.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) (*string, error) {
	query := `DELETE FROM notes WHERE id = $1 AND user_id = $2 RETURNING image`

	var image sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(&image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StoreError(err)
	}

	if !image.Valid {
		return nil, nil
	}
	return &image.String, nil
}

// ImagesByOwner lists the image keys referenced by the owner's notes.
func (r *PostgresRepository) ImagesByOwner(ctx context.Context, ownerID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT image FROM notes WHERE user_id = $1 AND image IS NOT NULL`, ownerID)
	if err != nil {
		return nil, dbx.StoreError(err)
	}
	defer rows.Close()

	var images []string
	for rows.Next() {
		var image string
		if err := rows.Scan(&image); err != nil {
			return nil, dbx.StoreError(err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, dbx.StoreError(err)
	}

	return images, nil
}
