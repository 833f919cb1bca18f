package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user and fills in the generated id and creation time.
// A taken email yields common.ErrorDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (name, email, password_hash, profile_image)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, nullString(user.ProfileImage)).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorDuplicateEmail
		}
		return nil, dbx.StoreError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, profile_image, created_at FROM users
		 WHERE email = $1`

	var (
		user  models.User
		image sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &image, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StoreError(err)
	}

	user.ProfileImage = stringPtr(image)
	return &user, nil
}

// GetByID never selects the password hash.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.PublicUser, error) {
	query :=
		`SELECT id, name, email, profile_image, created_at FROM users
		 WHERE id = $1`

	var (
		user  models.PublicUser
		image sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Name, &user.Email, &image, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StoreError(err)
	}

	user.ProfileImage = stringPtr(image)
	return &user, nil
}

// Delete removes the user; owned notes go with it through ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return dbx.StoreError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StoreError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
