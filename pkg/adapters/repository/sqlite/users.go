package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type UserRepository struct {
	db *sql.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

const userColumns = `id, email, name, image, created_at, updated_at`

// UpsertByEmail keeps the stored id, name and image of a returning user.
func (r *UserRepository) UpsertByEmail(ctx context.Context, u *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)
			  ON CONFLICT(email) DO UPDATE SET updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.Image, toMillis(u.CreatedAt), toMillis(u.UpdatedAt))
	if err != nil {
		return nil, translate(err)
	}
	return r.GetByEmail(ctx, u.Email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, image = ?, updated_at = ? WHERE id = ?`,
		u.Email, u.Name, u.Image, toMillis(u.UpdatedAt), u.ID)
	return translate(err)
}

func (r *UserRepository) get(ctx context.Context, query string, arg string) (*domain.User, error) {
	var (
		u                domain.User
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.Image, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return &u, nil
}
