package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type LinktreeRepository struct {
	db *sql.DB
}

var _ ports.LinktreeRepository = (*LinktreeRepository)(nil)

const linktreeColumns = `id, user_id, title, slug, theme, is_default, is_public, footer, links, created_at, updated_at`

func (r *LinktreeRepository) Create(ctx context.Context, lt *domain.Linktree) error {
	linksJSON, err := marshalLinks(lt.Links)
	if err != nil {
		return err
	}

	query := `INSERT INTO linktrees (` + linktreeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		lt.ID, lt.UserID, lt.Title, lt.Slug, lt.Theme,
		boolToInt(lt.IsDefault), boolToInt(lt.IsPublic), lt.Footer, linksJSON,
		toMillis(lt.CreatedAt), toMillis(lt.UpdatedAt),
	)
	return translate(err)
}

func (r *LinktreeRepository) GetByID(ctx context.Context, id string) (*domain.Linktree, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linktreeColumns+` FROM linktrees WHERE id = ?`, id)
	return scanOptionalLinktree(row)
}

func (r *LinktreeRepository) GetBySlug(ctx context.Context, slug string) (*domain.Linktree, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linktreeColumns+` FROM linktrees WHERE slug = ?`, slug)
	return scanOptionalLinktree(row)
}

func (r *LinktreeRepository) ListByUser(ctx context.Context, userID string) ([]domain.Linktree, error) {
	return r.list(ctx, `SELECT `+linktreeColumns+` FROM linktrees WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (r *LinktreeRepository) Dump(ctx context.Context) ([]domain.Linktree, error) {
	return r.list(ctx, `SELECT `+linktreeColumns+` FROM linktrees ORDER BY created_at ASC`)
}

func (r *LinktreeRepository) Update(ctx context.Context, lt *domain.Linktree) error {
	linksJSON, err := marshalLinks(lt.Links)
	if err != nil {
		return err
	}

	query := `UPDATE linktrees SET title = ?, slug = ?, theme = ?, is_default = ?, is_public = ?,
			  footer = ?, links = ?, updated_at = ? WHERE id = ?`
	_, err = r.db.ExecContext(ctx, query,
		lt.Title, lt.Slug, lt.Theme, boolToInt(lt.IsDefault), boolToInt(lt.IsPublic),
		lt.Footer, linksJSON, toMillis(lt.UpdatedAt), lt.ID,
	)
	return translate(err)
}

func (r *LinktreeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM linktrees WHERE id = ?`, id)
	return translate(err)
}

func (r *LinktreeRepository) UnsetDefault(ctx context.Context, userID, exceptID string) error {
	query := `UPDATE linktrees SET is_default = 0 WHERE user_id = ? AND id <> ? AND is_default = 1`
	_, err := r.db.ExecContext(ctx, query, userID, exceptID)
	return translate(err)
}

func (r *LinktreeRepository) list(ctx context.Context, query string, args ...any) ([]domain.Linktree, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	var out []domain.Linktree
	for rows.Next() {
		lt, err := scanLinktree(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *lt)
	}
	return out, translate(rows.Err())
}

func scanOptionalLinktree(row *sql.Row) (*domain.Linktree, error) {
	lt, err := scanLinktree(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return lt, err
}

func scanLinktree(s scanner) (*domain.Linktree, error) {
	var (
		lt                   domain.Linktree
		isDefault, isPublic  int
		linksJSON            []byte
		createdAt, updatedAt int64
	)
	err := s.Scan(&lt.ID, &lt.UserID, &lt.Title, &lt.Slug, &lt.Theme,
		&isDefault, &isPublic, &lt.Footer, &linksJSON, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, translate(err)
	}

	lt.IsDefault = isDefault != 0
	lt.IsPublic = isPublic != 0
	lt.CreatedAt = fromMillis(createdAt)
	lt.UpdatedAt = fromMillis(updatedAt)
	if err := json.Unmarshal(linksJSON, &lt.Links); err != nil {
		return nil, err
	}
	if lt.Links == nil {
		lt.Links = []domain.Link{}
	}
	return &lt, nil
}

func marshalLinks(links []domain.Link) ([]byte, error) {
	if links == nil {
		links = []domain.Link{}
	}
	return json.Marshal(links)
}
