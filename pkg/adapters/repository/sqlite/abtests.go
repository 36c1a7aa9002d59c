package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type ABTestRepository struct {
	db *sql.DB
}

var _ ports.ABTestRepository = (*ABTestRepository)(nil)

const abTestColumns = `id, user_id, name, status, linktree_id, link_id, start_date, end_date, created_at, updated_at`

func (r *ABTestRepository) Create(ctx context.Context, t *domain.ABTest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return translate(err)
	}
	defer tx.Rollback()

	query := `INSERT INTO ab_tests (` + abTestColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		t.ID, t.UserID, t.Name, string(t.Status), t.LinktreeID, t.LinkID,
		toMillis(t.StartDate), nullMillis(t.EndDate), toMillis(t.CreatedAt), toMillis(t.UpdatedAt),
	)
	if err != nil {
		return translate(err)
	}

	for i, v := range t.Variants {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ab_test_variants (test_id, id, position, title, url, impressions, clicks) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			t.ID, v.ID, i, v.Title, v.URL, v.Impressions, v.Clicks,
		)
		if err != nil {
			return translate(err)
		}
	}

	return translate(tx.Commit())
}

func (r *ABTestRepository) GetByID(ctx context.Context, id string) (*domain.ABTest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+abTestColumns+` FROM ab_tests WHERE id = ?`, id)
	t, err := scanABTest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if t.Variants, err = r.variants(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *ABTestRepository) FindActiveByLink(ctx context.Context, linkID string) (*domain.ActiveTest, error) {
	var (
		t      domain.ActiveTest
		status string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, status FROM ab_tests WHERE link_id = ? AND status = ? ORDER BY start_date DESC LIMIT 1`,
		linkID, string(domain.TestActive),
	).Scan(&t.ID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	t.Status = domain.TestStatus(status)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, url FROM ab_test_variants WHERE test_id = ? ORDER BY position`, t.ID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	t.Variants = []domain.PublicVariant{}
	for rows.Next() {
		var v domain.PublicVariant
		if err := rows.Scan(&v.ID, &v.Title, &v.URL); err != nil {
			return nil, translate(err)
		}
		t.Variants = append(t.Variants, v)
	}
	return &t, translate(rows.Err())
}

func (r *ABTestRepository) ListByUser(ctx context.Context, userID string) ([]domain.ABTest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+abTestColumns+` FROM ab_tests WHERE user_id = ? ORDER BY start_date DESC`, userID)
	if err != nil {
		return nil, translate(err)
	}

	tests := []domain.ABTest{}
	for rows.Next() {
		t, err := scanABTest(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		tests = append(tests, *t)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, translate(err)
	}

	// Variants are loaded after the cursor is closed: the local pool holds a
	// single connection.
	for i := range tests {
		if tests[i].Variants, err = r.variants(ctx, tests[i].ID); err != nil {
			return nil, err
		}
	}
	return tests, nil
}

func (r *ABTestRepository) UpdateStatus(ctx context.Context, id string, status domain.TestStatus, endDate *time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ab_tests SET status = ?, end_date = ?, updated_at = ? WHERE id = ?`,
		string(status), nullMillis(endDate), toMillis(time.Now()), id,
	)
	return translate(err)
}

// IncrementVariant is a single UPDATE so concurrent increments never lose a
// count.
func (r *ABTestRepository) IncrementVariant(ctx context.Context, testID, variantID string, metric domain.MetricType) (bool, error) {
	column := "impressions"
	if metric == domain.MetricClick {
		column = "clicks"
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE ab_test_variants SET `+column+` = `+column+` + 1
		 WHERE test_id = ? AND id = ?
		 AND EXISTS (SELECT 1 FROM ab_tests WHERE id = ? AND status = ?)`,
		testID, variantID, testID, string(domain.TestActive),
	)
	if err != nil {
		return false, translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate(err)
	}
	return n > 0, nil
}

func (r *ABTestRepository) variants(ctx context.Context, testID string) ([]domain.Variant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, url, impressions, clicks FROM ab_test_variants WHERE test_id = ? ORDER BY position`, testID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := []domain.Variant{}
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.Title, &v.URL, &v.Impressions, &v.Clicks); err != nil {
			return nil, translate(err)
		}
		out = append(out, v)
	}
	return out, translate(rows.Err())
}

func scanABTest(s scanner) (*domain.ABTest, error) {
	var (
		t                       domain.ABTest
		status                  string
		start, created, updated int64
		end                     sql.NullInt64
	)
	err := s.Scan(&t.ID, &t.UserID, &t.Name, &status, &t.LinktreeID, &t.LinkID,
		&start, &end, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, translate(err)
	}

	t.Status = domain.TestStatus(status)
	t.StartDate = fromMillis(start)
	t.EndDate = fromNullMillis(end)
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	return &t, nil
}
