package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type AnalyticsRepository struct {
	db *sql.DB
}

var _ ports.AnalyticsRepository = (*AnalyticsRepository)(nil)

func (r *AnalyticsRepository) Insert(ctx context.Context, ev *domain.AnalyticsEvent) error {
	query := `INSERT INTO analytics (id, linktree_id, link_id, timestamp, ip, user_agent, referrer, country, city)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		ev.ID, ev.LinktreeID, ev.LinkID, toMillis(ev.Timestamp),
		ev.IP, ev.UserAgent, ev.Referrer, ev.Country, ev.City,
	)
	return translate(err)
}

func (r *AnalyticsRepository) Query(ctx context.Context, q domain.EventQuery) ([]domain.AnalyticsEvent, int64, error) {
	if len(q.LinktreeIDs) == 0 {
		return []domain.AnalyticsEvent{}, 0, nil
	}

	where := []string{"linktree_id IN (" + placeholders(len(q.LinktreeIDs)) + ")"}
	args := make([]any, 0, len(q.LinktreeIDs)+4)
	for _, id := range q.LinktreeIDs {
		args = append(args, id)
	}
	if q.Start != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, toMillis(*q.Start))
	}
	if q.End != nil {
		where = append(where, "timestamp <= ?")
		args = append(args, toMillis(*q.End))
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analytics`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, translate(err)
	}

	query := `SELECT id, linktree_id, link_id, timestamp, ip, user_agent, referrer, country, city
			  FROM analytics` + whereClause + ` ORDER BY timestamp DESC, id`
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, (page-1)*q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	events := []domain.AnalyticsEvent{}
	for rows.Next() {
		var (
			ev domain.AnalyticsEvent
			ts int64
		)
		if err := rows.Scan(&ev.ID, &ev.LinktreeID, &ev.LinkID, &ts,
			&ev.IP, &ev.UserAgent, &ev.Referrer, &ev.Country, &ev.City); err != nil {
			return nil, 0, translate(err)
		}
		ev.Timestamp = fromMillis(ts)
		events = append(events, ev)
	}
	return events, total, translate(rows.Err())
}

func (r *AnalyticsRepository) DeleteByLinktree(ctx context.Context, linktreeID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analytics WHERE linktree_id = ?`, linktreeID)
	if err != nil {
		return 0, translate(err)
	}
	n, err := res.RowsAffected()
	return n, translate(err)
}
