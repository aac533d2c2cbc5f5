package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"peer_review/internal/adapters/observability"
	"peer_review/internal/domain"
)

const backend = "mysql"

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Repo is a ReviewStore on MySQL. Each Append is a single-row INSERT, so
// concurrent writers from any number of processes never lose rows.
type Repo struct{ db *sql.DB }

var (
	_ domain.ReviewStore  = (*Repo)(nil)
	_ domain.TokenCounter = (*Repo)(nil)
)

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) InitializeIfAbsent(ctx context.Context) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, createReviewsSQL)
	observability.ObserveStore(backend, "init", err, time.Since(start))
	return wrap("create table", err)
}

func (r *Repo) Append(ctx context.Context, rv domain.ReviewRecord) error {
	start := time.Now()
	err := r.insert(ctx, rv)
	observability.ObserveStore(backend, "append", err, time.Since(start))
	return wrap("insert review", err)
}

func (r *Repo) insert(ctx context.Context, rv domain.ReviewRecord) error {
	ratings, err := json.Marshal(rv.Ratings)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, insertReviewSQL,
		rv.ID,
		rv.Timestamp.UTC(),
		rv.EmployeeID,
		rv.EmployeeName,
		valStr(rv.SessionToken),
		string(ratings),
		valStr(rv.Comment),
	)
	return err
}

func (r *Repo) LoadAll(ctx context.Context) ([]domain.ReviewRecord, error) {
	start := time.Now()
	out, err := r.list(ctx)
	observability.ObserveStore(backend, "load_all", err, time.Since(start))
	if err != nil {
		return nil, wrap("list reviews", err)
	}
	return out, nil
}

func (r *Repo) list(ctx context.Context) ([]domain.ReviewRecord, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReviewRecord
	for rows.Next() {
		var (
			rv         domain.ReviewRecord
			createdAt  time.Time
			token      sql.NullString
			ratingsRaw []byte
			comment    sql.NullString
		)
		if err := rows.Scan(
			&rv.ID,
			&createdAt,
			&rv.EmployeeID,
			&rv.EmployeeName,
			&token,
			&ratingsRaw,
			&comment,
		); err != nil {
			return nil, err
		}
		rv.Timestamp = createdAt
		if token.Valid {
			rv.SessionToken = token.String
		}
		if comment.Valid {
			rv.Comment = comment.String
		}
		if err := json.Unmarshal(ratingsRaw, &rv.Ratings); err != nil {
			return nil, fmt.Errorf("review %s: ratings: %w", rv.ID, err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountByToken(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	start := time.Now()
	var n int
	err := r.db.QueryRowContext(ctx, countByTokenSQL, token).Scan(&n)
	observability.ObserveStore(backend, "count_by_token", err, time.Since(start))
	return n, wrap("count by token", err)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreIO, op, err)
}
