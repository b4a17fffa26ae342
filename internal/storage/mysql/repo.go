package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"listings_portal/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// Repo is the MySQL listing archive written by snapshot runs.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) BeginRun(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, insertRunSQL, id); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) UpsertListing(ctx context.Context, runID string, l domain.Listing) error {
	if l.ID == nil {
		return errors.New("listing without id")
	}
	payload, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("marshal listing %s: %w", *l.ID, err)
	}
	_, err = r.db.ExecContext(ctx, upsertListingSQL,
		*l.ID,
		runID,
		valStr(l.Title),
		l.Price,
		l.Type,
		l.Status,
		string(payload),
	)
	return err
}

func (r *Repo) FinishRun(ctx context.Context, runID string, stored, skipped int) error {
	res, err := r.db.ExecContext(ctx, finishRunSQL, stored, skipped, runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	return nil
}

func (r *Repo) LatestListings(ctx context.Context, limit int) ([]domain.Listing, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.QueryContext(ctx, latestListingsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Listing{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var l domain.Listing
		if err := json.Unmarshal(payload, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetListing(ctx context.Context, id string) (domain.Listing, error) {
	var payload []byte
	if err := r.db.QueryRowContext(ctx, getListingSQL, id).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, err
	}
	var l domain.Listing
	if err := json.Unmarshal(payload, &l); err != nil {
		return domain.Listing{}, err
	}
	return l, nil
}
