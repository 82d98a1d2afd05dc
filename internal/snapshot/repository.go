package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot or account was not found.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored daily portfolio for an account.
type Snapshot struct {
	ID           int             `json:"id"`
	AccountID    int             `json:"accountId"`
	Account      string          `json:"account"`
	SnapshotDate time.Time       `json:"snapshotDate"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for portfolio snapshots.
type Repository interface {
	Save(ctx context.Context, accountID int, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context, network, address string) (*Snapshot, error)
	GetByDate(ctx context.Context, network, address string, date time.Time) (*Snapshot, error)
	List(ctx context.Context, network, address string, limit int) ([]Snapshot, error)
	EnsureAccount(ctx context.Context, network, address string) (int, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const selectSnapshot = `SELECT ps.id, ps.account_id, la.address, ps.snapshot_date, ps.data, ps.created_at
	FROM portfolio_snapshots ps
	JOIN lend_accounts la ON la.id = ps.account_id`

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	if err := row.Scan(&s.ID, &s.AccountID, &s.Account, &s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) Save(ctx context.Context, accountID int, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO portfolio_snapshots (account_id, snapshot_date, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (account_id, snapshot_date)
		 DO UPDATE SET data = $3::jsonb`,
		accountID, date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context, network, address string) (*Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		selectSnapshot+`
		 WHERE la.network = $1 AND la.address = $2
		 ORDER BY ps.snapshot_date DESC
		 LIMIT 1`, network, address))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return s, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, network, address string, date time.Time) (*Snapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx,
		selectSnapshot+`
		 WHERE la.network = $1 AND la.address = $2 AND ps.snapshot_date = $3`, network, address, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot by date: %w", err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, network, address string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		selectSnapshot+`
		 WHERE la.network = $1 AND la.address = $2
		 ORDER BY ps.snapshot_date DESC
		 LIMIT $3`, network, address, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	snapshots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Snapshot, error) {
		s, err := scanSnapshot(row)
		if err != nil {
			return Snapshot{}, err
		}
		return *s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *PgRepository) EnsureAccount(ctx context.Context, network, address string) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO lend_accounts (address, network)
		 VALUES ($1, $2)
		 ON CONFLICT (address, network) DO UPDATE SET address = EXCLUDED.address
		 RETURNING id`,
		address, network).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensuring account %s: %w", address, err)
	}
	return id, nil
}
