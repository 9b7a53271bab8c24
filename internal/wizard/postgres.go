package wizard

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type postgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs a Store backed by the admin_states table.
// Step and draft are stored as JSONB so the wizard survives restarts.
func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Get(ctx context.Context, adminID int64) (*State, error) {
	var row struct {
		Step  []byte `db:"step"`
		Draft []byte `db:"draft"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT step, draft FROM admin_states WHERE user_id = $1`, adminID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load wizard state: %w", err)
	}

	var st State
	if err := json.Unmarshal(row.Step, &st.Step); err != nil {
		return nil, fmt.Errorf("decode wizard step: %w", err)
	}
	if len(row.Draft) > 0 {
		if err := json.Unmarshal(row.Draft, &st.Draft); err != nil {
			return nil, fmt.Errorf("decode wizard draft: %w", err)
		}
	}
	return &st, nil
}

func (s *postgresStore) Put(ctx context.Context, adminID int64, st State) error {
	step, err := json.Marshal(st.Step)
	if err != nil {
		return fmt.Errorf("encode wizard step: %w", err)
	}
	draft, err := json.Marshal(st.Draft)
	if err != nil {
		return fmt.Errorf("encode wizard draft: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO admin_states (user_id, step, draft, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET step = EXCLUDED.step, draft = EXCLUDED.draft, updated_at = now()`,
		adminID, step, draft)
	if err != nil {
		return fmt.Errorf("save wizard state: %w", err)
	}
	return nil
}

func (s *postgresStore) Delete(ctx context.Context, adminID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_states WHERE user_id = $1`, adminID)
	if err != nil {
		return fmt.Errorf("clear wizard state: %w", err)
	}
	return nil
}
