package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmquispe/viaticos-core/internal/application/port"
	"github.com/jmquispe/viaticos-core/internal/domain/entity"
	"github.com/jmquispe/viaticos-core/internal/infrastructure/persistence/sqlite"
)

// StateRepository implements port.StateRepository over SQLite.
type StateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStateRepository creates a new workflow state repository.
func NewStateRepository(db *sql.DB, logger *zap.Logger) port.StateRepository {
	return &StateRepository{db: db, logger: logger}
}

// GetByID retrieves a catalog state by ID, enabled or not.
func (r *StateRepository) GetByID(ctx context.Context, id int64) (*entity.WorkflowState, error) {
	query := `
		SELECT id, description, abbrev, process, enabled
		FROM workflow_states
		WHERE id = ?
	`

	var state entity.WorkflowState
	err := r.executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&state.ID,
		&state.Description,
		&state.Abbrev,
		&state.Process,
		&state.Enabled,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow state", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow state: %w", err)
	}
	return &state, nil
}

// ListByProcess retrieves the enabled states of one process.
func (r *StateRepository) ListByProcess(ctx context.Context, process string) ([]*entity.WorkflowState, error) {
	query := `
		SELECT id, description, abbrev, process, enabled
		FROM workflow_states
		WHERE process = ? AND enabled = 1
		ORDER BY id
	`

	rows, err := r.executor(ctx).QueryContext(ctx, query, process)
	if err != nil {
		r.logger.Error("Failed to list workflow states", zap.String("process", process), zap.Error(err))
		return nil, fmt.Errorf("failed to list workflow states: %w", err)
	}
	defer rows.Close()

	var states []*entity.WorkflowState
	for rows.Next() {
		var state entity.WorkflowState
		err := rows.Scan(
			&state.ID,
			&state.Description,
			&state.Abbrev,
			&state.Process,
			&state.Enabled,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow state: %w", err)
		}
		states = append(states, &state)
	}
	return states, rows.Err()
}

func (r *StateRepository) executor(ctx context.Context) sqlite.Executor {
	if tx := sqlite.ExtractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.StateRepository = (*StateRepository)(nil)
