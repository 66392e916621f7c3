package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/lifedash/models"
	"github.com/upb/lifedash/repositories"
	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

const auditColumns = `id, actor_user_id, actor_email, action, entity_type, entity_id, metadata, created_at`

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Insert appends a new audit log entry. created_at is assigned by the database.
func (r *AuditRepository) Insert(ctx context.Context, log *models.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_user_id, actor_email, action, entity_type, entity_id, metadata
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at
	`

	metadata := log.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		log.ID,
		log.ActorUserID,
		log.ActorEmail,
		log.Action,
		log.EntityType,
		log.EntityID,
		[]byte(metadata),
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	r.logger.Debug("audit log inserted", zap.String("id", log.ID.String()), zap.String("action", log.Action))
	return nil
}

// GetByID retrieves an audit log by ID
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	log, err := scanAuditLog(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("audit log not found: %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get audit log: %w", err)
	}

	return log, nil
}

// List retrieves audit logs matching the filter, newest first
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, error) {
	var (
		conditions []string
		args       []interface{}
	)
	addCondition := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.EntityType != "" {
		addCondition("entity_type", filter.EntityType)
	}
	if filter.Action != "" {
		addCondition("action", filter.Action)
	}
	if filter.ActorUserID != nil {
		addCondition("actor_user_id", *filter.ActorUserID)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_logs`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, defaultAuditLimit, maxAuditLimit)
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuditLog(row rowScanner) (*models.AuditLog, error) {
	log := &models.AuditLog{}
	var metadata []byte
	err := row.Scan(
		&log.ID,
		&log.ActorUserID,
		&log.ActorEmail,
		&log.Action,
		&log.EntityType,
		&log.EntityID,
		&metadata,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	log.Metadata = metadata
	return log, nil
}

// normalizePage clamps pagination to sane bounds
func normalizePage(limit, offset, defaultLimit, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
