package queries

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/OldStager01/healthcare-records/pkg/models"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, event *models.Event) error {
	var data []byte
	if event.Data != nil {
		var err error
		data, err = json.Marshal(event.Data)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_log (event_id, type, severity, actor, message, data, trace_id, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.Severity,
		event.Actor,
		event.Message,
		data,
		event.TraceID,
		event.Timestamp,
	)
	return err
}

func (r *AuditRepository) GetRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, event_id, type, severity, COALESCE(actor, ''), message, data,
			   COALESCE(trace_id, ''), created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var e models.AuditEntry
		err := rows.Scan(
			&e.ID, &e.EventID, &e.Type, &e.Severity, &e.Actor,
			&e.Message, &e.Data, &e.TraceID, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
