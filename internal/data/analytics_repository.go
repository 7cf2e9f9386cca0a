package data

import (
	"context"
	"mcp-directory/internal/logger"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AnalyticsRepository appends tracking events.
type AnalyticsRepository struct {
	db  *sqlx.DB
	log logger.Logger
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(db *sqlx.DB, log logger.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, log: log}
}

// Record inserts event. Tracking is best-effort: a failed insert is logged
// and never surfaced to the caller.
func (r *AnalyticsRepository) Record(ctx context.Context, event AnalyticsEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.EventData == nil {
		event.EventData = JSONMap{}
	}
	if event.ListingID != nil && *event.ListingID == "" {
		event.ListingID = nil
	}

	query := `INSERT INTO analytics (id, listing_id, event_type, event_data, user_agent, referrer, created_at)
		VALUES (:id, :listing_id, :event_type, :event_data, :user_agent, :referrer, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		r.log.With(map[string]interface{}{"event_type": event.EventType}).
			Error(err, "Failed to track analytics")
	}
}
