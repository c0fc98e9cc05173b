package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const writeTimeout = 5 * time.Second

// DBRecorder appends events to the audit_events table in the background.
// Write failures are logged and dropped.
type DBRecorder struct {
	db     *gorm.DB
	logger *log.Logger
	wg     sync.WaitGroup
}

func NewDBRecorder(db *gorm.DB, logger *log.Logger) *DBRecorder {
	return &DBRecorder{db: db, logger: logger}
}

func (r *DBRecorder) Record(_ context.Context, ev Event) {
	row := &model.AuditEvent{
		ID:         uuid.NewString(),
		Type:       ev.Type,
		Level:      string(ev.Level),
		OrderID:    ev.OrderID,
		CustomerID: ev.CustomerID,
		Data:       datatypes.JSONMap(ev.Data),
		CreatedAt:  ev.OccurredAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			r.logger.Warnf("audit: write %s: %v", ev.Type, err)
		}
	}()
}

// Close waits for pending writes.
func (r *DBRecorder) Close() {
	r.wg.Wait()
}
