// internal/dashboard/board.go
package dashboard

import (
	"context"
	"sync"
	"time"

	"talent-intake/internal/common/errors"
	"talent-intake/internal/common/logger"
	"talent-intake/internal/common/metrics"
	"talent-intake/internal/models"
	"talent-intake/internal/platform"
)

// ApplicationStore is the slice of the records layer the board needs.
type ApplicationStore interface {
	QueryApplications(ctx context.Context, opts platform.QueryOptions) ([]models.Application, error)
	UpdateApplication(ctx context.Context, id string, patch models.ApplicationPatch, actorID string) (*models.Application, error)
	UpdateScreeningStatus(ctx context.Context, ids []string, status models.ScreeningStatus, actorID string) (int64, error)
}

// ScreeningListener is told after a bulk status change was persisted.
type ScreeningListener interface {
	ScreeningChanged(ctx context.Context, ids []string, status models.ScreeningStatus)
}

type BoardConfig struct {
	CacheTTL     time.Duration
	WriteTimeout time.Duration
	Location     *time.Location
}

// UpdateResult reports whether a recruiter write was persisted and reflected. A failed
// write is logged and leaves the board unchanged.
type UpdateResult struct {
	Applied     bool                `json:"applied"`
	Updated     int64               `json:"updated"`
	Application *models.Application `json:"application,omitempty"`
}

// Board is the recruiter's working copy of the application list. Writes are reflected
// only after the store confirmed them.
type Board struct {
	store    ApplicationStore
	listener ScreeningListener
	config   BoardConfig
	now      func() time.Time
	logger   logger.Logger

	mu       sync.Mutex
	apps     []models.Application
	loadedAt time.Time
	// gen counts reflected writes and invalidations; a load that started in an older
	// generation is not cached.
	gen uint64
}

func NewBoard(store ApplicationStore, listener ScreeningListener, cfg BoardConfig, log logger.Logger) *Board {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Board{
		store:    store,
		listener: listener,
		config:   cfg,
		now:      time.Now,
		logger:   logger.ForComponent(log, "board"),
	}
}

func (b *Board) cached() ([]models.Application, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.apps == nil || b.now().Sub(b.loadedAt) > b.config.CacheTTL {
		return nil, false
	}
	out := make([]models.Application, len(b.apps))
	copy(out, b.apps)
	return out, true
}

// Applications returns the full list, newest first, reloading it when the cache expired.
func (b *Board) Applications(ctx context.Context) ([]models.Application, error) {
	if apps, ok := b.cached(); ok {
		return apps, nil
	}
	return b.Refresh(ctx)
}

// Refresh reloads the list from the store.
func (b *Board) Refresh(ctx context.Context) ([]models.Application, error) {
	b.mu.Lock()
	gen := b.gen
	b.mu.Unlock()

	apps, err := b.store.QueryApplications(ctx, platform.QueryOptions{})
	if err != nil {
		b.logger.Error("failed to load applications", map[string]interface{}{"error": err})
		return nil, err
	}

	b.mu.Lock()
	if b.gen == gen {
		b.apps = apps
		b.loadedAt = b.now()
	} else {
		b.logger.Debug("discarding list loaded before a write", map[string]interface{}{"count": len(apps)})
	}
	b.mu.Unlock()

	out := make([]models.Application, len(apps))
	copy(out, apps)
	return out, nil
}

// Invalidate forces the next read to hit the store.
func (b *Board) Invalidate() {
	b.mu.Lock()
	b.apps = nil
	b.gen++
	b.mu.Unlock()
}

// View returns the filtered and sorted list.
func (b *Board) View(ctx context.Context, f FilterState, s SortConfig) ([]models.Application, error) {
	apps, err := b.Applications(ctx)
	if err != nil {
		return nil, err
	}
	return Sort(Filter(apps, f), s), nil
}

// Stats computes the analytics over the unfiltered list.
func (b *Board) Stats(ctx context.Context) (Stats, error) {
	apps, err := b.Applications(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(apps, b.now(), b.config.Location), nil
}

// Export renders the selected ids as CSV.
func (b *Board) Export(ctx context.Context, ids []string) (string, error) {
	apps, err := b.Applications(ctx)
	if err != nil {
		metrics.Exports.WithLabelValues("csv", "error").Inc()
		return "", err
	}
	metrics.Exports.WithLabelValues("csv", "success").Inc()
	return ExportCSV(apps, ids), nil
}

// writeContext detaches recruiter writes from the caller so that leaving the view does
// not cancel them.
func (b *Board) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), b.config.WriteTimeout)
}

// Rate stores a 1–5 rating. Only an out-of-range rating is returned as an error.
func (b *Board) Rate(ctx context.Context, id string, rating int, actorID string) (UpdateResult, error) {
	if !models.ValidRating(rating) {
		return UpdateResult{}, errors.NewApplicationValidationFailedError(map[string]string{"rating": "Rating must be between 1 and 5"})
	}

	wctx, cancel := b.writeContext(ctx)
	defer cancel()

	updated, err := b.store.UpdateApplication(wctx, id, models.ApplicationPatch{Rating: &rating}, actorID)
	metrics.RecruiterUpdates.WithLabelValues("rating", metrics.Result(err)).Inc()
	if err != nil {
		b.logger.Error("error updating rating", map[string]interface{}{
			"applicationId": id,
			"rating":        rating,
			"error":         err,
		})
		return UpdateResult{}, nil
	}

	b.mu.Lock()
	b.gen++
	for i := range b.apps {
		if b.apps[i].ID == id {
			b.apps[i] = *updated
			break
		}
	}
	b.mu.Unlock()

	return UpdateResult{Applied: true, Updated: 1, Application: updated}, nil
}

// BulkUpdateStatus applies one screening status to every id in a single store call and
// reflects it once the call succeeded.
func (b *Board) BulkUpdateStatus(ctx context.Context, ids []string, status models.ScreeningStatus, actorID string) (UpdateResult, error) {
	if !status.Valid() {
		return UpdateResult{}, errors.NewApplicationValidationFailedError(map[string]string{"status": "unknown screening status"})
	}
	if len(ids) == 0 {
		return UpdateResult{Applied: true}, nil
	}

	wctx, cancel := b.writeContext(ctx)
	defer cancel()

	n, err := b.store.UpdateScreeningStatus(wctx, ids, status, actorID)
	metrics.RecruiterUpdates.WithLabelValues("screening_status", metrics.Result(err)).Inc()
	if err != nil {
		b.logger.Error("error updating screening status", map[string]interface{}{
			"count":  len(ids),
			"status": status,
			"error":  err,
		})
		return UpdateResult{}, nil
	}

	want := NewSet(ids...)
	b.mu.Lock()
	b.gen++
	for i := range b.apps {
		if _, ok := want[b.apps[i].ID]; ok {
			s := status
			b.apps[i].ScreeningStatus = &s
		}
	}
	b.mu.Unlock()

	b.logger.Info("screening status updated", map[string]interface{}{
		"count":   n,
		"status":  status,
		"actorId": actorID,
	})

	if b.listener != nil {
		b.listener.ScreeningChanged(wctx, ids, status)
	}
	return UpdateResult{Applied: true, Updated: n}, nil
}
