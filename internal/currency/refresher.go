package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/silvanatrade/distributor-portal/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultRefreshInterval = 6 * time.Hour

// Refresher pre-warms the rate cache for every currency used by an
// active distributor so conversions rarely wait on the NBP API.
type Refresher struct {
	db       *gorm.DB
	service  *Service
	interval time.Duration
	now      func() time.Time
}

// NewRefresher constructs a rate cache refresher.
func NewRefresher(db *gorm.DB, service *Service) *Refresher {
	if db == nil || service == nil {
		return nil
	}
	return &Refresher{
		db:       db,
		service:  service,
		interval: defaultRefreshInterval,
		now:      time.Now,
	}
}

// Start runs the refresh loop in the background.
func (r *Refresher) Start(ctx context.Context) {
	if r == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go r.run(ctx)
	log.Infof("currency rate refresher started (interval=%s)", r.interval)
}

func (r *Refresher) run(ctx context.Context) {
	interval := r.interval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	if err := r.RefreshOnce(ctx); err != nil {
		log.WithError(err).Warn("rate refresher: initial refresh failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.RefreshOnce(ctx); err != nil {
				log.WithError(err).Warn("rate refresher: refresh failed")
			}
		}
	}
}

// RefreshOnce resolves today's rate for each distinct distributor
// currency. Individual currency failures are logged and skipped so one
// bad code never blocks the rest.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("rate refresher: nil db")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var codes []string
	if errFind := r.db.WithContext(ctx).Model(&models.Distributor{}).
		Where("active = ?", true).
		Distinct("currency_code").
		Pluck("currency_code", &codes).Error; errFind != nil {
		return fmt.Errorf("rate refresher: list currencies: %w", errFind)
	}

	today := r.now().UTC()
	for _, code := range codes {
		if _, errRate := r.service.GetRate(ctx, code, today); errRate != nil {
			log.WithError(errRate).WithField("currency", code).Warn("rate refresher: refresh currency failed")
		}
	}
	return nil
}
