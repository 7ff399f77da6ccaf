package reconcile

import (
	"context"

	"fixharness/internal/workflow"
	"fixharness/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"gorm.io/gorm"
)

var _ workflow.Reporter = (*Repository)(nil)

// Repository stores cycle reports.
type Repository struct {
	db *gorm.DB
}

// NewRepository uses db for every query.
func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, exception.ErrNilInstance
	}
	return &Repository{db: db}, nil
}

// Migrate creates or updates the tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&CycleRecord{}, &OffsetRecord{}); err != nil {
		return errors.Wrap(err, "migrate cycle tables")
	}
	return nil
}

// Report inserts the cycle with its offsets.
func (r *Repository) Report(ctx context.Context, report workflow.Report) error {
	rec := toRecord(report)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return errors.Wrapf(err, "insert cycle %s", rec.ID)
	}
	logs.Infof("cycle %s stored with %d offsets", rec.ID, len(rec.Offsets))
	return nil
}

// Recent returns the latest cycles, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]workflow.Report, error) {
	if limit <= 0 {
		limit = 10
	}
	var recs []CycleRecord
	err := r.db.WithContext(ctx).
		Preload("Offsets").
		Order("started_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "query cycles")
	}

	reports := make([]workflow.Report, 0, len(recs))
	for _, rec := range recs {
		report, err := fromRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "decode cycle %s", rec.ID)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// OffsetsOf returns the offsets sent for ticket across every cycle.
func (r *Repository) OffsetsOf(ctx context.Context, ticket string) ([]OffsetRecord, error) {
	var recs []OffsetRecord
	if err := r.db.WithContext(ctx).Where("ticket = ?", ticket).Order("id").Find(&recs).Error; err != nil {
		return nil, errors.Wrapf(err, "query offsets of %s", ticket)
	}
	return recs, nil
}
