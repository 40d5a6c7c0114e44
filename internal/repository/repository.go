// Package repository persists bins, users and submission reports with GORM.
package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/ewaste-check/internal/retry"
)

// Repository provides persistence APIs backed by Postgres.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
	policy retry.Policy
}

// New creates a repository instance.
func New(db *gorm.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger.Named("repository"),
		policy: retry.DefaultPolicy,
	}
}

// AutoMigrate ensures the schema is available.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Bin{}, &User{}, &Report{})
}

// FindBin loads a bin by id.
func (r *Repository) FindBin(ctx context.Context, id string) (*Bin, error) {
	var bin Bin
	err := r.executeWithRetry(ctx, "repository.find_bin", "", func() error {
		return translate(r.db.WithContext(ctx).First(&bin, "id = ?", id).Error)
	})
	if err != nil {
		return nil, err
	}
	return &bin, nil
}

// ListBins returns every bin ordered by id.
func (r *Repository) ListBins(ctx context.Context) ([]Bin, error) {
	var bins []Bin
	err := r.executeWithRetry(ctx, "repository.list_bins", "", func() error {
		return r.db.WithContext(ctx).Order("id").Find(&bins).Error
	})
	if err != nil {
		return nil, err
	}
	return bins, nil
}

// CreateBin inserts a bin; an existing id yields ErrDuplicate.
func (r *Repository) CreateBin(ctx context.Context, bin *Bin) error {
	return r.executeWithRetry(ctx, "repository.create_bin", bin.ID, func() error {
		return translate(r.db.WithContext(ctx).Create(bin).Error)
	})
}

// UpsertBin inserts or fully replaces a bin.
func (r *Repository) UpsertBin(ctx context.Context, bin *Bin) error {
	return r.executeWithRetry(ctx, "repository.upsert_bin", bin.ID, func() error {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(bin).Error
	})
}

// UpdateBin applies column updates to a bin.
func (r *Repository) UpdateBin(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.executeWithRetry(ctx, "repository.update_bin", id, func() error {
		res := r.db.WithContext(ctx).Model(&Bin{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteBin removes a bin.
func (r *Repository) DeleteBin(ctx context.Context, id string) error {
	return r.executeWithRetry(ctx, "repository.delete_bin", id, func() error {
		res := r.db.WithContext(ctx).Delete(&Bin{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteAllBins removes every bin.
func (r *Repository) DeleteAllBins(ctx context.Context) error {
	return r.executeWithRetry(ctx, "repository.delete_all_bins", "", func() error {
		return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Bin{}).Error
	})
}

// ResetActivity deletes all reports and users while keeping bins.
func (r *Repository) ResetActivity(ctx context.Context) error {
	return r.executeWithRetry(ctx, "repository.reset_activity", "", func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
			if err := global.Delete(&Report{}).Error; err != nil {
				return err
			}
			return global.Delete(&User{}).Error
		})
	})
}

// RecordSubmission stores report and applies reward to the user's totals in
// one transaction, creating the user row on first use. It returns the user
// with the updated totals.
func (r *Repository) RecordSubmission(ctx context.Context, report *Report, reward Reward) (*User, error) {
	var user User
	err := r.executeWithRetry(ctx, "repository.record_submission", report.RequestID, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(report).Error; err != nil {
				return translate(err)
			}
			return applyReward(tx, reward, &user)
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindReportByRequestIDAndUser retrieves a report matching the request and owner.
func (r *Repository) FindReportByRequestIDAndUser(ctx context.Context, requestID, userID string) (*Report, error) {
	var report Report
	err := r.executeWithRetry(ctx, "repository.find_report", requestID, func() error {
		return translate(r.db.WithContext(ctx).First(&report, "request_id = ? AND user_id = ?", requestID, userID).Error)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// FindDuplicatesByHash lists the user's other reports for the same image.
func (r *Repository) FindDuplicatesByHash(ctx context.Context, userID, hash, excludeRequestID string) ([]*Report, error) {
	var reports []*Report
	err := r.executeWithRetry(ctx, "repository.find_duplicates", excludeRequestID, func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ? AND sha1_hash = ? AND request_id <> ?", userID, hash, excludeRequestID).
			Order("created_at DESC").
			Find(&reports).Error
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// ListReportsByUser returns the user's latest reports, newest first.
func (r *Repository) ListReportsByUser(ctx context.Context, userID string, limit int) ([]*Report, error) {
	var reports []*Report
	err := r.executeWithRetry(ctx, "repository.list_reports", "", func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(limit).
			Find(&reports).Error
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// applyReward adds a submission's stars and credits to the user's totals
// within tx, creating the user on first submission, and loads the updated row.
func applyReward(tx *gorm.DB, reward Reward, user *User) error {
	row := User{
		ID:             reward.UserID,
		Name:           reward.Name,
		Email:          reward.Email,
		TotalStars:     reward.Stars,
		TotalCredits:   reward.Credits,
		TestsCompleted: 1,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_stars":     gorm.Expr("users.total_stars + ?", reward.Stars),
			"total_credits":   gorm.Expr("users.total_credits + ?", reward.Credits),
			"tests_completed": gorm.Expr("users.tests_completed + 1"),
			"updated_at":      time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return err
	}
	return translate(tx.First(user, "id = ?", reward.UserID).Error)
}

// FindUser loads a user by id.
func (r *Repository) FindUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := r.executeWithRetry(ctx, "repository.find_user", id, func() error {
		return translate(r.db.WithContext(ctx).First(&user, "id = ?", id).Error)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AggregateReports summarizes reports for one user, or all users when userID is empty.
func (r *Repository) AggregateReports(ctx context.Context, userID string) (*Aggregation, error) {
	var row struct {
		TotalCount   int64
		PassedCount  int64
		TotalStars   int64
		TotalCredits int64
	}
	err := r.executeWithRetry(ctx, "repository.aggregate_reports", "", func() error {
		q := r.db.WithContext(ctx).Model(&Report{}).Select(
			"COUNT(*) AS total_count, " +
				"COALESCE(SUM(CASE WHEN rating > 0 THEN 1 ELSE 0 END), 0) AS passed_count, " +
				"COALESCE(SUM(rating), 0) AS total_stars, " +
				"COALESCE(SUM(credits_earned), 0) AS total_credits")
		if userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		return q.Scan(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &Aggregation{
		TotalCount:   row.TotalCount,
		PassedCount:  row.PassedCount,
		TotalStars:   row.TotalStars,
		TotalCredits: row.TotalCredits,
	}, nil
}

func (r *Repository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	return retry.Do(ctx, r.policy, r.logger, operation, requestID, fn)
}
