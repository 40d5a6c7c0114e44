package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/ewaste-check/internal/logging"
	"github.com/example/ewaste-check/internal/repository"
)

// HistoryLimit caps the per-user history returned by UserAnalytics.
const HistoryLimit = 20

// AnalyticsRepository defines the read operations behind the analytics endpoints.
type AnalyticsRepository interface {
	AggregateReports(ctx context.Context, userID string) (*repository.Aggregation, error)
	ListReportsByUser(ctx context.Context, userID string, limit int) ([]*repository.Report, error)
	FindUser(ctx context.Context, id string) (*repository.User, error)
}

// GlobalAnalytics summarizes every stored submission.
type GlobalAnalytics struct {
	TotalTests   int64   `json:"total_tests"`
	TestsPassed  int64   `json:"tests_passed"`
	TestsFailed  int64   `json:"tests_failed"`
	TotalStars   int64   `json:"total_stars"`
	TotalCredits int64   `json:"total_credits"`
	PassRate     float64 `json:"pass_rate"`
}

// HistoryEntry is one submission in a user's history.
type HistoryEntry struct {
	RequestID string `json:"request_id"`
	Date      string `json:"date"`
	Result    string `json:"result"`
	Rating    int    `json:"rating"`
	Category  string `json:"waste_category"`
	Credits   int    `json:"credits_earned"`
}

// UserAnalytics summarizes one user's submissions.
type UserAnalytics struct {
	UID           string         `json:"uid"`
	Name          string         `json:"name,omitempty"`
	Email         string         `json:"email,omitempty"`
	TotalTests    int64          `json:"total_tests"`
	TestsPassed   int64          `json:"tests_passed"`
	TestsFailed   int64          `json:"tests_failed"`
	StarsEarned   int64          `json:"stars_earned"`
	CreditsEarned int64          `json:"credits_earned"`
	History       []HistoryEntry `json:"history"`
}

// AnalyticsUseCase aggregates persisted reports.
type AnalyticsUseCase struct {
	repo   AnalyticsRepository
	logger *zap.Logger
}

// NewAnalyticsUseCase constructs a new use case instance.
func NewAnalyticsUseCase(repo AnalyticsRepository, logger *zap.Logger) *AnalyticsUseCase {
	return &AnalyticsUseCase{repo: repo, logger: logger.Named("analytics_usecase")}
}

// GlobalAnalytics aggregates all submissions.
func (uc *AnalyticsUseCase) GlobalAnalytics(ctx context.Context) (*GlobalAnalytics, error) {
	aggregation, err := uc.repo.AggregateReports(ctx, "")
	if err != nil {
		logging.WithOperation(uc.logger, "usecase.global_analytics", "").Error("aggregation failed", zap.Error(err))
		return nil, err
	}

	summary := &GlobalAnalytics{
		TotalTests:   aggregation.TotalCount,
		TestsPassed:  aggregation.PassedCount,
		TestsFailed:  aggregation.TotalCount - aggregation.PassedCount,
		TotalStars:   aggregation.TotalStars,
		TotalCredits: aggregation.TotalCredits,
	}
	if aggregation.TotalCount > 0 {
		summary.PassRate = float64(aggregation.PassedCount) / float64(aggregation.TotalCount)
	}
	return summary, nil
}

// UserAnalytics aggregates one user's submissions and lists the latest ones.
func (uc *AnalyticsUseCase) UserAnalytics(ctx context.Context, userID string) (*UserAnalytics, error) {
	aggregation, err := uc.repo.AggregateReports(ctx, userID)
	if err != nil {
		return nil, err
	}

	reports, err := uc.repo.ListReportsByUser(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, err
	}

	// Users without submissions have no row yet.
	user, err := uc.repo.FindUser(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	history := make([]HistoryEntry, 0, len(reports))
	for _, r := range reports {
		result := "failed"
		if r.Passed() {
			result = "passed"
		}
		history = append(history, HistoryEntry{
			RequestID: r.RequestID,
			Date:      r.CreatedAt.Format("2006-01-02"),
			Result:    result,
			Rating:    r.Rating,
			Category:  r.WasteCategory,
			Credits:   r.CreditsEarned,
		})
	}

	out := &UserAnalytics{
		UID:           userID,
		TotalTests:    aggregation.TotalCount,
		TestsPassed:   aggregation.PassedCount,
		TestsFailed:   aggregation.TotalCount - aggregation.PassedCount,
		StarsEarned:   aggregation.TotalStars,
		CreditsEarned: aggregation.TotalCredits,
		History:       history,
	}
	if user != nil {
		out.Name = user.Name
		out.Email = user.Email
	}
	return out, nil
}
