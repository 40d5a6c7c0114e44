package usecase

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/ewaste-check/internal/repository"
)

func TestGlobalAnalytics(t *testing.T) {
	repo := &stubRepository{aggregation: &repository.Aggregation{TotalCount: 8, PassedCount: 6, TotalStars: 19, TotalCredits: 240}}
	uc := NewAnalyticsUseCase(repo, zap.NewNop())

	summary, err := uc.GlobalAnalytics(context.Background())
	if err != nil {
		t.Fatalf("GlobalAnalytics returned error: %v", err)
	}
	if summary.TotalTests != 8 || summary.TestsPassed != 6 || summary.TestsFailed != 2 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if summary.TotalStars != 19 || summary.TotalCredits != 240 || summary.PassRate != 0.75 {
		t.Fatalf("unexpected totals %+v", summary)
	}
	if len(repo.aggUserIDs) != 1 || repo.aggUserIDs[0] != "" {
		t.Fatalf("expected a global aggregation, got %v", repo.aggUserIDs)
	}
}

func TestGlobalAnalyticsEmpty(t *testing.T) {
	uc := NewAnalyticsUseCase(&stubRepository{}, zap.NewNop())

	summary, err := uc.GlobalAnalytics(context.Background())
	if err != nil {
		t.Fatalf("GlobalAnalytics returned error: %v", err)
	}
	if summary.PassRate != 0 || summary.TestsFailed != 0 {
		t.Fatalf("unexpected empty summary %+v", summary)
	}
}

func TestUserAnalytics(t *testing.T) {
	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	repo := &stubRepository{
		aggregation: &repository.Aggregation{TotalCount: 2, PassedCount: 1, TotalStars: 4, TotalCredits: 44},
		user:        &repository.User{ID: "user-1", Name: "Asha", Email: "asha@example.com"},
		history: []*repository.Report{
			{RequestID: "b", Rating: 4, WasteCategory: "laptop", CreditsEarned: 44, CreatedAt: day},
			{RequestID: "a", Rating: 0, WasteCategory: "unknown", CreatedAt: day.Add(-48 * time.Hour)},
		},
	}
	uc := NewAnalyticsUseCase(repo, zap.NewNop())

	got, err := uc.UserAnalytics(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("UserAnalytics returned error: %v", err)
	}
	if got.UID != "user-1" || got.TotalTests != 2 || got.TestsFailed != 1 || got.StarsEarned != 4 {
		t.Fatalf("unexpected summary %+v", got)
	}
	if got.Name != "Asha" || got.Email != "asha@example.com" {
		t.Fatalf("expected profile fields from the user row, got %+v", got)
	}
	if repo.listLimit != HistoryLimit {
		t.Fatalf("expected history limit %d, got %d", HistoryLimit, repo.listLimit)
	}
	if len(got.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(got.History))
	}
	if got.History[0].Date != "2024-03-01" || got.History[0].Result != "passed" {
		t.Fatalf("unexpected first entry %+v", got.History[0])
	}
	if got.History[1].Result != "failed" || got.History[1].Date != "2024-02-28" {
		t.Fatalf("unexpected second entry %+v", got.History[1])
	}
}

func TestUserAnalyticsWithoutUserRow(t *testing.T) {
	uc := NewAnalyticsUseCase(&stubRepository{}, zap.NewNop())

	got, err := uc.UserAnalytics(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("UserAnalytics returned error: %v", err)
	}
	if got.Name != "" || got.TotalTests != 0 || len(got.History) != 0 {
		t.Fatalf("unexpected summary %+v", got)
	}
}
