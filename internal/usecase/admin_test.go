package usecase

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"testing"

	"go.uber.org/zap"

	"github.com/example/ewaste-check/internal/repository"
)

func float(v float64) *float64 { return &v }

func str(v string) *string { return &v }

func TestCreateBinDefaults(t *testing.T) {
	repo := &stubRepository{}
	uc := NewAdminUseCase(repo, nil, zap.NewNop())

	bin, err := uc.CreateBin(context.Background(), CreateBinRequest{Latitude: float(28.5), Longitude: float(77.2)})
	if err != nil {
		t.Fatalf("CreateBin returned error: %v", err)
	}
	if !regexp.MustCompile(`^BIN-[0-9A-F]{8}$`).MatchString(bin.ID) {
		t.Fatalf("unexpected generated id %q", bin.ID)
	}
	if bin.MaxCapacity != 100 || bin.CurrentCapacity != 0 || bin.Status != repository.BinStatusActive {
		t.Fatalf("unexpected defaults %+v", bin)
	}
	if _, ok := repo.bins[bin.ID]; !ok {
		t.Fatal("expected bin to be stored")
	}
}

func TestCreateBinValidation(t *testing.T) {
	cases := []struct {
		name string
		req  CreateBinRequest
	}{
		{name: "missing coordinates", req: CreateBinRequest{BinID: "BIN-A"}},
		{name: "latitude out of range", req: CreateBinRequest{Latitude: float(91), Longitude: float(0)}},
		{name: "longitude out of range", req: CreateBinRequest{Latitude: float(0), Longitude: float(-181)}},
		{name: "nan latitude", req: CreateBinRequest{Latitude: float(math.NaN()), Longitude: float(0)}},
		{name: "negative capacity", req: CreateBinRequest{Latitude: float(0), Longitude: float(0), MaxCapacity: float(-1)}},
		{name: "unknown status", req: CreateBinRequest{Latitude: float(0), Longitude: float(0), Status: "broken"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := NewAdminUseCase(&stubRepository{}, nil, zap.NewNop())
			if _, err := uc.CreateBin(context.Background(), tc.req); !errors.Is(err, ErrInvalidBin) {
				t.Fatalf("expected ErrInvalidBin, got %v", err)
			}
		})
	}
}

func TestCreateBinDuplicate(t *testing.T) {
	repo := &stubRepository{createErr: repository.ErrDuplicate}
	uc := NewAdminUseCase(repo, nil, zap.NewNop())

	_, err := uc.CreateBin(context.Background(), CreateBinRequest{BinID: "BIN-CP", Latitude: float(1), Longitude: float(1)})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpdateBin(t *testing.T) {
	repo := &stubRepository{}
	uc := NewAdminUseCase(repo, nil, zap.NewNop())

	err := uc.UpdateBin(context.Background(), "BIN-CP", BinPatch{CurrentCapacity: float(45), Status: str(repository.BinStatusFull)})
	if err != nil {
		t.Fatalf("UpdateBin returned error: %v", err)
	}
	if len(repo.updates) != 2 || repo.updates["current_capacity"] != 45.0 || repo.updates["status"] != "full" {
		t.Fatalf("unexpected updates %v", repo.updates)
	}

	if err := uc.UpdateBin(context.Background(), "BIN-CP", BinPatch{}); !errors.Is(err, ErrInvalidBin) {
		t.Fatalf("expected ErrInvalidBin for empty patch, got %v", err)
	}
	if err := uc.UpdateBin(context.Background(), "BIN-CP", BinPatch{Status: str("gone")}); !errors.Is(err, ErrInvalidBin) {
		t.Fatalf("expected ErrInvalidBin for bad status, got %v", err)
	}

	repo.updateErr = repository.ErrNotFound
	if err := uc.UpdateBin(context.Background(), "BIN-XX", BinPatch{AreaName: str("Saket")}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeed(t *testing.T) {
	repo := &stubRepository{}
	fixture := func() ([]repository.Bin, error) {
		return []repository.Bin{{ID: "BIN-A"}, {ID: "BIN-B"}, {ID: "BIN-C"}, {ID: "BIN-D"}, {ID: "BIN-E"}}, nil
	}
	uc := NewAdminUseCase(repo, fixture, zap.NewNop())

	n, err := uc.Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bins, got %d", n)
	}
	if repo.resetCalls != 1 || !repo.binsWiped {
		t.Fatal("expected activity and bins to be wiped before seeding")
	}

	sort.Strings(repo.upserted)
	want := []string{"BIN-A", "BIN-B", "BIN-C", "BIN-D", "BIN-E"}
	for i := range want {
		if repo.upserted[i] != want[i] {
			t.Fatalf("unexpected upserts %v", repo.upserted)
		}
	}
}

func TestSeedPropagatesUpsertFailure(t *testing.T) {
	repo := &stubRepository{upsertErr: errBoom}
	fixture := func() ([]repository.Bin, error) { return []repository.Bin{{ID: "BIN-A"}}, nil }
	uc := NewAdminUseCase(repo, fixture, zap.NewNop())

	if _, err := uc.Seed(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected upsert error, got %v", err)
	}
}

func TestSeedFixtureFailureTouchesNothing(t *testing.T) {
	repo := &stubRepository{}
	uc := NewAdminUseCase(repo, func() ([]repository.Bin, error) { return nil, errBoom }, zap.NewNop())

	if _, err := uc.Seed(context.Background()); !errors.Is(err, errBoom) {
		t.Fatalf("expected fixture error, got %v", err)
	}
	if repo.resetCalls != 0 || repo.binsWiped {
		t.Fatal("storage must not be wiped when the fixture is unusable")
	}
}

func TestReset(t *testing.T) {
	repo := &stubRepository{}
	uc := NewAdminUseCase(repo, nil, zap.NewNop())

	if err := uc.Reset(context.Background()); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if repo.resetCalls != 1 || repo.binsWiped {
		t.Fatal("reset should clear activity and keep bins")
	}
}
