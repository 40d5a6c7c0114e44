package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/ewaste-check/internal/geo"
	"github.com/example/ewaste-check/internal/logging"
	"github.com/example/ewaste-check/internal/repository"
)

const (
	defaultMaxCapacity = 100
	seedConcurrency    = 4
)

// ErrInvalidBin is returned for bin payloads that fail validation.
var ErrInvalidBin = errors.New("invalid bin")

// AdminRepository defines the persistence operations behind bin administration.
type AdminRepository interface {
	ListBins(ctx context.Context) ([]repository.Bin, error)
	CreateBin(ctx context.Context, bin *repository.Bin) error
	UpdateBin(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteBin(ctx context.Context, id string) error
	UpsertBin(ctx context.Context, bin *repository.Bin) error
	DeleteAllBins(ctx context.Context) error
	ResetActivity(ctx context.Context) error
}

// CreateBinRequest describes a new bin. Latitude and longitude are required.
type CreateBinRequest struct {
	BinID           string   `json:"binId"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	AreaName        string   `json:"areaName"`
	CurrentCapacity *float64 `json:"current_capacity"`
	MaxCapacity     *float64 `json:"max_capacity"`
	Status          string   `json:"status"`
}

// BinPatch is a partial bin update; nil fields are left unchanged.
type BinPatch struct {
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	AreaName        *string  `json:"areaName"`
	CurrentCapacity *float64 `json:"current_capacity"`
	MaxCapacity     *float64 `json:"max_capacity"`
	Status          *string  `json:"status"`
}

// AdminUseCase manages bins and demo data.
type AdminUseCase struct {
	repo        AdminRepository
	defaultBins func() ([]repository.Bin, error)
	logger      *zap.Logger
}

// NewAdminUseCase constructs a new use case instance. defaultBins supplies the seed fixture.
func NewAdminUseCase(repo AdminRepository, defaultBins func() ([]repository.Bin, error), logger *zap.Logger) *AdminUseCase {
	return &AdminUseCase{repo: repo, defaultBins: defaultBins, logger: logger.Named("admin_usecase")}
}

// ListBins returns every bin.
func (uc *AdminUseCase) ListBins(ctx context.Context) ([]repository.Bin, error) {
	return uc.repo.ListBins(ctx)
}

// CreateBin validates req, fills defaults and stores the bin.
func (uc *AdminUseCase) CreateBin(ctx context.Context, req CreateBinRequest) (*repository.Bin, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", ErrInvalidBin)
	}

	bin := &repository.Bin{
		ID:          strings.TrimSpace(req.BinID),
		Latitude:    *req.Latitude,
		Longitude:   *req.Longitude,
		AreaName:    req.AreaName,
		MaxCapacity: defaultMaxCapacity,
		Status:      req.Status,
	}
	if bin.ID == "" {
		bin.ID = NewBinID()
	}
	if req.CurrentCapacity != nil {
		bin.CurrentCapacity = *req.CurrentCapacity
	}
	if req.MaxCapacity != nil {
		bin.MaxCapacity = *req.MaxCapacity
	}
	if bin.Status == "" {
		bin.Status = repository.BinStatusActive
	}

	if err := validateBin(bin.Latitude, bin.Longitude, bin.CurrentCapacity, bin.MaxCapacity, bin.Status); err != nil {
		return nil, err
	}

	if err := uc.repo.CreateBin(ctx, bin); err != nil {
		return nil, err
	}
	logging.WithOperation(uc.logger, "usecase.create_bin", "").Info("bin created", zap.String("bin_id", bin.ID))
	return bin, nil
}

// UpdateBin applies patch to the bin with id.
func (uc *AdminUseCase) UpdateBin(ctx context.Context, id string, patch BinPatch) error {
	updates := patch.updates()
	if len(updates) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrInvalidBin)
	}
	if err := patch.validate(); err != nil {
		return err
	}
	return uc.repo.UpdateBin(ctx, id, updates)
}

// DeleteBin removes the bin with id.
func (uc *AdminUseCase) DeleteBin(ctx context.Context, id string) error {
	return uc.repo.DeleteBin(ctx, id)
}

// Seed wipes users, reports and bins, then stores the default bins.
// It returns the number of bins written.
func (uc *AdminUseCase) Seed(ctx context.Context) (int, error) {
	bins, err := uc.defaultBins()
	if err != nil {
		return 0, err
	}

	if err := uc.repo.ResetActivity(ctx); err != nil {
		return 0, err
	}
	if err := uc.repo.DeleteAllBins(ctx); err != nil {
		return 0, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	for i := range bins {
		bin := bins[i]
		g.Go(func() error {
			return uc.repo.UpsertBin(gctx, &bin)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	logging.WithOperation(uc.logger, "usecase.seed", "").Info("seeded bins", zap.Int("count", len(bins)))
	return len(bins), nil
}

// Reset deletes users and reports and keeps bins.
func (uc *AdminUseCase) Reset(ctx context.Context) error {
	if err := uc.repo.ResetActivity(ctx); err != nil {
		return err
	}
	logging.WithOperation(uc.logger, "usecase.reset", "").Info("activity reset")
	return nil
}

// NewBinID returns "BIN-" followed by eight upper-case hex characters.
func NewBinID() string {
	return "BIN-" + strings.ToUpper(uuid.NewString()[:8])
}

func (p BinPatch) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.Latitude != nil {
		updates["latitude"] = *p.Latitude
	}
	if p.Longitude != nil {
		updates["longitude"] = *p.Longitude
	}
	if p.AreaName != nil {
		updates["area_name"] = *p.AreaName
	}
	if p.CurrentCapacity != nil {
		updates["current_capacity"] = *p.CurrentCapacity
	}
	if p.MaxCapacity != nil {
		updates["max_capacity"] = *p.MaxCapacity
	}
	if p.Status != nil {
		updates["status"] = *p.Status
	}
	return updates
}

func (p BinPatch) validate() error {
	lat, lng, current, capacity := 0.0, 0.0, 0.0, 0.0
	status := repository.BinStatusActive
	if p.Latitude != nil {
		lat = *p.Latitude
	}
	if p.Longitude != nil {
		lng = *p.Longitude
	}
	if p.CurrentCapacity != nil {
		current = *p.CurrentCapacity
	}
	if p.MaxCapacity != nil {
		capacity = *p.MaxCapacity
	}
	if p.Status != nil {
		status = *p.Status
	}
	return validateBin(lat, lng, current, capacity, status)
}

func validateBin(lat, lng, current, capacity float64, status string) error {
	if err := (geo.Point{Lat: lat, Lng: lng}).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBin, err)
	}
	if current < 0 || capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidBin)
	}
	switch status {
	case repository.BinStatusActive, repository.BinStatusFull, repository.BinStatusInactive:
		return nil
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidBin, status)
	}
}
