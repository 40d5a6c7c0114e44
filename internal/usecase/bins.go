package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/ewaste-check/internal/geo"
	"github.com/example/ewaste-check/internal/pipeline"
	"github.com/example/ewaste-check/internal/repository"
)

// BinFinder loads a single bin.
type BinFinder interface {
	FindBin(ctx context.Context, id string) (*repository.Bin, error)
}

// BinLocator resolves claimed bins for the pipeline from storage.
type BinLocator struct {
	repo BinFinder
}

var _ pipeline.BinLookup = (*BinLocator)(nil)

// NewBinLocator constructs a locator over repo.
func NewBinLocator(repo BinFinder) *BinLocator {
	return &BinLocator{repo: repo}
}

// LookupBin returns the bin's coordinates, or an error wrapping
// pipeline.ErrBinNotFound when no bin has that id.
func (l *BinLocator) LookupBin(ctx context.Context, id string) (geo.BinLocation, error) {
	bin, err := l.repo.FindBin(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return geo.BinLocation{}, fmt.Errorf("%w: %q", pipeline.ErrBinNotFound, id)
	}
	if err != nil {
		return geo.BinLocation{}, err
	}
	return geo.BinLocation{ID: bin.ID, Latitude: bin.Latitude, Longitude: bin.Longitude}, nil
}
