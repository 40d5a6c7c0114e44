// Package seed provides the default set of collection bins.
package seed

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/ewaste-check/internal/repository"
)

//go:embed bins.yaml
var defaultBins []byte

type binFixture struct {
	ID              string  `yaml:"id"`
	Latitude        float64 `yaml:"latitude"`
	Longitude       float64 `yaml:"longitude"`
	AreaName        string  `yaml:"area_name"`
	CurrentCapacity float64 `yaml:"current_capacity"`
	MaxCapacity     float64 `yaml:"max_capacity"`
	Status          string  `yaml:"status"`
}

type fixture struct {
	Bins []binFixture `yaml:"bins"`
}

// DefaultBins returns the embedded Delhi bins.
func DefaultBins() ([]repository.Bin, error) {
	return ParseBins(strings.NewReader(string(defaultBins)))
}

// ParseBins decodes a bins fixture. Every bin needs an id; a missing
// status defaults to active.
func ParseBins(r io.Reader) ([]repository.Bin, error) {
	var f fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed: empty fixture")
		}
		return nil, fmt.Errorf("seed: decode fixture: %w", err)
	}

	bins := make([]repository.Bin, 0, len(f.Bins))
	seen := make(map[string]struct{}, len(f.Bins))
	for i, b := range f.Bins {
		if b.ID == "" {
			return nil, fmt.Errorf("seed: bin %d has no id", i)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("seed: duplicate bin id %q", b.ID)
		}
		seen[b.ID] = struct{}{}

		status := b.Status
		if status == "" {
			status = repository.BinStatusActive
		}
		bins = append(bins, repository.Bin{
			ID:              b.ID,
			Latitude:        b.Latitude,
			Longitude:       b.Longitude,
			AreaName:        b.AreaName,
			CurrentCapacity: b.CurrentCapacity,
			MaxCapacity:     b.MaxCapacity,
			Status:          status,
		})
	}
	return bins, nil
}
