// Package pipeline evaluates e-waste submissions.
//
// A submission moves through an explicit state machine:
//
//	pending -> geo_checked -> clarity_checked -> classified -> categorized -> rated -> finalized
//
// with denial exits after the geofence check (denied_out_of_range), the
// clarity gate (denied_poor_quality) and rating (denied_not_waste). Denials
// are successful evaluations with a zero rating; invalid submitter
// coordinates, unresolved bins, failed bin reads and classifier failures are
// returned as errors with no result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/example/ewaste-check/internal/clarity"
	"github.com/example/ewaste-check/internal/classifier"
	"github.com/example/ewaste-check/internal/geo"
	"github.com/example/ewaste-check/internal/rating"
	"github.com/example/ewaste-check/internal/waste"
)

// BinLookup resolves a claimed bin. Implementations return an error wrapping
// ErrBinNotFound when the identifier does not resolve.
type BinLookup interface {
	LookupBin(ctx context.Context, id string) (geo.BinLocation, error)
}

// Submission is the input of one evaluation.
type Submission struct {
	Latitude  float64
	Longitude float64
	BinID     string
	Image     []byte
}

// Run carries the data gathered while one submission moves through the states.
type Run struct {
	State          State
	Submission     Submission
	Bin            geo.BinLocation
	Classification *classifier.Result
	Categorization waste.Categorization
	Result         EvaluationResult
}

// Pipeline evaluates submissions. It holds no per-request state and is safe
// for concurrent use as long as its collaborators are.
type Pipeline struct {
	bins       BinLookup
	classifier classifier.Classifier
	logger     *zap.Logger
}

// New constructs a pipeline.
func New(bins BinLookup, cls classifier.Classifier, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		bins:       bins,
		classifier: cls,
		logger:     logger.Named("pipeline"),
	}
}

// Start returns a run in the pending state.
func (p *Pipeline) Start(sub Submission) *Run {
	return &Run{
		State:      Pending,
		Submission: sub,
		Result: EvaluationResult{
			Outcome:       Pending,
			Label:         classifier.UnknownLabel,
			Predictions:   map[string]float64{},
			Category:      waste.Unknown,
			Recyclability: waste.Unknown,
		},
	}
}

// Evaluate drives sub to a terminal state and returns its decision record.
func (p *Pipeline) Evaluate(ctx context.Context, sub Submission) (EvaluationResult, error) {
	run := p.Start(sub)
	for !run.State.Terminal() {
		if err := p.Step(ctx, run); err != nil {
			p.logger.Warn("evaluation failed",
				zap.String("bin_id", sub.BinID),
				zap.Stringer("state", run.State),
				zap.Error(err))
			return EvaluationResult{}, err
		}
	}

	result := run.Result
	result.Predictions = maps.Clone(run.Result.Predictions)

	p.logger.Info("evaluation finished",
		zap.String("bin_id", sub.BinID),
		zap.Stringer("outcome", result.Outcome),
		zap.Int("rating", result.Rating),
		zap.Int("credits", result.CreditsEarned))
	return result, nil
}

// Step performs the single transition out of run.State.
func (p *Pipeline) Step(ctx context.Context, run *Run) error {
	from := run.State

	var (
		next State
		err  error
	)
	switch from {
	case Pending:
		next, err = p.checkGeofence(ctx, run)
	case GeoChecked:
		next = p.checkClarity(run)
	case ClarityChecked:
		next, err = p.classify(ctx, run)
	case Classified:
		next = p.categorize(run)
	case Categorized:
		next = p.rate(run)
	case Rated:
		next = p.finalize(run)
	default:
		return fmt.Errorf("pipeline already finished in state %s", from)
	}
	if err != nil {
		return err
	}

	run.State = next
	run.Result.Outcome = next
	p.logger.Debug("transition",
		zap.String("bin_id", run.Submission.BinID),
		zap.Stringer("from", from),
		zap.Stringer("to", next))
	return nil
}

func (p *Pipeline) checkGeofence(ctx context.Context, run *Run) (State, error) {
	if err := (geo.Point{Lat: run.Submission.Latitude, Lng: run.Submission.Longitude}).Validate(); err != nil {
		return Pending, err
	}

	bin, err := p.bins.LookupBin(ctx, run.Submission.BinID)
	if err != nil {
		if errors.Is(err, ErrBinNotFound) {
			return Pending, err
		}
		return Pending, fmt.Errorf("%w: %w", ErrBinLookup, err)
	}
	run.Bin = bin

	distance := geo.Verify(run.Submission.Latitude, run.Submission.Longitude, bin)
	run.Result.DistanceMeters = distance
	if !geo.WithinRange(distance) {
		run.Result.DenialReason = reason(ReasonOutOfRange)
		run.Result.Message = outOfRangeMessage(distance)
		return DeniedOutOfRange, nil
	}
	return GeoChecked, nil
}

func (p *Pipeline) checkClarity(run *Run) State {
	score := clarity.Assess(run.Submission.Image)
	run.Result.ClarityScore = score
	if !clarity.Acceptable(score) {
		run.Result.DenialReason = reason(ReasonPoorQuality)
		run.Result.Message = poorQualityMessage
		return DeniedPoorQuality
	}
	return ClarityChecked
}

func (p *Pipeline) classify(ctx context.Context, run *Run) (State, error) {
	res, err := p.classifier.Classify(ctx, run.Submission.Image)
	if err != nil {
		return ClarityChecked, fmt.Errorf("%w: %w", ErrClassifierFailure, err)
	}
	if err := res.Validate(); err != nil {
		return ClarityChecked, fmt.Errorf("%w: %w", ErrClassifierFailure, err)
	}

	run.Classification = res
	run.Result.Label = res.Label
	if run.Result.Label == "" {
		run.Result.Label = classifier.UnknownLabel
	}
	run.Result.Confidence = res.Confidence
	run.Result.Predictions = maps.Clone(res.Predictions)
	if run.Result.Predictions == nil {
		run.Result.Predictions = map[string]float64{}
	}
	return Classified, nil
}

func (p *Pipeline) categorize(run *Run) State {
	c := waste.Categorize(run.Result.Label, run.Result.Confidence)
	run.Categorization = c
	run.Result.Category = c.Category
	run.Result.EstimatedWeightKg = c.EstimatedWeightKg
	run.Result.Recyclability = c.Recyclability
	return Categorized
}

func (p *Pipeline) rate(run *Run) State {
	c := run.Categorization
	run.Result.Rating = rating.Rate(c.Category, c.EstimatedWeightKg, run.Result.ClarityScore, run.Result.Confidence, c.BaseReward)
	return Rated
}

// finalize denies any zero rating, whether the label was unrecognized or the
// score collapsed below one star.
func (p *Pipeline) finalize(run *Run) State {
	if run.Result.Rating == 0 {
		run.Result.CreditsEarned = 0
		run.Result.DenialReason = reason(ReasonNotWaste)
		run.Result.Message = notWasteMessage
		return DeniedNotWaste
	}

	run.Result.CreditsEarned = rating.Credits(run.Result.Rating, run.Result.EstimatedWeightKg)
	run.Result.Message = ratingMessage(run.Result.Category, run.Result.Rating)
	return Finalized
}
