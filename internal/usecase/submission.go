// Package usecase holds the application services behind the HTTP API.
package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/ewaste-check/internal/geo"
	"github.com/example/ewaste-check/internal/logging"
	"github.com/example/ewaste-check/internal/pipeline"
	"github.com/example/ewaste-check/internal/repository"
	"github.com/example/ewaste-check/internal/retry"
)

const (
	processingPrefix = "processing:"
	processingTTL    = time.Minute
	defaultUserName  = "User"
)

// ErrProcessing is returned while a submission is still being evaluated.
var ErrProcessing = errors.New("submission still processing")

// SubmissionRepository defines the persistence operations needed by the submission flow.
type SubmissionRepository interface {
	RecordSubmission(ctx context.Context, report *repository.Report, reward repository.Reward) (*repository.User, error)
	FindReportByRequestIDAndUser(ctx context.Context, requestID, userID string) (*repository.Report, error)
	FindDuplicatesByHash(ctx context.Context, userID, hash, excludeRequestID string) ([]*repository.Report, error)
}

// Evaluator runs a submission through the decision pipeline.
type Evaluator interface {
	Evaluate(ctx context.Context, sub pipeline.Submission) (pipeline.EvaluationResult, error)
}

// Submitter identifies the caller of a submission.
type Submitter struct {
	UserID string
	Name   string
	Email  string
}

// SubmitRequest is one photo submitted at a claimed bin.
type SubmitRequest struct {
	BinID     string
	Latitude  float64
	Longitude float64
	Image     []byte
}

// SubmissionRecord is a stored evaluation together with its identifiers.
type SubmissionRecord struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id"`
	BinID     string `json:"bin_id"`
	pipeline.EvaluationResult
	SHA1Hash  string    `json:"sha1_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmitResponse is the evaluation plus the caller's updated totals.
type SubmitResponse struct {
	RequestID string `json:"request_id"`
	pipeline.EvaluationResult
	WasteType       string `json:"waste_type"`
	StarsAwarded    int    `json:"stars_awarded"`
	NewTotalStars   int    `json:"new_total_stars"`
	NewTotalCredits int    `json:"new_total_credits"`
}

// DuplicateReport lists earlier submissions of the same image by the same user.
type DuplicateReport struct {
	Request    *repository.Report   `json:"request"`
	Duplicates []*repository.Report `json:"duplicates"`
}

// SubmissionUseCase evaluates submissions, records them and rewards users.
type SubmissionUseCase struct {
	repo      SubmissionRepository
	cache     Cache
	evaluator Evaluator
	logger    *zap.Logger
	policy    retry.Policy
	resultTTL time.Duration
	now       func() time.Time
}

// NewSubmissionUseCase constructs a new use case instance.
func NewSubmissionUseCase(repo SubmissionRepository, cache Cache, evaluator Evaluator, resultTTL time.Duration, logger *zap.Logger) *SubmissionUseCase {
	return &SubmissionUseCase{
		repo:      repo,
		cache:     cache,
		evaluator: evaluator,
		logger:    logger.Named("submission_usecase"),
		policy:    retry.DefaultPolicy,
		resultTTL: resultTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func cacheKey(requestID string) string {
	return fmt.Sprintf("submission:%s", requestID)
}

// processingMarker is cached under the submission key while it is evaluated.
// The value names the owning user.
func processingMarker(userID string) string {
	return processingPrefix + userID
}

// Submit evaluates req, persists the outcome (denials included) together with
// the reward and caches the record.
func (uc *SubmissionUseCase) Submit(ctx context.Context, who Submitter, req SubmitRequest) (*SubmitResponse, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithSubmission(logging.WithOperation(uc.logger, "usecase.submit", requestID), who.UserID, req.BinID)
	key := cacheKey(requestID)

	if err := (geo.Point{Lat: req.Latitude, Lng: req.Longitude}).Validate(); err != nil {
		wrapped := logging.NewOperationError("usecase.validate", requestID, err)
		opLogger.Warn("rejected submission", zap.Error(wrapped))
		return nil, wrapped
	}

	if err := retry.Do(ctx, uc.policy, uc.logger, "cache.set.processing", requestID, func() error {
		return uc.cache.Set(ctx, key, processingMarker(who.UserID), processingTTL)
	}); err != nil {
		opLogger.Error("failed to set processing flag", zap.Error(err))
		return nil, err
	}

	result, err := uc.evaluator.Evaluate(ctx, pipeline.Submission{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		BinID:     req.BinID,
		Image:     req.Image,
	})
	if err != nil {
		uc.clearProcessing(ctx, key, opLogger)
		wrapped := logging.NewOperationError("usecase.evaluate", requestID, err)
		opLogger.Error("evaluation failed", zap.Error(wrapped))
		return nil, wrapped
	}

	hash := sha1.Sum(req.Image)
	record := &SubmissionRecord{
		RequestID:        requestID,
		UserID:           who.UserID,
		BinID:            req.BinID,
		EvaluationResult: result,
		SHA1Hash:         hex.EncodeToString(hash[:]),
		CreatedAt:        uc.now(),
	}

	name := who.Name
	if name == "" {
		name = defaultUserName
	}
	user, err := uc.repo.RecordSubmission(ctx, reportFromRecord(record), repository.Reward{
		UserID:  who.UserID,
		Name:    name,
		Email:   who.Email,
		Stars:   result.Rating,
		Credits: result.CreditsEarned,
	})
	if err != nil {
		uc.clearProcessing(ctx, key, opLogger)
		wrapped := logging.NewOperationError("usecase.record_submission", requestID, err)
		opLogger.Error("failed to record submission", zap.Error(wrapped))
		return nil, wrapped
	}

	// The report is stored by now; a cache failure only costs a slower GetResult.
	if serialized, err := json.Marshal(record); err != nil {
		opLogger.Error("failed to serialize submission record", zap.Error(err))
	} else if err := retry.Do(ctx, uc.policy, uc.logger, "cache.set.result", requestID, func() error {
		return uc.cache.Set(ctx, key, string(serialized), uc.resultTTL)
	}); err != nil {
		opLogger.Warn("failed to cache submission record", zap.Error(err))
	}

	opLogger.Info("submission recorded",
		zap.Stringer("outcome", result.Outcome),
		zap.Int("rating", result.Rating),
		zap.Int("credits", result.CreditsEarned))

	return &SubmitResponse{
		RequestID:        requestID,
		EvaluationResult: result,
		WasteType:        result.Category,
		StarsAwarded:     result.Rating,
		NewTotalStars:    user.TotalStars,
		NewTotalCredits:  user.TotalCredits,
	}, nil
}

// GetResult retrieves a cached submission record or loads it from persistence.
func (uc *SubmissionUseCase) GetResult(ctx context.Context, userID, requestID string) (*SubmissionRecord, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.get_result", requestID)

	var cached string
	err := retry.Do(ctx, uc.policy, uc.logger, "cache.get.result", requestID, func() error {
		value, err := uc.cache.Get(ctx, cacheKey(requestID))
		if err != nil {
			return err
		}
		cached = value
		return nil
	})
	switch {
	case err == nil && cached == processingMarker(userID):
		return nil, ErrProcessing
	case err == nil && strings.HasPrefix(cached, processingPrefix):
		// Another user's request in flight looks like an unknown id.
	case err == nil:
		var record SubmissionRecord
		if err := json.Unmarshal([]byte(cached), &record); err != nil {
			opLogger.Warn("failed to decode cached result", zap.Error(err))
		} else if record.UserID == userID {
			return &record, nil
		}
	case !isCacheMiss(err):
		opLogger.Warn("failed to read cache", zap.Error(err))
	}

	report, err := uc.repo.FindReportByRequestIDAndUser(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	return recordFromReport(report), nil
}

// GetDuplicateReport builds a duplicate detection report for a submission.
func (uc *SubmissionUseCase) GetDuplicateReport(ctx context.Context, userID, requestID string) (*DuplicateReport, error) {
	report, err := uc.repo.FindReportByRequestIDAndUser(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}

	duplicates, err := uc.repo.FindDuplicatesByHash(ctx, userID, report.SHA1Hash, report.RequestID)
	if err != nil {
		return nil, err
	}

	return &DuplicateReport{
		Request:    report,
		Duplicates: duplicates,
	}, nil
}

func (uc *SubmissionUseCase) clearProcessing(ctx context.Context, key string, logger *zap.Logger) {
	if err := uc.cache.Del(ctx, key); err != nil {
		logger.Warn("failed to clear processing flag", zap.Error(err))
	}
}

func reportFromRecord(r *SubmissionRecord) *repository.Report {
	return &repository.Report{
		RequestID:         r.RequestID,
		UserID:            r.UserID,
		BinID:             r.BinID,
		Outcome:           r.Outcome.String(),
		Label:             r.Label,
		Confidence:        r.Confidence,
		Predictions:       maps.Clone(r.Predictions),
		Rating:            r.Rating,
		Clarity:           r.ClarityScore,
		Distance:          r.DistanceMeters,
		WasteCategory:     r.Category,
		EstimatedWeightKg: r.EstimatedWeightKg,
		Recyclability:     r.Recyclability,
		CreditsEarned:     r.CreditsEarned,
		DenialReason:      r.DenialReason,
		Message:           r.Message,
		SHA1Hash:          r.SHA1Hash,
		CreatedAt:         r.CreatedAt,
	}
}

func recordFromReport(r *repository.Report) *SubmissionRecord {
	var outcome pipeline.State
	if err := outcome.UnmarshalText([]byte(r.Outcome)); err != nil {
		outcome = pipeline.Finalized
		if !r.Passed() {
			outcome = pipeline.DeniedNotWaste
		}
	}

	predictions := maps.Clone(r.Predictions)
	if predictions == nil {
		predictions = map[string]float64{}
	}

	return &SubmissionRecord{
		RequestID: r.RequestID,
		UserID:    r.UserID,
		BinID:     r.BinID,
		EvaluationResult: pipeline.EvaluationResult{
			Outcome:           outcome,
			DistanceMeters:    r.Distance,
			ClarityScore:      r.Clarity,
			Label:             r.Label,
			Confidence:        r.Confidence,
			Predictions:       predictions,
			Category:          r.WasteCategory,
			EstimatedWeightKg: r.EstimatedWeightKg,
			Recyclability:     r.Recyclability,
			Rating:            r.Rating,
			CreditsEarned:     r.CreditsEarned,
			DenialReason:      r.DenialReason,
			Message:           r.Message,
		},
		SHA1Hash:  r.SHA1Hash,
		CreatedAt: r.CreatedAt,
	}
}
