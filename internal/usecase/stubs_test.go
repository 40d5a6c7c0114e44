package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/ewaste-check/internal/pipeline"
	"github.com/example/ewaste-check/internal/repository"
)

type stubRepository struct {
	mu sync.Mutex

	savedReports []*repository.Report
	saveErr      error
	recordCalls  int
	findReport   *repository.Report
	findErr      error
	findCalls    int
	duplicates   []*repository.Report
	dupArgs      []string
	rewards      []repository.Reward
	rewardUser   *repository.User
	rewardErr    error

	aggregation *repository.Aggregation
	aggUserIDs  []string
	history     []*repository.Report
	listLimit   int
	user        *repository.User

	bins       map[string]repository.Bin
	createErr  error
	updates    map[string]interface{}
	updateErr  error
	deleteErr  error
	upserted   []string
	upsertErr  error
	binsWiped  bool
	resetCalls int
}

// RecordSubmission keeps the report and the reward only when both succeed.
func (s *stubRepository) RecordSubmission(ctx context.Context, report *repository.Report, reward repository.Reward) (*repository.User, error) {
	s.recordCalls++
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	if s.rewardErr != nil {
		return nil, s.rewardErr
	}
	s.savedReports = append(s.savedReports, report)
	s.rewards = append(s.rewards, reward)
	if s.rewardUser != nil {
		return s.rewardUser, nil
	}
	return &repository.User{ID: reward.UserID, TotalStars: reward.Stars, TotalCredits: reward.Credits, TestsCompleted: 1}, nil
}

func (s *stubRepository) FindReportByRequestIDAndUser(ctx context.Context, requestID, userID string) (*repository.Report, error) {
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.findReport != nil {
		return s.findReport, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubRepository) FindDuplicatesByHash(ctx context.Context, userID, hash, excludeRequestID string) ([]*repository.Report, error) {
	s.dupArgs = []string{userID, hash, excludeRequestID}
	return s.duplicates, nil
}

func (s *stubRepository) AggregateReports(ctx context.Context, userID string) (*repository.Aggregation, error) {
	s.aggUserIDs = append(s.aggUserIDs, userID)
	if s.aggregation == nil {
		return &repository.Aggregation{}, nil
	}
	return s.aggregation, nil
}

func (s *stubRepository) ListReportsByUser(ctx context.Context, userID string, limit int) ([]*repository.Report, error) {
	s.listLimit = limit
	return s.history, nil
}

func (s *stubRepository) FindUser(ctx context.Context, id string) (*repository.User, error) {
	if s.user == nil {
		return nil, repository.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepository) FindBin(ctx context.Context, id string) (*repository.Bin, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	bin, ok := s.bins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &bin, nil
}

func (s *stubRepository) ListBins(ctx context.Context) ([]repository.Bin, error) {
	out := make([]repository.Bin, 0, len(s.bins))
	for _, b := range s.bins {
		out = append(out, b)
	}
	return out, nil
}

func (s *stubRepository) CreateBin(ctx context.Context, bin *repository.Bin) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.bins == nil {
		s.bins = map[string]repository.Bin{}
	}
	s.bins[bin.ID] = *bin
	return nil
}

func (s *stubRepository) UpdateBin(ctx context.Context, id string, updates map[string]interface{}) error {
	s.updates = updates
	return s.updateErr
}

func (s *stubRepository) DeleteBin(ctx context.Context, id string) error {
	return s.deleteErr
}

func (s *stubRepository) UpsertBin(ctx context.Context, bin *repository.Bin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, bin.ID)
	return s.upsertErr
}

func (s *stubRepository) DeleteAllBins(ctx context.Context) error {
	s.binsWiped = true
	return nil
}

func (s *stubRepository) ResetActivity(ctx context.Context) error {
	s.resetCalls++
	return nil
}

type stubCache struct {
	setErrs   []error
	getErrs   []error
	getValues []string
	setKeys   []string
	setValues []interface{}
	setTTLs   []time.Duration
	getKeys   []string
	delKeys   []string
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.setKeys = append(s.setKeys, key)
	s.setValues = append(s.setValues, value)
	s.setTTLs = append(s.setTTLs, expiration)
	if len(s.setErrs) == 0 {
		return nil
	}
	err := s.setErrs[0]
	s.setErrs = s.setErrs[1:]
	return err
}

func (s *stubCache) Get(ctx context.Context, key string) (string, error) {
	s.getKeys = append(s.getKeys, key)
	var value string
	if len(s.getValues) > 0 {
		value = s.getValues[0]
		s.getValues = s.getValues[1:]
	}
	var err error
	if len(s.getErrs) > 0 {
		err = s.getErrs[0]
		s.getErrs = s.getErrs[1:]
	}
	return value, err
}

func (s *stubCache) Del(ctx context.Context, key string) error {
	s.delKeys = append(s.delKeys, key)
	return nil
}

type stubEvaluator struct {
	result pipeline.EvaluationResult
	err    error
	subs   []pipeline.Submission
}

func (s *stubEvaluator) Evaluate(ctx context.Context, sub pipeline.Submission) (pipeline.EvaluationResult, error) {
	s.subs = append(s.subs, sub)
	if s.err != nil {
		return pipeline.EvaluationResult{}, s.err
	}
	return s.result, nil
}

type transientRedisError struct{}

func (transientRedisError) Error() string   { return "redis transient" }
func (transientRedisError) Timeout() bool   { return true }
func (transientRedisError) Temporary() bool { return true }

var errBoom = errors.New("boom")
