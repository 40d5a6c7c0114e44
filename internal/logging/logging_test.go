package logging

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewOperationErrorNil(t *testing.T) {
	if err := NewOperationError("op", "req", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestOperationErrorFormatsAndUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := NewOperationError("repository.record_submission", "req-1", base)

	if err.Error() != "repository.record_submission (request_id=req-1): boom" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped error to match base")
	}

	noRequest := NewOperationError("seed", "", base)
	if noRequest.Error() != "seed: boom" {
		t.Fatalf("unexpected message: %s", noRequest.Error())
	}
}

func TestOperationOf(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewOperationError("usecase.evaluate", "req", errors.New("x")))
	if got := OperationOf(err); got != "usecase.evaluate" {
		t.Fatalf("expected usecase.evaluate, got %q", got)
	}
	if got := OperationOf(errors.New("plain")); got != "" {
		t.Fatalf("expected empty operation, got %q", got)
	}
}

func TestWithOperationAddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := WithSubmission(WithOperation(zap.New(core), "usecase.submit", "req-9"), "user-1", "BIN-CP")
	logger.Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	for key, want := range map[string]string{
		"operation":  "usecase.submit",
		"request_id": "req-9",
		"user_id":    "user-1",
		"bin_id":     "BIN-CP",
	} {
		if fields[key] != want {
			t.Fatalf("field %s: expected %q, got %v", key, want, fields[key])
		}
	}
}

func TestNewLoggerModes(t *testing.T) {
	for _, mode := range []string{ReleaseMode, "debug"} {
		logger, err := NewLogger(mode)
		if err != nil {
			t.Fatalf("mode %s: expected logger, got error: %v", mode, err)
		}
		_ = logger.Sync()
	}
}
