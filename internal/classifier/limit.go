package classifier

import (
	"context"

	"golang.org/x/sync/semaphore"
)

type limited struct {
	next Classifier
	sem  *semaphore.Weighted
}

// Limit bounds the number of concurrent Classify calls reaching next. A limit
// of 1 serializes inference for runtimes that are not thread safe; values
// below 1 return next unchanged.
func Limit(next Classifier, maxConcurrent int) Classifier {
	if maxConcurrent < 1 {
		return next
	}
	return &limited{next: next, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

func (l *limited) Classify(ctx context.Context, image []byte) (*Result, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)
	return l.next.Classify(ctx, image)
}
