package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"exam-portal/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ExamLoader fetches exams from the entity store.
type ExamLoader interface {
	GetExam(ctx context.Context, examID string) (domain.Exam, error)
}

// ExamCache caches exams with TTL to avoid repeated store hits.
type ExamCache struct {
	loader ExamLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedExam
}

type cachedExam struct {
	exam      domain.Exam
	expiresAt time.Time
}

func NewExamCache(loader ExamLoader, ttl time.Duration) *ExamCache {
	return &ExamCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedExam),
	}
}

func (c *ExamCache) GetExam(ctx context.Context, examID string) (domain.Exam, error) {
	if exam, ok := c.lookup(examID); ok {
		return exam, nil
	}

	result, err, _ := c.sf.Do(examID, func() (interface{}, error) {
		if exam, ok := c.lookup(examID); ok {
			return exam, nil
		}

		exam, err := c.loader.GetExam(ctx, examID)
		if err != nil {
			return domain.Exam{}, err
		}

		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[examID] = cachedExam{exam: exam, expiresAt: expiresAt}
		c.mu.Unlock()
		return exam, nil
	})
	if err != nil {
		return domain.Exam{}, err
	}
	return result.(domain.Exam), nil
}

// Invalidate drops a cached exam after the teacher edits it.
func (c *ExamCache) Invalidate(_ context.Context, examID string) {
	c.mu.Lock()
	delete(c.cache, examID)
	c.mu.Unlock()
}

func (c *ExamCache) lookup(examID string) (domain.Exam, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[examID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Exam{}, false
	}
	return entry.exam, true
}

func (c *ExamCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
