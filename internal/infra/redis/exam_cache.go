package redis

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"exam-portal/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ExamLoader fetches exams from the entity store.
type ExamLoader interface {
	GetExam(ctx context.Context, examID string) (domain.Exam, error)
}

// ExamCache keeps exams as JSON in Redis and falls back to the loader on a miss.
// Exams are stored as: SET exam:{examID} {json} EX ttl
type ExamCache struct {
	client *redis.Client
	loader ExamLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewExamCache(client *redis.Client, loader ExamLoader, ttl time.Duration) *ExamCache {
	return &ExamCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ExamCache) GetExam(ctx context.Context, examID string) (domain.Exam, error) {
	if exam, ok := c.cached(ctx, examID); ok {
		return exam, nil
	}

	result, err, _ := c.sf.Do(examID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if exam, ok := c.cached(ctx, examID); ok {
			return exam, nil
		}

		exam, err := c.loader.GetExam(ctx, examID)
		if err != nil {
			return domain.Exam{}, err
		}

		if raw, err := json.Marshal(exam); err == nil {
			if err := c.client.Set(ctx, c.key(examID), raw, c.ttlWithJitter()).Err(); err != nil {
				log.Printf("cache exam %s: %v", examID, err)
			}
		}
		return exam, nil
	})
	if err != nil {
		return domain.Exam{}, err
	}
	return result.(domain.Exam), nil
}

// Invalidate drops the cached copy so the next read sees the teacher's edit.
func (c *ExamCache) Invalidate(ctx context.Context, examID string) {
	if err := c.client.Del(ctx, c.key(examID)).Err(); err != nil {
		log.Printf("invalidate exam %s: %v", examID, err)
	}
}

func (c *ExamCache) cached(ctx context.Context, examID string) (domain.Exam, bool) {
	raw, err := c.client.Get(ctx, c.key(examID)).Bytes()
	if err != nil {
		return domain.Exam{}, false
	}
	var exam domain.Exam
	if err := json.Unmarshal(raw, &exam); err != nil {
		return domain.Exam{}, false
	}
	return exam, true
}

func (c *ExamCache) key(examID string) string {
	return "exam:" + examID
}

func (c *ExamCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
