package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

// QuizCache wraps a QuizRepository and caches FindByID results with TTL to avoid repeated DB hits.
// Listings pass straight through; every write invalidates the cached entry.
// Each invalidation bumps a per-quiz generation; a fill that started under an older
// generation is returned to its callers but never stored.
type QuizCache struct {
	app.QuizRepository

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[string]cachedQuiz
	gens  map[string]uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

func NewQuizCache(backing app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		QuizRepository: backing,
		ttl:            ttl,
		clock:          time.Now,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:          make(map[string]cachedQuiz),
		gens:           make(map[string]uint64),
	}
}

func (c *QuizCache) FindByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.lookup(quizID); ok {
		return quiz, nil
	}

	gen := c.generation(quizID)
	// Keyed by generation so callers arriving after a write never join a load that began before it.
	result, err, _ := c.sf.Do(quizID+"#"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		if quiz, ok := c.lookup(quizID); ok {
			return quiz, nil
		}

		quiz, err := c.QuizRepository.FindByID(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		c.mu.Lock()
		if c.gens[quizID] == gen {
			c.cache[quizID] = cachedQuiz{
				quiz:      quiz.Clone(),
				expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
			}
		}
		c.mu.Unlock()
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz).Clone(), nil
}

func (c *QuizCache) Update(ctx context.Context, quiz domain.Quiz) error {
	defer c.invalidate(quiz.ID)
	return c.QuizRepository.Update(ctx, quiz)
}

func (c *QuizCache) Delete(ctx context.Context, quizID string) error {
	defer c.invalidate(quizID)
	return c.QuizRepository.Delete(ctx, quizID)
}

func (c *QuizCache) IncrementAttempts(ctx context.Context, quizID string) error {
	defer c.invalidate(quizID)
	return c.QuizRepository.IncrementAttempts(ctx, quizID)
}

func (c *QuizCache) lookup(quizID string) (domain.Quiz, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Quiz{}, false
	}
	return entry.quiz.Clone(), true
}

func (c *QuizCache) generation(quizID string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[quizID]
}

func (c *QuizCache) invalidate(quizID string) {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.gens[quizID]++
	c.mu.Unlock()
}

func (c *QuizCache) ttlWithJitterLocked() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
