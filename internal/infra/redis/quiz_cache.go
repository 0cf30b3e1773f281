package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

// QuizCache caches quiz documents in Redis and falls back to the backing repository on a miss.
// Documents are stored as JSON: SET quiz:{quizID} {json} EX ttl
// Redis errors degrade to the backing repository; they never fail a read.
// Writes delete the document and INCR quiz:{quizID}:v. A fill is written under WATCH on
// that version key, so a load that raced with a write is never stored.
type QuizCache struct {
	app.QuizRepository

	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizCache(client *redis.Client, backing app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		QuizRepository: backing,
		client:         client,
		ttl:            ttl,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) FindByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.get(ctx, quizID); ok {
		return quiz, nil
	}

	version, versionOK := c.version(ctx, c.client, quizID)
	result, err, _ := c.sf.Do(quizID+"#"+strconv.FormatInt(version, 10), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := c.get(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := c.QuizRepository.FindByID(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if versionOK {
			c.fill(ctx, quizID, version, quiz)
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz).Clone(), nil
}

func (c *QuizCache) Update(ctx context.Context, quiz domain.Quiz) error {
	defer c.invalidate(ctx, quiz.ID)
	return c.QuizRepository.Update(ctx, quiz)
}

func (c *QuizCache) Delete(ctx context.Context, quizID string) error {
	defer c.invalidate(ctx, quizID)
	return c.QuizRepository.Delete(ctx, quizID)
}

func (c *QuizCache) IncrementAttempts(ctx context.Context, quizID string) error {
	defer c.invalidate(ctx, quizID)
	return c.QuizRepository.IncrementAttempts(ctx, quizID)
}

func (c *QuizCache) get(ctx context.Context, quizID string) (domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, c.key(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("redis cache get %s: %v", quizID, err)
		}
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

// fill stores quiz only if no write has bumped the version since the load began.
func (c *QuizCache) fill(ctx context.Context, quizID string, version int64, quiz domain.Quiz) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, ok := c.version(ctx, tx, quizID)
		if !ok || current != version {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(quizID), raw, c.ttlWithJitter())
			return nil
		})
		return err
	}, c.versionKey(quizID))
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		log.Printf("redis cache set %s: %v", quizID, err)
	}
}

// getter is the slice of redis.Client and redis.Tx that version needs.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *QuizCache) version(ctx context.Context, cmd getter, quizID string) (int64, bool) {
	v, err := cmd.Get(ctx, c.versionKey(quizID)).Int64()
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, redis.Nil):
		return 0, true
	default:
		log.Printf("redis cache version %s: %v", quizID, err)
		return 0, false
	}
}

func (c *QuizCache) invalidate(ctx context.Context, quizID string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key(quizID))
		pipe.Incr(ctx, c.versionKey(quizID))
		return nil
	})
	if err != nil {
		log.Printf("redis cache invalidate %s: %v", quizID, err)
	}
}

func (c *QuizCache) key(quizID string) string {
	return "quiz:" + quizID
}

func (c *QuizCache) versionKey(quizID string) string {
	return "quiz:" + quizID + ":v"
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
