package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"progression-service/internal/domain"
)

// QuizLoader fetches quiz answer keys from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// QuizRepository caches quiz answer keys in Redis and falls back to a loader on cache miss.
// Questions are stored as: HSET quiz:{quizID}:questions {questionID} {question JSON}
// Quiz fields are stored as: HSET quiz:{quizID}:meta title|xp_reward|total_questions
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	if quiz, ok := r.fromCache(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.fromCache(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		r.store(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) fromCache(ctx context.Context, quizID int64) (domain.Quiz, bool) {
	meta, err := r.client.HGetAll(ctx, r.metaKey(quizID)).Result()
	if err != nil || len(meta) == 0 {
		return domain.Quiz{}, false
	}
	questions, err := r.client.HGetAll(ctx, r.questionsKey(quizID)).Result()
	if err != nil {
		return domain.Quiz{}, false
	}
	quiz, err := buildQuizFromCache(quizID, meta, questions)
	if err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

// store is best effort: a failed write only costs another load later.
func (r *QuizRepository) store(ctx context.Context, quiz domain.Quiz) {
	metaKey := r.metaKey(quiz.ID)
	questionsKey := r.questionsKey(quiz.ID)
	ttl := r.ttlWithJitter()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, metaKey, questionsKey)
	for _, q := range quiz.Questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return
		}
		pipe.HSet(ctx, questionsKey, strconv.FormatInt(q.ID, 10), raw)
	}
	pipe.HSet(ctx, metaKey,
		"title", quiz.Title,
		"xp_reward", quiz.XPReward,
		"total_questions", quiz.TotalQuestions,
	)
	if ttl > 0 {
		pipe.Expire(ctx, metaKey, ttl)
		pipe.Expire(ctx, questionsKey, ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func (r *QuizRepository) questionsKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":questions"
}

func (r *QuizRepository) metaKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":meta"
}

func buildQuizFromCache(quizID int64, meta map[string]string, questions map[string]string) (domain.Quiz, error) {
	quiz := domain.Quiz{ID: quizID, Title: meta["title"]}
	var err error
	if quiz.XPReward, err = strconv.ParseInt(meta["xp_reward"], 10, 64); err != nil {
		return domain.Quiz{}, err
	}
	if quiz.TotalQuestions, err = strconv.Atoi(meta["total_questions"]); err != nil {
		return domain.Quiz{}, err
	}

	quiz.Questions = make([]domain.Question, 0, len(questions))
	for _, raw := range questions {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return domain.Quiz{}, err
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	sort.Slice(quiz.Questions, func(i, j int) bool {
		a, b := quiz.Questions[i], quiz.Questions[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	return quiz, nil
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
