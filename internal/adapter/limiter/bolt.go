package limiter

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"assistant/internal/domain"
)

var bucketCounters = []byte("counters")

// BoltLimiter is a fixed-window limiter persisted in BoltDB, for
// deployments that want counters to survive restarts. Each check runs
// in a single read-modify-write transaction, which BoltDB serializes,
// so increments stay atomic under concurrent requests.
type BoltLimiter struct {
	db     *bbolt.DB
	limit  int
	window time.Duration
	now    func() time.Time
}

type storedBucket struct {
	Count       int   `json:"c"`
	WindowStart int64 `json:"w"`
}

func NewBoltLimiter(path string, limit int, window time.Duration) (*BoltLimiter, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open rate limit db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCounters)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create counters bucket: %w", err)
	}

	return &BoltLimiter{db: db, limit: limit, window: window, now: time.Now}, nil
}

func (l *BoltLimiter) Check(key string) (domain.RateDecision, error) {
	var decision domain.RateDecision

	err := l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCounters)

		nowMs := l.now().UnixMilli()
		winMs := l.window.Milliseconds()
		start := nowMs - nowMs%winMs

		var sb storedBucket
		if raw := b.Get([]byte(key)); raw != nil {
			if err := json.Unmarshal(raw, &sb); err != nil {
				sb = storedBucket{}
			}
		}

		if sb.WindowStart != start {
			sb = storedBucket{WindowStart: start}
		}
		sb.Count++

		raw, err := json.Marshal(sb)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(key), raw); err != nil {
			return err
		}

		remaining := l.limit - sb.Count
		if remaining < 0 {
			remaining = 0
		}
		decision = domain.RateDecision{
			OK:          sb.Count <= l.limit,
			Limit:       l.limit,
			Remaining:   remaining,
			ResetMillis: start + winMs - nowMs,
		}
		return nil
	})
	if err != nil {
		return domain.RateDecision{}, fmt.Errorf("rate limit check: %w", err)
	}
	return decision, nil
}

func (l *BoltLimiter) Close() error {
	return l.db.Close()
}
