// internal/store/cache.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"talentmatch-workers/internal/common/errors"
	"talentmatch-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

func candidateCacheKey(candidateID string) string {
	return fmt.Sprintf("candidate:%s", candidateID)
}

// GetCandidate loads a candidate, consulting the Redis cache before
// PostgreSQL. Cache failures are logged and ignored; the database is
// always authoritative.
func (s *Store) GetCandidate(ctx context.Context, candidateID string) (*models.Candidate, error) {
	key := candidateCacheKey(candidateID)

	cached, err := s.redis.Get(ctx, key).Result()
	if err == nil {
		var c models.Candidate
		if err := json.Unmarshal([]byte(cached), &c); err == nil {
			s.logger.Debug("candidate cache hit", map[string]interface{}{
				"candidateId": candidateID,
			})
			return &c, nil
		}
		s.logger.Warn("failed to decode cached candidate, falling back to database", map[string]interface{}{
			"candidateId": candidateID,
		})
		if err := s.InvalidateCandidate(ctx, candidateID); err != nil {
			s.logger.Warn("failed to drop corrupt candidate cache entry", map[string]interface{}{
				"candidateId": candidateID,
				"error":       err.Error(),
			})
		}
	} else if err != redis.Nil {
		s.logger.Warn("candidate cache read failed", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err.Error(),
		})
	}

	query := `SELECT id, name, email, phone, created_at FROM candidates WHERE id = $1`

	var c models.Candidate
	err = s.db.QueryRowContext(ctx, query, candidateID).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewResourceNotFoundError("postgres", fmt.Sprintf("candidate %s not found", candidateID))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate %s: %w", candidateID, err)
	}

	if data, err := json.Marshal(&c); err == nil {
		if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
			s.logger.Warn("candidate cache write failed", map[string]interface{}{
				"candidateId": candidateID,
				"error":       err.Error(),
			})
		}
	}

	return &c, nil
}

// InvalidateCandidate drops a candidate from the cache, used when a cached
// entry turns out to be unreadable and after profile updates land.
func (s *Store) InvalidateCandidate(ctx context.Context, candidateID string) error {
	return s.redis.Del(ctx, candidateCacheKey(candidateID)).Err()
}
