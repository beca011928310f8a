// Package store is the persistence layer for postings, applications,
// candidates, resumes and ranked matches. PostgreSQL is the system of
// record; Redis caches candidate profiles; resume bytes live in MinIO.
package store

import (
	"database/sql"
	"time"

	"talentmatch-workers/internal/common/logger"
	"talentmatch-workers/internal/common/storage"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	db       *sql.DB
	redis    *redis.Client
	objects  *storage.MinIOClient
	cacheTTL time.Duration
	logger   logger.Logger
}

func New(db *sql.DB, redisClient *redis.Client, objects *storage.MinIOClient, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		redis:    redisClient,
		objects:  objects,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}
