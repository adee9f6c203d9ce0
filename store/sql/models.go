package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type sessionRecord struct {
	bun.BaseModel `bun:"table:streamone_sessions,alias:ss"`

	ID         string    `bun:"id,pk"`
	StoreName  string    `bun:"store_name,notnull,unique"`
	SessionID  string    `bun:"session_id,notnull"`
	SessionKey string    `bun:"session_key,notnull"`
	UserID     string    `bun:"user_id,notnull"`
	ExpiresAt  time.Time `bun:"expires_at,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type sessionCacheRecord struct {
	bun.BaseModel `bun:"table:streamone_session_cache,alias:ssc"`

	ID        string    `bun:"id,pk"`
	StoreName string    `bun:"store_name,notnull,unique:store_cache_key"`
	CacheKey  string    `bun:"cache_key,notnull,unique:store_cache_key"`
	Value     []byte    `bun:"value"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}
