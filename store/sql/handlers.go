package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func sessionHandlers() repository.ModelHandlers[*sessionRecord] {
	return repository.ModelHandlers[*sessionRecord]{
		NewRecord: func() *sessionRecord {
			return &sessionRecord{}
		},
		GetID: func(record *sessionRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *sessionRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "store_name"
		},
		GetIdentifierValue: func(record *sessionRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.StoreName)
		},
	}
}

func sessionCacheHandlers() repository.ModelHandlers[*sessionCacheRecord] {
	return repository.ModelHandlers[*sessionCacheRecord]{
		NewRecord: func() *sessionCacheRecord {
			return &sessionCacheRecord{}
		},
		GetID: func(record *sessionCacheRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *sessionCacheRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "cache_key"
		},
		GetIdentifierValue: func(record *sessionCacheRecord) string {
			if record == nil {
				return ""
			}
			return record.CacheKey
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
