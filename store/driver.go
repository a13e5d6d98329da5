package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Whitelist model related methods.
	// CreateWhitelistEntry is idempotent: an existing entry is left untouched.
	CreateWhitelistEntry(ctx context.Context, create *WhitelistEntry) error
	ListWhitelistEntries(ctx context.Context, find *FindWhitelistEntry) ([]*WhitelistEntry, error)
	DeleteWhitelistEntry(ctx context.Context, delete *DeleteWhitelistEntry) error

	// LLMModel model related methods.
	// CreateLLMModel is idempotent on (provider, name).
	CreateLLMModel(ctx context.Context, create *LLMModel) error
	// ListLLMModels returns models ordered by error_count ASC, id ASC.
	ListLLMModels(ctx context.Context, find *FindLLMModel) ([]*LLMModel, error)
	// RecordLLMModelFailure upserts the model and bumps its error count.
	RecordLLMModelFailure(ctx context.Context, record *RecordLLMModelFailure) error

	// ChatSession model related methods.
	UpsertChatSession(ctx context.Context, upsert *ChatSession) (*ChatSession, error)
	ListChatSessions(ctx context.Context, find *FindChatSession) ([]*ChatSession, error)
	// DeleteChatSessions returns the number of removed sessions.
	DeleteChatSessions(ctx context.Context, delete *DeleteChatSession) (int64, error)

	// SystemSetting model related methods.
	UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error)
	ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error)
}
