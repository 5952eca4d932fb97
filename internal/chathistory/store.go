// Package chathistory is the persistent chat history collaborator. The
// routing core never touches it; handlers append and read around their reply
// calls, and a cron sweep enforces retention.
package chathistory

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	RoleUser = "user"
	RoleBot  = "bot"
)

type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    string `gorm:"index:idx_history_chat_created,priority:1"`
	Role      string
	Content   string
	CreatedAt time.Time `gorm:"index:idx_history_chat_created,priority:2"`
}

func (Entry) TableName() string { return "chat_history" }

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

type Options struct {
	Path   string
	Logger *slog.Logger
}

// Open opens (or creates) the sqlite database and migrates the history
// table. SQLite works best with a single writer, so the pool is capped.
func Open(opts Options) (*Store, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		return nil, fmt.Errorf("history db path is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db, logger: log}, nil
}

func (s *Store) Append(chatID, role, content string) error {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return fmt.Errorf("chat id is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("content is required")
	}
	entry := Entry{
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.Create(&entry).Error
}

// Recent returns up to limit entries for a chat, oldest first.
func (s *Store) Recent(chatID string, limit int) ([]Entry, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, fmt.Errorf("chat id is required")
	}
	if limit <= 0 {
		limit = 20
	}
	var entries []Entry
	err := s.db.
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// CleanupBefore deletes entries older than the cutoff and reports how many
// rows went away.
func (s *Store) CleanupBefore(cutoff time.Time) (int64, error) {
	res := s.db.Where("created_at < ?", cutoff.UTC()).Delete(&Entry{})
	return res.RowsAffected, res.Error
}

// StartRetentionSweep schedules a periodic cleanup of entries older than
// maxAge. The returned cron is already running; callers stop it on shutdown.
func (s *Store) StartRetentionSweep(schedule string, maxAge time.Duration) (*cron.Cron, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		schedule = "@hourly"
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("retention max age must be positive")
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		deleted, err := s.CleanupBefore(time.Now().UTC().Add(-maxAge))
		if err != nil {
			s.logger.Warn("history_cleanup_error", "error", err.Error())
			return
		}
		if deleted > 0 {
			s.logger.Info("history_cleanup", "deleted", deleted)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule history cleanup: %w", err)
	}
	c.Start()
	return c, nil
}
