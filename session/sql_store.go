package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Trafexofive/DeepSearchStack/config"
	"github.com/Trafexofive/DeepSearchStack/internal/migration"
)

// sessionRecord is the gorm model backing the "sessions" table created by
// internal/migration's embedded session schema.
type sessionRecord struct {
	ID        string `gorm:"primaryKey;column:id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

func (sessionRecord) TableName() string { return "sessions" }

// messageRecord is the gorm model backing "session_messages". Append-only:
// rows are created, never updated, ordered by Seq.
type messageRecord struct {
	ID        uint64 `gorm:"primaryKey;column:id"`
	SessionID string `gorm:"column:session_id;index"`
	Role      string
	Content   string
	Metadata  string // JSON-encoded map[string]string
	CreatedAt time.Time
	Seq       int64
}

func (messageRecord) TableName() string { return "session_messages" }

// SQLStore is the durable relational backend, grounded on the teacher's
// gorm.AutoMigrate + struct-tag idiom (llm/db_init.go) for schema, but
// applies its schema through internal/migration's golang-migrate-backed
// Migrator instead, so a single versioned schema serves both this store
// and any other relational consumer of the same database.
type SQLStore struct {
	db     *gorm.DB
	ttl    time.Duration
	logger *zap.Logger
}

// NewSQLStore opens a gorm connection per cfg, applies pending migrations,
// and returns a ready Store.
func NewSQLStore(ctx context.Context, cfg config.DatabaseConfig, ttl time.Duration, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	migrator, err := migration.NewMigratorFromDatabaseConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build migrator: %w", err)
	}
	defer migrator.Close()
	if err := migrator.Up(ctx); err != nil {
		return nil, fmt.Errorf("apply session schema migrations: %w", err)
	}

	return &SQLStore{db: db, ttl: ttl, logger: logger}, nil
}

func (s *SQLStore) Create(ctx context.Context, id string) (Session, error) {
	now := time.Now().UTC()
	expires := now.Add(s.ttl)
	rec := sessionRecord{ID: id, CreatedAt: now, UpdatedAt: now, ExpiresAt: &expires}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return Session{ID: id, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	var rec sessionRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if gormIsNotFound(err) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("get session: %w", err)
	}

	var msgRecs []messageRecord
	if err := s.db.WithContext(ctx).Where("session_id = ?", id).Order("seq ASC").Find(&msgRecs).Error; err != nil {
		return Session{}, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]Message, 0, len(msgRecs))
	for _, m := range msgRecs {
		var meta map[string]string
		if m.Metadata != "" {
			if err := json.Unmarshal([]byte(m.Metadata), &meta); err != nil {
				s.logger.Warn("dropping unparsable stored message metadata", zap.String("session_id", id), zap.Error(err))
			}
		}
		messages = append(messages, Message{Role: m.Role, Content: m.Content, Metadata: meta, Timestamp: m.CreatedAt})
	}

	return Session{ID: rec.ID, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt, Messages: messages}, nil
}

func (s *SQLStore) AppendMessage(ctx context.Context, id string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	metaJSON := ""
	if len(msg.Metadata) > 0 {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("marshal message metadata: %w", err)
		}
		metaJSON = string(data)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec sessionRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if gormIsNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("get session: %w", err)
		}

		var count int64
		if err := tx.Model(&messageRecord{}).Where("session_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("count messages: %w", err)
		}

		rowRec := messageRecord{SessionID: id, Role: msg.Role, Content: msg.Content, Metadata: metaJSON, CreatedAt: msg.Timestamp, Seq: count}
		if err := tx.Create(&rowRec).Error; err != nil {
			return fmt.Errorf("append message: %w", err)
		}

		rec.UpdatedAt = msg.Timestamp
		expires := msg.Timestamp.Add(s.ttl)
		rec.ExpiresAt = &expires
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("touch session: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []sessionRecord
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Limit(limit).Offset(offset).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]Session, 0, len(recs))
	for _, rec := range recs {
		sess, err := s.Get(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&messageRecord{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Delete(&sessionRecord{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormIsNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}
