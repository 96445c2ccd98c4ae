// Package store persists conversations and folders in SQLite so a browser
// client can sync, export and re-import its history.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatrelay/pkg/types"
)

// Conversation is the persisted record. Messages are kept as a single JSON
// document; they are only ever read and written as a whole ordered list.
type Conversation struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	ModelID     string
	Prompt      string
	Temperature float64
	FolderID    string `gorm:"index"`
	Messages    datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Folder groups conversations.
type Folder struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Type      string
	CreatedAt time.Time
}

// Store wraps the database handle.
type Store struct {
	db *gorm.DB
	// SQLite only supports one writer at a time, so we serialize writes.
	mu sync.Mutex
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Conversation{}, &Folder{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) ListConversations() ([]types.Conversation, error) {
	var recs []Conversation
	if err := s.db.Order("updated_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]types.Conversation, 0, len(recs))
	for _, rec := range recs {
		c, err := toWire(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) GetConversation(id string) (types.Conversation, error) {
	var rec Conversation
	if err := s.db.First(&rec, "id = ?", id).Error; err != nil {
		return types.Conversation{}, err
	}
	return toWire(rec)
}

// SaveConversation upserts a conversation. A missing id is assigned.
func (s *Store) SaveConversation(c types.Conversation) (types.Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	rec, err := toRecord(c)
	if err != nil {
		return types.Conversation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Save(&rec).Error; err != nil {
		return types.Conversation{}, err
	}
	return c, nil
}

func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Delete(&Conversation{}, "id = ?", id).Error
}

// AppendExchange records a user/assistant message pair on an existing
// conversation, preserving message order.
func (s *Store) AppendExchange(id string, user, assistant types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Transaction(func(tx *gorm.DB) error {
		var rec Conversation
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			return err
		}
		var msgs []types.Message
		if len(rec.Messages) > 0 {
			if err := json.Unmarshal(rec.Messages, &msgs); err != nil {
				return fmt.Errorf("decode messages: %w", err)
			}
		}
		msgs = append(msgs, user, assistant)
		raw, err := json.Marshal(msgs)
		if err != nil {
			return err
		}
		rec.Messages = raw
		return tx.Save(&rec).Error
	})
}

func (s *Store) ListFolders() ([]types.Folder, error) {
	var recs []Folder
	if err := s.db.Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]types.Folder, 0, len(recs))
	for _, rec := range recs {
		out = append(out, types.Folder{ID: rec.ID, Name: rec.Name, Type: rec.Type})
	}
	return out, nil
}

func (s *Store) SaveFolder(f types.Folder) (types.Folder, error) {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Type == "" {
		f.Type = "chat"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Save(&Folder{ID: f.ID, Name: f.Name, Type: f.Type}).Error; err != nil {
		return types.Folder{}, err
	}
	return f, nil
}

func (s *Store) DeleteFolder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Conversations keep existing but lose their grouping.
	if err := s.db.Model(&Conversation{}).Where("folder_id = ?", id).Update("folder_id", "").Error; err != nil {
		return err
	}
	return s.db.Delete(&Folder{}, "id = ?", id).Error
}

func toWire(rec Conversation) (types.Conversation, error) {
	msgs := []types.Message{}
	if len(rec.Messages) > 0 {
		if err := json.Unmarshal(rec.Messages, &msgs); err != nil {
			return types.Conversation{}, fmt.Errorf("decode messages for %s: %w", rec.ID, err)
		}
	}
	return types.Conversation{
		ID:          rec.ID,
		Name:        rec.Name,
		Messages:    msgs,
		Model:       rec.ModelID,
		Prompt:      rec.Prompt,
		Temperature: rec.Temperature,
		FolderID:    rec.FolderID,
	}, nil
}

func toRecord(c types.Conversation) (Conversation, error) {
	msgs := c.Messages
	if msgs == nil {
		msgs = []types.Message{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return Conversation{}, err
	}
	return Conversation{
		ID:          c.ID,
		Name:        c.Name,
		ModelID:     c.Model,
		Prompt:      c.Prompt,
		Temperature: c.Temperature,
		FolderID:    c.FolderID,
		Messages:    raw,
	}, nil
}
