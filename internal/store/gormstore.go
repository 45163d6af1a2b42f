package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"cloudtab/internal/domain/session"
	cloudtab_errors "cloudtab/pkg/errors"
)

// sessionRow is the persistence shape for the Postgres backing.
type sessionRow struct {
	Code      string    `gorm:"primaryKey;size:6"`
	Files     []byte    `gorm:"type:jsonb;not null"`
	Key       []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Status    string    `gorm:"not null"`
}

func (sessionRow) TableName() string {
	return "sessions"
}

// GormStore keeps session records in Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&sessionRow{}); err != nil {
		return nil, fmt.Errorf("migrate sessions table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Put(ctx context.Context, sess *session.Session) error {
	row, err := toRow(sess)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Create(&row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return cloudtab_errors.ErrAlreadyExists
		}
		return fmt.Errorf("create session row: %w", res.Error)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, code string) (session.Session, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Session{}, cloudtab_errors.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("load session row: %w", err)
	}
	return fromRow(row)
}

func (s *GormStore) Save(ctx context.Context, sess session.Session) error {
	row, err := toRow(&sess)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Save(&row)
	if res.Error != nil {
		return fmt.Errorf("save session row: %w", res.Error)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Delete(&sessionRow{}, "code = ?", code)
	if res.Error != nil {
		return fmt.Errorf("delete session row: %w", res.Error)
	}
	return nil
}

func (s *GormStore) ListCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := s.db.WithContext(ctx).Model(&sessionRow{}).Pluck("code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("list session rows: %w", err)
	}
	return codes, nil
}

func toRow(sess *session.Session) (sessionRow, error) {
	files, err := json.Marshal(sess.Files)
	if err != nil {
		return sessionRow{}, fmt.Errorf("marshal file records: %w", err)
	}
	return sessionRow{
		Code:      sess.Code,
		Files:     files,
		Key:       sess.Key,
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
		Status:    string(sess.Status),
	}, nil
}

func fromRow(row sessionRow) (session.Session, error) {
	var files []session.FileRecord
	if len(row.Files) > 0 {
		if err := json.Unmarshal(row.Files, &files); err != nil {
			return session.Session{}, fmt.Errorf("decode file records: %w", err)
		}
	}
	return session.Session{
		Code:      row.Code,
		Files:     files,
		Key:       row.Key,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
		Status:    session.Status(row.Status),
	}, nil
}
