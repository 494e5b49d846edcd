package db

import (
	"context"
	"fmt"

	"github.com/pysugar/careertracker/internal/credential"
	"github.com/pysugar/careertracker/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var credentialKeys = []string{
	models.KeyAccessToken,
	models.KeyRefreshToken,
	models.KeyAPIBase,
	models.KeyUserEmail,
}

// CredentialStore persists the session credential as rows of the settings table.
// Every write runs in one transaction so readers never observe a partial merge.
type CredentialStore struct {
	db *gorm.DB
}

// NewCredentialStore creates a credential store over db.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) Get(ctx context.Context) (credential.Credential, error) {
	var rows []models.Setting
	if err := s.db.WithContext(ctx).Where("key IN ?", credentialKeys).Find(&rows).Error; err != nil {
		return credential.Credential{}, fmt.Errorf("load credential: %w", err)
	}
	var c credential.Credential
	for _, row := range rows {
		switch row.Key {
		case models.KeyAccessToken:
			c.AccessToken = row.Value
		case models.KeyRefreshToken:
			c.RefreshToken = row.Value
		case models.KeyAPIBase:
			c.APIBase = row.Value
		case models.KeyUserEmail:
			c.UserEmail = row.Value
		}
	}
	return credential.WithDefaults(c), nil
}

func (s *CredentialStore) Set(ctx context.Context, p credential.Patch) error {
	var rows []models.Setting
	add := func(key string, v *string) {
		if v != nil {
			rows = append(rows, models.Setting{Key: key, Value: *v})
		}
	}
	add(models.KeyAccessToken, p.AccessToken)
	add(models.KeyRefreshToken, p.RefreshToken)
	if p.APIBase != nil {
		add(models.KeyAPIBase, credential.String(credential.NormalizeAPIBase(*p.APIBase)))
	}
	add(models.KeyUserEmail, p.UserEmail)
	if len(rows) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("save credential: %w", err)
		}
		return nil
	})
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("key IN ?", []string{models.KeyAccessToken, models.KeyRefreshToken, models.KeyUserEmail}).
		Delete(&models.Setting{}).Error
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}
