package db

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/glebarez/sqlite"
	"github.com/pysugar/careertracker/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB initializes the SQLite database connection and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Auto-migrate all models
	if err := db.AutoMigrate(&models.Setting{}, &models.CallLog{}); err != nil {
		return nil, err
	}

	// Ensure bridge key exists (generate on first run)
	if _, err := EnsureBridgeKey(db); err != nil {
		return nil, err
	}

	return db, nil
}

func newBridgeKey() string {
	keyBytes := make([]byte, 16)
	rand.Read(keyBytes)
	return "ct-" + hex.EncodeToString(keyBytes)
}

// EnsureBridgeKey returns the local bridge key, generating one if missing.
func EnsureBridgeKey(db *gorm.DB) (string, error) {
	var setting models.Setting
	err := db.Where("key = ?", models.KeyBridgeKey).First(&setting).Error
	if err == nil && setting.Value != "" {
		return setting.Value, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("load bridge key: %w", err)
	}

	key := newBridgeKey()
	if err := db.Save(&models.Setting{Key: models.KeyBridgeKey, Value: key}).Error; err != nil {
		return "", fmt.Errorf("store bridge key: %w", err)
	}
	slog.Info("generated new bridge key", "key", maskKey(key))
	return key, nil
}

// GetBridgeKey retrieves the bridge key from database
func GetBridgeKey(db *gorm.DB) string {
	var setting models.Setting
	db.Where("key = ?", models.KeyBridgeKey).First(&setting)
	return setting.Value
}

// RegenerateBridgeKey creates a new bridge key, invalidating the old one
func RegenerateBridgeKey(db *gorm.DB) (string, error) {
	key := newBridgeKey()
	if err := db.Save(&models.Setting{Key: models.KeyBridgeKey, Value: key}).Error; err != nil {
		return "", err
	}
	slog.Info("regenerated bridge key", "key", maskKey(key))
	return key, nil
}

func maskKey(k string) string {
	if len(k) < 12 {
		return "****"
	}
	return k[:3] + "..." + k[len(k)-4:]
}
