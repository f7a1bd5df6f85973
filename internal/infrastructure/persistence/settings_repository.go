package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qclens/backend/internal/infrastructure/logger"
	"github.com/qclens/backend/internal/infrastructure/persistence/models"
)

// ErrInvalidSettingKey is returned for an empty key
var ErrInvalidSettingKey = errors.New("settings: key is required")

// GormSettingsRepository reads and writes the settings table
type GormSettingsRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db, now: time.Now}
}

// Migrate creates or updates the settings table
func (r *GormSettingsRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&models.SettingModel{}); err != nil {
		return fmt.Errorf("failed to migrate settings table: %w", err)
	}
	return nil
}

// Load returns every stored setting
func (r *GormSettingsRepository) Load(ctx context.Context) (map[string]string, error) {
	var rows []models.SettingModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// Get returns a single setting
func (r *GormSettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var row models.SettingModel
	err := r.db.WithContext(logger.WithSettingKey(ctx, key)).Where("key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return row.Value, true, nil
}

// Set inserts or replaces a setting
func (r *GormSettingsRepository) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrInvalidSettingKey
	}
	row := models.SettingModel{Key: key, Value: value, UpdatedAt: r.now()}
	err := r.db.WithContext(logger.WithSettingKey(ctx, key)).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a setting; deleting a missing key is not an error
func (r *GormSettingsRepository) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(logger.WithSettingKey(ctx, key)).Where("key = ?", key).Delete(&models.SettingModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
