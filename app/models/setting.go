package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Setting represents a system setting
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer, float
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings represents the application settings structure
type AppSettings struct {
	SiteTitle             string `json:"site_title" validate:"required,min=1,max=255"`
	PollIntervalSeconds   int    `json:"poll_interval_seconds" validate:"gte=5"`
	StaleToleranceSeconds int    `json:"stale_tolerance_seconds" validate:"gte=1"`
	AlarmRepeatMs         int    `json:"alarm_repeat_ms" validate:"gte=250"`
	PaymentWarnMinutes    int    `json:"payment_warn_minutes" validate:"gte=1"`
	PaymentFinalMinutes   int    `json:"payment_final_minutes" validate:"gte=1"`
	JobQueueWorkerCount   int    `json:"job_queue_worker_count" validate:"gte=1,lte=50"`
	AlertEmailEnabled     bool   `json:"alert_email_enabled"`
	mu                    sync.RWMutex
}

// Global settings instance
var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Initialize with defaults
	appSettings = &AppSettings{
		SiteTitle:             "OrderDesk",
		PollIntervalSeconds:   30,
		StaleToleranceSeconds: 10,
		AlarmRepeatMs:         1500,
		PaymentWarnMinutes:    5,
		PaymentFinalMinutes:   2,
		JobQueueWorkerCount:   3,
		AlertEmailEnabled:     false,
	}

	// Load settings from database
	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// Apply loaded settings
	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			appSettings.SiteTitle = setting.Value
		case "poll_interval_seconds":
			if v, err := strconv.Atoi(setting.Value); err == nil && v >= 5 {
				appSettings.PollIntervalSeconds = v
			}
		case "stale_tolerance_seconds":
			if v, err := strconv.Atoi(setting.Value); err == nil && v >= 1 {
				appSettings.StaleToleranceSeconds = v
			}
		case "alarm_repeat_ms":
			if v, err := strconv.Atoi(setting.Value); err == nil && v >= 250 {
				appSettings.AlarmRepeatMs = v
			}
		case "payment_warn_minutes":
			if v, err := strconv.Atoi(setting.Value); err == nil && v >= 1 {
				appSettings.PaymentWarnMinutes = v
			}
		case "payment_final_minutes":
			if v, err := strconv.Atoi(setting.Value); err == nil && v >= 1 {
				appSettings.PaymentFinalMinutes = v
			}
		case "job_queue_worker_count":
			if v, err := strconv.Atoi(setting.Value); err == nil && v >= 1 {
				appSettings.JobQueueWorkerCount = v
			}
		case "alert_email_enabled":
			appSettings.AlertEmailEnabled = setting.Value == "true"
		}
	}

	return nil
}

// SaveSettings saves current settings to database
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	// Validate settings
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Convert settings to database format
	settingsMap := map[string]interface{}{
		"site_title":              settings.SiteTitle,
		"poll_interval_seconds":   strconv.Itoa(settings.PollIntervalSeconds),
		"stale_tolerance_seconds": strconv.Itoa(settings.StaleToleranceSeconds),
		"alarm_repeat_ms":         strconv.Itoa(settings.AlarmRepeatMs),
		"payment_warn_minutes":    strconv.Itoa(settings.PaymentWarnMinutes),
		"payment_final_minutes":   strconv.Itoa(settings.PaymentFinalMinutes),
		"job_queue_worker_count":  strconv.Itoa(settings.JobQueueWorkerCount),
		"alert_email_enabled":     fmt.Sprintf("%t", settings.AlertEmailEnabled),
	}

	// Save each setting
	for key, value := range settingsMap {
		var setting Setting
		result := db.Where("setting_key = ?", key).First(&setting)

		if result.Error != nil {
			if result.Error == gorm.ErrRecordNotFound {
				// Create new setting
				setting = Setting{
					Key:   key,
					Value: fmt.Sprintf("%v", value),
					Type:  getSettingType(key),
				}
				if err := db.Create(&setting).Error; err != nil {
					return fmt.Errorf("failed to create setting %s: %w", key, err)
				}
			} else {
				return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
			}
		} else {
			// Update existing setting
			setting.Value = fmt.Sprintf("%v", value)
			if err := db.Save(&setting).Error; err != nil {
				return fmt.Errorf("failed to update setting %s: %w", key, err)
			}
		}
	}

	// Update global settings
	appSettings = settings
	return nil
}

// getSettingType returns the type of a setting based on its key
func getSettingType(key string) string {
	switch key {
	case "site_title":
		return "string"
	case "alert_email_enabled":
		return "boolean"
	default:
		return "integer"
	}
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// ToJSON converts settings to JSON
func (s *AppSettings) ToJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s)
}

// FromJSON loads settings from JSON
func (s *AppSettings) FromJSON(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Unmarshal(data, s)
}

// GetSiteTitle returns the site title
func (s *AppSettings) GetSiteTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SiteTitle
}

// GetPollInterval returns the watcher's reconciliation interval
func (s *AppSettings) GetPollInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.PollIntervalSeconds) * time.Second
}

// GetStaleTolerance returns the read-cache staleness tolerance
func (s *AppSettings) GetStaleTolerance() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.StaleToleranceSeconds) * time.Second
}

// GetAlarmRepeatInterval returns the repeating-alarm cadence
func (s *AppSettings) GetAlarmRepeatInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Duration(s.AlarmRepeatMs) * time.Millisecond
}

// GetPaymentWarnThresholds returns the deadline warning classes, widest first
func (s *AppSettings) GetPaymentWarnThresholds() []time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return []time.Duration{
		time.Duration(s.PaymentWarnMinutes) * time.Minute,
		time.Duration(s.PaymentFinalMinutes) * time.Minute,
	}
}

// GetJobQueueWorkerCount returns the number of escalation delivery workers
func (s *AppSettings) GetJobQueueWorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.JobQueueWorkerCount
}

// IsAlertEmailEnabled returns whether escalation emails are sent
func (s *AppSettings) IsAlertEmailEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AlertEmailEnabled
}
