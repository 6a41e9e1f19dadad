package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dcurrey/dupReport/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// EmailFilter narrows ListEmails. Zero values match everything.
type EmailFilter struct {
	Source      string
	Destination string
	Limit       int
}

func (r *Repository) IsEmailProcessed(messageID string) (bool, error) {
	var email models.Email
	result := r.db.Select("id").Where("message_id = ?", messageID).First(&email)
	if result.Error == nil {
		return true, nil
	}
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("database error checking processed email: %w", result.Error)
}

// SaveEmail inserts one notification record.
func (r *Repository) SaveEmail(email *models.Email) error {
	if err := r.db.Create(email).Error; err != nil {
		return fmt.Errorf("failed to save email %s: %w", email.MessageID, err)
	}
	return nil
}

// EnsureBackupSet creates the pair with an epoch snapshot unless it
// already exists. It reports whether a row was created.
func (r *Repository) EnsureBackupSet(source, destination string) (bool, error) {
	existing, err := r.GetBackupSet(source, destination)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	set := models.NewBackupSet(source, destination)
	if err := r.db.Create(&set).Error; err != nil {
		return false, fmt.Errorf("failed to create backup set %s/%s: %w", source, destination, err)
	}
	return true, nil
}

// GetBackupSet returns nil when the pair is unknown.
func (r *Repository) GetBackupSet(source, destination string) (*models.BackupSet, error) {
	var set models.BackupSet
	result := r.db.Where("source = ? AND destination = ?", source, destination).First(&set)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return &set, nil
}

// ListBackupSets returns every pair ordered by source then destination,
// or by destination then source.
func (r *Repository) ListBackupSets(byDestination bool) ([]models.BackupSet, error) {
	order := "source, destination"
	if byDestination {
		order = "destination, source"
	}
	var sets []models.BackupSet
	if err := r.db.Order(order).Find(&sets).Error; err != nil {
		return nil, fmt.Errorf("failed to get backup sets: %w", err)
	}
	return sets, nil
}

// EmailsSince returns the pair's records whose end timestamp is strictly
// after lastDate/lastTime, oldest first.
func (r *Repository) EmailsSince(source, destination, lastDate, lastTime string) ([]models.Email, error) {
	var emails []models.Email
	result := r.db.
		Where("source_comp = ? AND dest_comp = ?", source, destination).
		Where("(end_date > ? OR (end_date = ? AND end_time > ?))", lastDate, lastDate, lastTime).
		Order("end_date, end_time").
		Find(&emails)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get emails for %s/%s: %w", source, destination, result.Error)
	}
	return emails, nil
}

// UpdateBackupSet stores the pair's snapshot.
func (r *Repository) UpdateBackupSet(set *models.BackupSet) error {
	result := r.db.Model(&models.BackupSet{}).
		Where("source = ? AND destination = ?", set.Source, set.Destination).
		Updates(map[string]interface{}{
			"last_file_count": set.LastFileCount,
			"last_file_size":  set.LastFileSize,
			"last_date":       set.LastDate,
			"last_time":       set.LastTime,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update backup set %s/%s: %w", set.Source, set.Destination, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("backup set %s/%s not found", set.Source, set.Destination)
	}
	return nil
}

// ListEmails returns the newest records first.
func (r *Repository) ListEmails(filter EmailFilter) ([]models.Email, error) {
	query := r.db.Model(&models.Email{})
	if filter.Source != "" {
		query = query.Where("source_comp = ?", filter.Source)
	}
	if filter.Destination != "" {
		query = query.Where("dest_comp = ?", filter.Destination)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var emails []models.Email
	if err := query.Order("end_date DESC, end_time DESC").Find(&emails).Error; err != nil {
		return nil, fmt.Errorf("failed to get emails: %w", err)
	}
	return emails, nil
}

func (r *Repository) CountEmails() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Email{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}
	return count, nil
}
