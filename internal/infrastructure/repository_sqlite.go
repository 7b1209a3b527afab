package infrastructure

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

// filterColumns are the session columns FindAll accepts as filters
var filterColumns = map[string]bool{
	"status":              true,
	"container":           true,
	"url":                 true,
	"destination_dir":     true,
	"treat_as_collection": true,
}

// SQLiteSessionRepository implements SessionRepository using SQLite
type SQLiteSessionRepository struct {
	db *gorm.DB
}

// NewSQLiteSessionRepository creates a new SQLite repository
func NewSQLiteSessionRepository(dbPath string) (*SQLiteSessionRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Session{}, &domain.SessionItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteSessionRepository{db: db}, nil
}

// Create creates a new session
func (r *SQLiteSessionRepository) Create(session *domain.Session) error {
	return r.db.Create(session).Error
}

// Update saves the session row and replaces its items
func (r *SQLiteSessionRepository) Update(session *domain.Session) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(session).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", session.ID).Delete(&domain.SessionItem{}).Error; err != nil {
			return err
		}
		if len(session.Items) == 0 {
			return nil
		}
		for i := range session.Items {
			session.Items[i].ID = 0
			session.Items[i].SessionID = session.ID
		}
		return tx.Create(&session.Items).Error
	})
}

// Delete deletes a session and its items by ID
func (r *SQLiteSessionRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&domain.SessionItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Session{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrSessionNotFound
		}
		return nil
	})
}

// FindByID finds a session by ID with its items
func (r *SQLiteSessionRepository) FindByID(id string) (*domain.Session, error) {
	var session domain.Session
	err := r.db.Preload("Items").First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindByURL finds the most recent session for url matching any of statuses
func (r *SQLiteSessionRepository) FindByURL(url string, statuses []domain.SessionStatus) (*domain.Session, error) {
	var session domain.Session
	err := r.db.Where("url = ? AND status IN ?", url, statuses).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// FindPending finds all queued sessions ordered by priority and creation time
func (r *SQLiteSessionRepository) FindPending() ([]*domain.Session, error) {
	var sessions []*domain.Session
	err := r.db.Where("status = ?", domain.SessionQueued).
		Order("priority DESC, created_at ASC").
		Find(&sessions).Error
	return sessions, err
}

// FindAll finds all sessions with optional filters. Unknown filter columns
// are rejected.
func (r *SQLiteSessionRepository) FindAll(filters map[string]interface{}) ([]*domain.Session, error) {
	var sessions []*domain.Session
	query := r.db

	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("unsupported filter: %s", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	err := query.Order("created_at DESC").Find(&sessions).Error
	return sessions, err
}

// GetStats returns session statistics
func (r *SQLiteSessionRepository) GetStats() (*domain.SessionStats, error) {
	stats := &domain.SessionStats{}

	if err := r.db.Model(&domain.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.SessionStatus
		Count  int64
	}{}

	if err := r.db.Model(&domain.Session{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}

	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.SessionQueued:
			stats.Queued = sc.Count
		case domain.SessionRunning:
			stats.Running = sc.Count
		case domain.SessionSuccess:
			stats.Success = sc.Count
		case domain.SessionPartialSuccess:
			stats.PartialSuccess = sc.Count
		case domain.SessionFailure:
			stats.Failure = sc.Count
		case domain.SessionAborted:
			stats.Aborted = sc.Count
		case domain.SessionCancelled:
			stats.Cancelled = sc.Count
		}
	}

	return stats, nil
}

// RequeueRunning puts sessions left running by a previous process back in
// the queue and returns how many were reset
func (r *SQLiteSessionRepository) RequeueRunning() (int64, error) {
	res := r.db.Model(&domain.Session{}).
		Where("status = ?", domain.SessionRunning).
		Updates(map[string]interface{}{"status": domain.SessionQueued, "started_at": nil})
	return res.RowsAffected, res.Error
}

// Close closes the database connection
func (r *SQLiteSessionRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
