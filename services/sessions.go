package services

import (
	"context"
	"fmt"

	"cybercafe-demand-api/forecast"
	"cybercafe-demand-api/models"

	"gorm.io/gorm"
)

// GormSessionSource reads historical sessions through the API's gorm
// connection.
type GormSessionSource struct {
	db *gorm.DB
}

var _ forecast.SessionSource = (*GormSessionSource)(nil)

func NewGormSessionSource(db *gorm.DB) *GormSessionSource {
	return &GormSessionSource{db: db}
}

func (s *GormSessionSource) FetchSessions(ctx context.Context, window forecast.TimeRange) ([]forecast.SessionRecord, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Select("session_id", "start_time", "end_time").
		Where("start_time IS NOT NULL").
		Order("start_time ASC")

	if !window.From.IsZero() {
		query = query.Where("start_time >= ?", window.From)
	}
	if !window.To.IsZero() {
		query = query.Where("start_time < ?", window.To)
	}

	var rows []models.Session
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: query sessions: %w", forecast.ErrDataUnavailable, err)
	}
	return toSessionRecords(rows), nil
}

func toSessionRecords(rows []models.Session) []forecast.SessionRecord {
	records := make([]forecast.SessionRecord, 0, len(rows))
	for _, r := range rows {
		if r.StartTime == nil {
			continue
		}
		records = append(records, forecast.SessionRecord{
			ID:        r.SessionID,
			StartTime: *r.StartTime,
			EndTime:   r.EndTime,
		})
	}
	return records
}
