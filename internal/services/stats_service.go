package services

import (
	"github.com/nekowy/messy-protect-service/internal/dto"
	"github.com/nekowy/messy-protect-service/internal/models"
	"gorm.io/gorm"
)

// StatsService aggregates the admin panel's read-only view of accounts and
// pending tasks.
type StatsService struct {
	db     *gorm.DB
	outbox *OutboxService
}

func NewStatsService(db *gorm.DB, outbox *OutboxService) *StatsService {
	return &StatsService{db: db, outbox: outbox}
}

func (s *StatsService) Stats() (*dto.StatsResponse, error) {
	var users, banned int64
	if err := s.db.Model(&models.User{}).Count(&users).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.User{}).Where("is_banned = ?", true).Count(&banned).Error; err != nil {
		return nil, err
	}

	tasks, err := s.outbox.Count()
	if err != nil {
		return nil, err
	}

	recent, err := s.outbox.Recent(10)
	if err != nil {
		return nil, err
	}

	var allUsers []models.User
	if err := s.db.Order("created_at DESC").Limit(50).Find(&allUsers).Error; err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		Users:       users,
		Tasks:       tasks,
		BannedUsers: banned,
		RecentTasks: recent,
		AllUsers:    allUsers,
	}, nil
}
