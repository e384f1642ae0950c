package services

import (
	"fmt"

	"github.com/nekowy/messy-protect-service/internal/crypto"
	"github.com/nekowy/messy-protect-service/internal/dto"
	"github.com/nekowy/messy-protect-service/internal/models"
	"gorm.io/gorm"
)

// OutboxService is the durable queue of whitelist mutations awaiting pickup by
// the game-server plugin. Payloads are encrypted before they hit storage and
// decrypted only when served. A task is pending until acknowledged, at which
// point its row is deleted; there is no in-flight state, so the plugin may see
// the same task on consecutive polls and must apply it idempotently.
type OutboxService struct {
	db    *gorm.DB
	codec *crypto.Codec
}

func NewOutboxService(db *gorm.DB, codec *crypto.Codec) *OutboxService {
	return &OutboxService{db: db, codec: codec}
}

// Enqueue encrypts subject and appends a new task.
func (s *OutboxService) Enqueue(taskType, action, subject string) (uint, error) {
	return s.EnqueueIn(s.db, taskType, action, subject)
}

// EnqueueIn is Enqueue running on the caller's transaction handle, so a task
// insert and the user update it mirrors commit or roll back together.
func (s *OutboxService) EnqueueIn(tx *gorm.DB, taskType, action, subject string) (uint, error) {
	data, err := s.codec.Encrypt(subject)
	if err != nil {
		return 0, fmt.Errorf("failed to encrypt task payload: %w", err)
	}

	task := models.Task{Type: taskType, Action: action, Data: data}
	if err := tx.Create(&task).Error; err != nil {
		return 0, fmt.Errorf("failed to enqueue task: %w", err)
	}
	return task.ID, nil
}

// Pending returns every pending task oldest-first with payloads decrypted.
// FIFO within a batch keeps an add-then-remove on the same nickname applying
// in the order it happened.
func (s *OutboxService) Pending() ([]dto.TaskView, error) {
	var tasks []models.Task
	if err := s.db.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return s.decryptAll(tasks)
}

// Recent returns the newest tasks decrypted, for the admin panel.
func (s *OutboxService) Recent(limit int) ([]dto.TaskView, error) {
	var tasks []models.Task
	if err := s.db.Order("id DESC").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return s.decryptAll(tasks)
}

// Acknowledge deletes the task with the given id. Acknowledging an id that is
// already gone is not an error; the plugin retries acknowledgements after
// network blips.
func (s *OutboxService) Acknowledge(id uint) error {
	return s.db.Delete(&models.Task{}, id).Error
}

func (s *OutboxService) Count() (int64, error) {
	var count int64
	err := s.db.Model(&models.Task{}).Count(&count).Error
	return count, err
}

func (s *OutboxService) decryptAll(tasks []models.Task) ([]dto.TaskView, error) {
	views := make([]dto.TaskView, 0, len(tasks))
	for _, t := range tasks {
		data, err := s.codec.Decrypt(t.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt task %d: %w", t.ID, err)
		}
		views = append(views, dto.TaskView{ID: t.ID, Type: t.Type, Action: t.Action, Data: data})
	}
	return views, nil
}
