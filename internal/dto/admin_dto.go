package dto

import "github.com/nekowy/messy-protect-service/internal/models"

type AdminCheckRequest struct {
	Secret string `json:"secret"`
}

type AdminCheckResponse struct {
	Success bool `json:"success"`
	Admin   bool `json:"admin"`
}

type AdminActionRequest struct {
	Secret string `json:"secret"`
	Action string `json:"action"`
	Target string `json:"target"`
	Value  string `json:"value,omitempty"`
}

type StatsResponse struct {
	Users       int64         `json:"users"`
	Tasks       int64         `json:"tasks"`
	BannedUsers int64         `json:"bannedUsers"`
	RecentTasks []TaskView    `json:"recentTasks"`
	AllUsers    []models.User `json:"allUsers"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
