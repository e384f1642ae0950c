package dto

// TaskView is a pending task with its payload decrypted for the consumer.
type TaskView struct {
	ID     uint   `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   string `json:"data"`
}

// TaskListResponse is the poll reply. Verify lets the plugin confirm it is
// talking to the expected server instance.
type TaskListResponse struct {
	Tasks  []TaskView `json:"tasks"`
	Verify string     `json:"verify"`
}

type AckResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Verify  string `json:"verify"`
}
