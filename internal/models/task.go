package models

import "time"

// Task is one pending mutation in the sync outbox. Data holds the ciphertext of
// the operation's subject; it is decrypted only when served to the game-server
// plugin. The autoincrement ID doubles as the acknowledgement token, and a task
// has no in-flight state: it is pending until the plugin acknowledges it, at
// which point the row is deleted.
type Task struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Action    string    `gorm:"size:32;not null" json:"action"`
	Data      string    `gorm:"type:text" json:"data"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
