package entity

import "time"

// Movement actions.
const (
	MovementForward = "FORWARD"
	MovementReturn  = "RETURN"
	MovementApprove = "APPROVE"
	MovementReject  = "REJECT"
)

// MovementLog is one routing action on a file. Rows are append-only;
// replayed oldest-first they reconstruct the full chain of custody.
type MovementLog struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	FileID     string    `json:"file_id" gorm:"size:36;not null;index:idx_movement_logs_file"`
	FromUserID string    `json:"from_user_id" gorm:"size:36;not null"`
	ToUserID   *string   `json:"to_user_id" gorm:"size:36"`
	FromRole   string    `json:"from_role" gorm:"size:20;not null"`
	ToRole     string    `json:"to_role" gorm:"size:20"`
	Action     string    `json:"action" gorm:"size:20;not null"`
	Remarks    string    `json:"remarks" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"index:idx_movement_logs_file"`
}

func (MovementLog) TableName() string {
	return "file_movement_logs"
}
