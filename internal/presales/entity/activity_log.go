package entity

import "time"

// Audit actions
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionEdit   = "EDIT"
)

// ActivityLog append-only audit entry
type ActivityLog struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	Timestamp       time.Time `json:"timestamp" gorm:"not null;index"`
	OpportunityName string    `json:"opportunity_name" gorm:"size:500"`
	UserName        string    `json:"user_name" gorm:"size:100;index"`
	Action          string    `json:"action" gorm:"size:20;not null"` // CREATE/UPDATE/EDIT
	Field           string    `json:"field" gorm:"size:100"`
	OldValue        string    `json:"old_value" gorm:"type:text"`
	NewValue        string    `json:"new_value" gorm:"type:text"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
