package entity

import "time"

// Estimate is one version of a file's cost sheet. Versions are append-only;
// exactly one version per file carries IsActive=true.
type Estimate struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	FileID      string    `json:"file_id" gorm:"size:36;not null;index:idx_estimates_file"`
	Version     int       `json:"version" gorm:"not null;default:1"`
	TotalAmount float64   `json:"total_amount" gorm:"type:numeric(15,2);not null;default:0"`
	IsActive    bool      `json:"is_active" gorm:"not null;default:true;index:idx_estimates_file"`
	CreatedBy   string    `json:"created_by" gorm:"size:36"`
	CreatedAt   time.Time `json:"created_at"`

	Items []EstimateItem `json:"items,omitempty" gorm:"foreignKey:EstimateID"`
}

func (Estimate) TableName() string {
	return "estimates"
}

// EstimateItem is a single line of an estimate version.
// Amount is always Quantity * Rate, recomputed on save.
type EstimateItem struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	EstimateID  string    `json:"estimate_id" gorm:"size:36;not null;index"`
	Description string    `json:"description" gorm:"size:500;not null"`
	Quantity    float64   `json:"quantity" gorm:"type:numeric(15,4);not null"`
	Unit        string    `json:"unit" gorm:"size:20"`
	Rate        float64   `json:"rate" gorm:"type:numeric(15,4);not null"`
	Amount      float64   `json:"amount" gorm:"type:numeric(15,2);not null"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
}

func (EstimateItem) TableName() string {
	return "estimate_items"
}
