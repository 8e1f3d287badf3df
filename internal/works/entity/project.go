package entity

import "time"

// Project is the permanent record materialized from an approved file.
// Payments and progress logging attach to it downstream; the workflow only
// ever creates it, inside the approve transaction.
type Project struct {
	ID              string     `json:"id" gorm:"primaryKey;size:36"`
	FileID          *string    `json:"file_id" gorm:"size:36;index"`
	NameOfWork      string     `json:"name_of_work" gorm:"size:500;not null"`
	TypeOfWork      string     `json:"type_of_work" gorm:"size:100"`
	WorkCategory    string     `json:"work_category" gorm:"size:100;not null"`
	ProjectCategory string     `json:"project_category" gorm:"size:100;not null"`
	ApprovedBudget  float64    `json:"approved_budget" gorm:"type:numeric(15,2);not null"`
	ExecutingAgency string     `json:"executing_agency" gorm:"size:200"`
	ApprovedBy      string     `json:"approved_by" gorm:"size:36;not null"`
	ApprovedAt      time.Time  `json:"approved_at" gorm:"not null"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Assets []ProjectAsset `json:"assets,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectAsset is the permanent copy of a proposed file asset.
type ProjectAsset struct {
	ID        string  `json:"id" gorm:"primaryKey;size:36"`
	ProjectID string  `json:"project_id" gorm:"size:36;not null;index"`
	AssetID   *string `json:"asset_id" gorm:"size:36"`

	StartLatitude  float64    `json:"start_latitude" gorm:"type:numeric(10,7);not null"`
	StartLongitude float64    `json:"start_longitude" gorm:"type:numeric(10,7);not null"`
	EndLatitude    float64    `json:"end_latitude" gorm:"type:numeric(10,7);not null"`
	EndLongitude   float64    `json:"end_longitude" gorm:"type:numeric(10,7);not null"`
	LocationData   JSONBArray `json:"location_data" gorm:"type:jsonb"`

	Description string    `json:"description" gorm:"size:500"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ProjectAsset) TableName() string {
	return "project_assets"
}
