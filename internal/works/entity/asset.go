package entity

import "time"

// FileAsset is a road/drain/sewer segment proposed for a file. It survives
// approval untouched as the record of what was proposed; the materializer
// copies it into a ProjectAsset.
type FileAsset struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	FileID string `json:"file_id" gorm:"size:36;not null;index"`
	// Optional link to an existing permanent asset the work modifies.
	AssetID *string `json:"asset_id" gorm:"size:36"`

	StartLatitude  float64 `json:"start_latitude" gorm:"type:numeric(10,7);not null"`
	StartLongitude float64 `json:"start_longitude" gorm:"type:numeric(10,7);not null"`
	EndLatitude    float64 `json:"end_latitude" gorm:"type:numeric(10,7);not null"`
	EndLongitude   float64 `json:"end_longitude" gorm:"type:numeric(10,7);not null"`

	// Vertex list for curved paths; when present consumers render it in
	// place of the two endpoints. Shape: [{"lat":..,"lng":..}, ...]
	LocationData JSONBArray `json:"location_data" gorm:"type:jsonb"`

	Description string    `json:"description" gorm:"size:500"`
	CreatedAt   time.Time `json:"created_at"`
}

func (FileAsset) TableName() string {
	return "file_assets"
}

// FileAttachment is a supporting document (survey report, site photograph)
// uploaded against an editable file. The object itself lives in MinIO.
type FileAttachment struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	FileID      string    `json:"file_id" gorm:"size:36;not null;index"`
	Name        string    `json:"name" gorm:"size:256;not null"`
	ObjectKey   string    `json:"-" gorm:"size:512;not null"`
	ContentType string    `json:"content_type" gorm:"size:100"`
	Size        int64     `json:"size"`
	UploadedBy  string    `json:"uploaded_by" gorm:"size:36"`
	CreatedAt   time.Time `json:"created_at"`
}

func (FileAttachment) TableName() string {
	return "file_attachments"
}
