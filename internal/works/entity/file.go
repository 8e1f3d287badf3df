package entity

import "time"

// File status values. APPROVED is terminal; the rest stay editable.
const (
	FileStatusPending  = "PENDING"
	FileStatusApproved = "APPROVED"
	FileStatusReturned = "RETURNED"
	FileStatusRejected = "REJECTED"
)

// Department roles in routing order. ADMIN is an administrative role,
// never a forward target.
const (
	RoleJE    = "JE"
	RoleSDE   = "SDE"
	RoleXEN   = "XEN"
	RoleSE    = "SE"
	RoleCE    = "CE"
	RoleCEO   = "CEO"
	RoleAdmin = "ADMIN"
)

// KnownRoles is every role the workflow recognises.
var KnownRoles = []string{RoleJE, RoleSDE, RoleXEN, RoleSE, RoleCE, RoleCEO, RoleAdmin}

// ApprovalRoles may terminally approve or reject a file.
var ApprovalRoles = []string{RoleCEO, RoleAdmin}

// IsKnownRole reports whether code names a recognised role.
func IsKnownRole(code string) bool {
	for _, r := range KnownRoles {
		if r == code {
			return true
		}
	}
	return false
}

// IsApprovalRole reports whether code may approve/reject.
func IsApprovalRole(code string) bool {
	for _, r := range ApprovalRoles {
		if r == code {
			return true
		}
	}
	return false
}

// File is one proposed work item moving through approval.
type File struct {
	ID              string  `json:"id" gorm:"primaryKey;size:36"`
	NameOfWork      string  `json:"name_of_work" gorm:"size:500;not null"`
	TypeOfWork      string  `json:"type_of_work" gorm:"size:100"`
	WorkCategory    string  `json:"work_category" gorm:"size:100"`
	ProjectCategory string  `json:"project_category" gorm:"size:100"`
	EstimatedAmount float64 `json:"estimated_amount" gorm:"type:numeric(15,2);not null;default:0"`

	Status            string  `json:"status" gorm:"size:20;not null;default:'PENDING';index"`
	CurrentHolderRole string  `json:"current_holder_role" gorm:"size:20;index"`
	CurrentHolderID   *string `json:"current_holder_id" gorm:"size:36"`

	// Set on approval, back-reference to the materialized project.
	ProjectID *string `json:"project_id" gorm:"size:36"`

	CreatedBy string    `json:"created_by" gorm:"size:36;not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Estimate    *Estimate        `json:"estimate,omitempty" gorm:"-"`
	Assets      []FileAsset      `json:"assets,omitempty" gorm:"foreignKey:FileID"`
	Movements   []MovementLog    `json:"movements,omitempty" gorm:"foreignKey:FileID"`
	Attachments []FileAttachment `json:"attachments,omitempty" gorm:"foreignKey:FileID"`
}

func (File) TableName() string {
	return "files"
}

// Editable reports whether the file may still be mutated by its owner.
func (f *File) Editable() bool {
	return f.Status != FileStatusApproved
}

// Holder answers the "who may act" question for the file's current custody.
// A nil CurrentHolderID means the file sits in the role pool and any member
// of the holder role may act; otherwise only the named user may.
type Holder struct {
	Role   string
	UserID *string
}

// CurrentHolder returns the file's holder.
func (f *File) CurrentHolder() Holder {
	return Holder{Role: f.CurrentHolderRole, UserID: f.CurrentHolderID}
}

// MayAct reports whether the given principal holds the file.
func (h Holder) MayAct(userID, role string) bool {
	if h.Role == "" {
		return false
	}
	if h.UserID != nil {
		return *h.UserID == userID
	}
	return h.Role == role
}
