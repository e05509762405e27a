package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the permission tier attached to a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DefaultRole is assigned to users registered without an explicit role.
const DefaultRole = RoleUser

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an application user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	Documents    Documents `json:"documents"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SafeUser removes sensitive fields for response payloads.
func (u User) SafeUser() User {
	u.PasswordHash = ""
	return u
}

// NewUser carries the fields required to insert a user.
type NewUser struct {
	Email        string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	Phone        string
}

// Documents is the profile document section of a user, stored as JSON.
type Documents struct {
	IdentityType   string                    `json:"identity_type,omitempty"`
	IdentityNumber string                    `json:"identity_number,omitempty"`
	LicenseNumber  string                    `json:"license_number,omitempty"`
	Files          map[string]StoredDocument `json:"files,omitempty"`
}

// StoredDocument describes an uploaded document scan kept in object storage.
type StoredDocument struct {
	ObjectName       string    `json:"object_name"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	Checksum         string    `json:"checksum"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// UserPatch is a partial user update; nil fields are left untouched.
type UserPatch struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Role      *Role   `json:"role"`
}

// Apply merges the non-nil fields of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = normalizeEmail(*p.Email)
	}
	if p.FirstName != nil {
		u.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Phone != nil {
		u.Phone = formatPhone(*p.Phone)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}

// DocumentsPatch updates the descriptive part of a user's documents.
type DocumentsPatch struct {
	IdentityType   *string `json:"identity_type"`
	IdentityNumber *string `json:"identity_number"`
	LicenseNumber  *string `json:"license_number"`
}

// Apply merges the non-nil fields of p onto d. Uploaded files are never touched.
func (p DocumentsPatch) Apply(d *Documents) {
	if p.IdentityType != nil {
		d.IdentityType = strings.TrimSpace(*p.IdentityType)
	}
	if p.IdentityNumber != nil {
		d.IdentityNumber = strings.TrimSpace(*p.IdentityNumber)
	}
	if p.LicenseNumber != nil {
		d.LicenseNumber = strings.TrimSpace(*p.LicenseNumber)
	}
}

// TokenPair bundles access and refresh tokens.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
