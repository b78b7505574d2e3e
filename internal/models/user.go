package models

// User is an account that can own organizations and hold memberships.
// Authentication is handled upstream; only the identity fields the
// engines need are stored here.
type User struct {
	Base
	Email    string `gorm:"uniqueIndex" json:"email" example:"jane@example.com"`
	FullName string `json:"full_name" example:"Jane Doe"`
}
