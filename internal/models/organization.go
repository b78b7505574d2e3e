package models

import (
	"github.com/google/uuid"
)

// Organization is a tenant. It owns its roles, members and invitations.
type Organization struct {
	Base
	OwnerID           uuid.UUID     `gorm:"type:uuid;index" json:"owner_id" example:"aa22666c-0f57-45cb-a449-16efecc04f2e"`
	Name              string        `json:"name" example:"Acme Rockets"`
	Slug              string        `gorm:"uniqueIndex" json:"slug" example:"acme-rockets"`
	LogoURL           string        `json:"logo_url,omitempty"`
	Address           string        `json:"address,omitempty"`
	Email             string        `json:"email,omitempty"`
	Website           string        `json:"website,omitempty"`
	BillingCustomerID string        `json:"billing_customer_id,omitempty"`
	Roles             []*Role       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Members           []*Member     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Invitations       []*Invitation `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// AddOrganization is the request body to create an Organization
type AddOrganization struct {
	Name    string `json:"name" example:"Acme Rockets"`
	Slug    string `json:"slug" example:"acme-rockets"`
	LogoURL string `json:"logo_url,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// PatchOrganization is the request body to update organization settings.
// Nil fields are left unchanged.
type PatchOrganization struct {
	Name    *string `json:"name,omitempty"`
	LogoURL *string `json:"logo_url,omitempty"`
	Address *string `json:"address,omitempty"`
	Email   *string `json:"email,omitempty"`
	Website *string `json:"website,omitempty"`
}
