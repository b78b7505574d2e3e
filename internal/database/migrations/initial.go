package migrations

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/google/uuid"
)

// The structs below are frozen copies of the models at the time this
// migration was written. Do not update them when the models change,
// add a new migration instead.

type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	Base
	Email    string `gorm:"uniqueIndex"`
	FullName string
}

type Organization struct {
	Base
	OwnerID           uuid.UUID `gorm:"type:uuid;index"`
	Name              string
	Slug              string `gorm:"uniqueIndex"`
	LogoURL           string
	Address           string
	Email             string
	Website           string
	BillingCustomerID string
}

type Role struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_roles_org_name"`
	Name           string    `gorm:"uniqueIndex:idx_roles_org_name"`
	HierarchyLevel int
}

type RolePermission struct {
	RoleID         uuid.UUID `gorm:"type:uuid;primary_key"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index"`
	Permission     string    `gorm:"primary_key"`
}

type Member struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_members_org_user"`
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_members_org_user"`
	RoleID         uuid.UUID `gorm:"type:uuid;index"`
	IsOwner        bool
}

type Invitation struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_invitations_org_email"`
	Email          string    `gorm:"uniqueIndex:idx_invitations_org_email"`
	RoleID         uuid.UUID `gorm:"type:uuid;index"`
	InviteToken    string
	InvitedBy      uuid.UUID `gorm:"type:uuid"`
	ExpiresAt      time.Time
}

func addOrgTables() *gormigrate.Migration {
	migrationId := "20240601_0000"
	return CreateMigrationFromActions(migrationId,
		CreateTableAction(&User{}),
		CreateTableAction(&Organization{}),
		CreateTableAction(&Role{}),
		CreateTableAction(&RolePermission{}),
		CreateTableAction(&Member{}),
		CreateTableAction(&Invitation{}),
	)
}
