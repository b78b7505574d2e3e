package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
)

// New returns the ordered list of schema migrations. For help writing
// migration steps, see the gorm documentation on migrations:
// https://gorm.io/docs/migration.html
func New() *Migrations {
	return &Migrations{
		GormOptions: &gormigrate.Options{
			TableName:      "apiserver_migrations",
			IDColumnName:   "id",
			IDColumnSize:   40,
			UseTransaction: false,
		},
		Migrations: []*gormigrate.Migration{
			addOrgTables(),
		},
	}
}
