package dao

import "gorm.io/gorm"

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&Account{},
		&Artwork{},
		&Vote{},
		&Donation{},
		&Event{},
		&EventRegistration{},
		&Enforcement{},
		&Appeal{},
	)
}

// DropTables removes every table InitTables creates.
func DropTables(db *gorm.DB) error {
	return db.Migrator().DropTable(
		&Appeal{},
		&Enforcement{},
		&EventRegistration{},
		&Event{},
		&Donation{},
		&Vote{},
		&Artwork{},
		&Account{},
	)
}
