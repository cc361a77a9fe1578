package repository

import (
	"gorm.io/gorm"

	"github.com/inboxpilot/warmstack/internal/models"
)

type Repositories struct {
	DomainRepository        DomainRepository
	PlacementTestRepository PlacementTestRepository
	TestSummaryRepository   TestSummaryRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DomainRepository:        NewDomainRepository(db),
		PlacementTestRepository: NewPlacementTestRepository(db),
		TestSummaryRepository:   NewTestSummaryRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Domain{},
		&models.PlacementTest{},
		&models.TestEmailOutcome{},
		&models.TestSummary{},
		&models.DomainReputation{},
	)
}
