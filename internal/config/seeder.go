package config

import (
	"context"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"salonq/internal/adapters/persistence/models"
	"salonq/internal/adapters/persistence/repositories"
	"salonq/internal/core/domain"
)

const fallbackPriorityLimit = 3

// Seeder handles database seeding
type Seeder struct {
	db            *gorm.DB
	priorityLimit int
}

// NewSeeder creates a new seeder instance. priorityLimit is the daily priority
// quota given to seeded salons; zero or less falls back to 3.
func NewSeeder(db *gorm.DB, priorityLimit int) *Seeder {
	if priorityLimit <= 0 {
		priorityLimit = fallbackPriorityLimit
	}
	return &Seeder{db: db, priorityLimit: priorityLimit}
}

// Run seeds a demo salon when the salons table is empty.
// This is for development only.
func (s *Seeder) Run() error {
	var count int64
	if err := s.db.Model(&models.Salon{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug().Int64("salons", count).Msg("seed skipped, salons exist")
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		owner, err := seedUser(tx, "Demo Owner", "0800000001", domain.RoleOwner)
		if err != nil {
			return err
		}
		manager, err := seedUser(tx, "Demo Manager", "0800000002", domain.RoleCustomer)
		if err != nil {
			return err
		}
		barber, err := seedUser(tx, "Demo Barber", "0800000003", domain.RoleCustomer)
		if err != nil {
			return err
		}
		if _, err := seedUser(tx, "Demo Customer", "0800000004", domain.RoleCustomer); err != nil {
			return err
		}

		addr := "1 Demo Street"
		salon := &models.Salon{
			OwnerID:             owner.ID,
			Name:                "Demo Salon",
			Address:             &addr,
			IsActive:            true,
			IsOpen:              true,
			ActiveBarbers:       2,
			TotalBarbers:        2,
			AvgServiceTime:      20,
			MaxQueueSize:        50,
			PriorityLimitPerDay: s.priorityLimit,
		}
		if err := tx.Create(salon).Error; err != nil {
			return err
		}

		staff := []models.Staff{
			{SalonID: salon.ID, UserID: &manager.ID, Name: manager.Name, Role: domain.StaffRoleManager, IsActive: true, CommissionType: domain.CommissionPercentage, CommissionValue: 10},
			{SalonID: salon.ID, UserID: &barber.ID, Name: barber.Name, Role: domain.StaffRoleBarber, IsActive: true, CommissionType: domain.CommissionPercentage, CommissionValue: 40},
		}
		if err := tx.Create(&staff).Error; err != nil {
			return err
		}

		services := []models.SalonService{
			{SalonID: salon.ID, Name: "Haircut", Price: 200, Duration: 30, IsActive: true},
			{SalonID: salon.ID, Name: "Beard Trim", Price: 100, Duration: 15, IsActive: true},
			{SalonID: salon.ID, Name: "Hair Wash", Price: 80, Duration: 10, IsActive: true},
		}
		if err := tx.Create(&services).Error; err != nil {
			return err
		}

		log.Info().Uint("salon_id", salon.ID).Msg("demo salon seeded")
		return nil
	})
}

func seedUser(tx *gorm.DB, name, phone string, role domain.Role) (*models.User, error) {
	ctx := context.Background()
	users := repositories.NewUserRepository(tx)

	exists, err := users.ExistsByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if exists {
		return users.GetByPhone(ctx, phone)
	}

	user := &models.User{Name: name, Phone: &phone, Role: role, IsActive: true}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
