package database

import (
	"github.com/chachabrian/carpool-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.RideRequest{},
		&models.DriverRide{},
		&models.Booking{},
	)
	if err != nil {
		return err
	}

	// Postgres-only constraints. The handlers enforce both rules as well;
	// the database is the backstop under concurrent requests.
	if db.Dialector.Name() == "postgres" {
		// Seats can never go below zero, whatever the application does.
		db.Exec(`ALTER TABLE driver_rides DROP CONSTRAINT IF EXISTS driver_rides_seats_check`)
		if err := db.Exec(`ALTER TABLE driver_rides ADD CONSTRAINT driver_rides_seats_check CHECK (available_seats >= 0)`).Error; err != nil {
			return err
		}

		// At most one active booking per (user, ride). Cancelled bookings
		// don't count, so a passenger can rebook after cancelling.
		if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_user_ride
			ON bookings (user_id, ride_id)
			WHERE status <> 'cancelled' AND deleted_at IS NULL`).Error; err != nil {
			return err
		}
	}

	return nil
}
