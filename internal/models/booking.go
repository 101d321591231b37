package models

import (
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking reserves one seat on a ride for a passenger. A (user, ride) pair
// has at most one booking that is not cancelled; confirmed and cancelled
// are terminal states.
type Booking struct {
	gorm.Model
	UserID uint          `json:"userId" gorm:"not null"`
	User   User          `json:"user"`
	RideID uint          `json:"rideId" gorm:"not null"`
	Ride   RideRequest   `json:"ride" gorm:"foreignKey:RideID"`
	Status BookingStatus `json:"status" gorm:"not null;default:'pending'"`
}
