package models

import (
	"time"

	"gorm.io/gorm"
)

// RideRequest is a posted ride. Its ID doubles as the ride number used in
// URLs and bookings. When offered by a driver it is paired 1:1 with a
// DriverRide row holding the seat and car details.
type RideRequest struct {
	gorm.Model
	UserID            uint        `json:"userId" gorm:"not null"`
	User              User        `json:"user"`
	DepartureLocation string      `json:"departureLocation" gorm:"not null"`
	Destination       string      `json:"destination" gorm:"not null"`
	DepartureTime     time.Time   `json:"departureTime" gorm:"not null"`
	Notes             string      `json:"notes"`
	IsDriver          bool        `json:"isDriver" gorm:"column:is_driver;not null;default:false"`
	DriverRide        *DriverRide `json:"driverRide" gorm:"foreignKey:RideID"`
}

type DriverRide struct {
	gorm.Model
	RideID         uint    `json:"rideId" gorm:"uniqueIndex;not null"`
	AvailableSeats int     `json:"availableSeats" gorm:"not null"`
	CarDetails     string  `json:"carDetails"`
	Price          float64 `json:"price" gorm:"not null"`
}
