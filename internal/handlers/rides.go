package handlers

import (
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Landing serves the index payload
func Landing() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Carpool ride-sharing API",
			"rides":   "/rides",
			"login":   "/login",
		})
	}
}

// OpenRide is one row of the public ride catalog: the ride request joined
// with its owner and the driver-side seat details.
type OpenRide struct {
	RideID            uint      `json:"rideId"`
	DepartureLocation string    `json:"departureLocation"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departureTime"`
	Notes             string    `json:"notes"`
	DriverName        string    `json:"driverName"`
	CarDetails        string    `json:"carDetails"`
	Price             float64   `json:"price"`
	AvailableSeats    int       `json:"availableSeats"`
}

// GetOpenRides lists all rides that still have seats, soonest departure
// first. Catalog reads degrade to an empty list instead of failing the page.
func GetOpenRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cached, ok := services.GetCachedOpenRides(c.Request.Context()); ok {
			c.JSON(200, gin.H{"rides": cached})
			return
		}

		var rides []OpenRide
		err := db.Table("ride_requests").
			Select(`ride_requests.id AS ride_id,
				ride_requests.departure_location,
				ride_requests.destination,
				ride_requests.departure_time,
				ride_requests.notes,
				users.name AS driver_name,
				driver_rides.car_details,
				driver_rides.price,
				driver_rides.available_seats`).
			Joins("JOIN users ON users.id = ride_requests.user_id").
			Joins("JOIN driver_rides ON driver_rides.ride_id = ride_requests.id").
			Where("driver_rides.available_seats > 0").
			Where("ride_requests.deleted_at IS NULL AND driver_rides.deleted_at IS NULL").
			Order("ride_requests.departure_time ASC").
			Scan(&rides).Error
		if err != nil {
			c.JSON(200, gin.H{"rides": []OpenRide{}, "warning": "Could not load rides, please try again later"})
			return
		}

		if rides == nil {
			rides = []OpenRide{}
		}
		// Cache trouble never fails the listing
		_ = services.CacheOpenRides(c.Request.Context(), rides)

		c.JSON(200, gin.H{"rides": rides})
	}
}

type OfferRideInput struct {
	Departure     string    `json:"departure" binding:"required"`
	Destination   string    `json:"destination" binding:"required"`
	DepartureTime time.Time `json:"departureTime" binding:"required"`
	Seats         int       `json:"seats" binding:"required,min=1"`
	CarDetails    string    `json:"carDetails" binding:"required"`
	Price         float64   `json:"price" binding:"required"`
	Notes         string    `json:"notes"`
}

// OfferForm describes the offer payload for clients that GET the route.
func OfferForm() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"action": "/offer",
			"method": "POST",
			"fields": []string{"departure", "destination", "departureTime", "seats", "carDetails", "price", "notes"},
		})
	}
}

// OfferRide creates a ride request together with its driver-seat record.
// The two inserts commit as one transaction or not at all.
func OfferRide(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input OfferRideInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.DepartureTime.Before(time.Now()) {
			c.JSON(400, gin.H{"error": "Departure time must be in the future"})
			return
		}

		ride := models.RideRequest{
			UserID:            userId,
			DepartureLocation: input.Departure,
			Destination:       input.Destination,
			DepartureTime:     input.DepartureTime,
			Notes:             input.Notes,
			IsDriver:          true,
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		if err := tx.Create(&ride).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Error offering ride: " + err.Error()})
			return
		}

		driverRide := models.DriverRide{
			RideID:         ride.ID,
			AvailableSeats: input.Seats,
			CarDetails:     input.CarDetails,
			Price:          input.Price,
		}
		if err := tx.Create(&driverRide).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Error offering ride: " + err.Error()})
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Error offering ride: " + err.Error()})
			return
		}

		services.InvalidateOpenRides(c.Request.Context())

		c.JSON(201, gin.H{
			"message": "Ride offered successfully!",
			"ride": gin.H{
				"rideId":            ride.ID,
				"departureLocation": ride.DepartureLocation,
				"destination":       ride.Destination,
				"departureTime":     ride.DepartureTime,
				"availableSeats":    driverRide.AvailableSeats,
				"carDetails":        driverRide.CarDetails,
				"price":             driverRide.Price,
			},
		})
	}
}
