package handlers

import (
	"strconv"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BookRide reserves one seat on a ride for the logged-in user. The pending
// booking insert and the seat decrement commit as one transaction; the
// decrement is conditional on seats remaining, so concurrent bookings on the
// same ride serialize on the row update and can never oversell.
func BookRide(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rideID, err := strconv.ParseUint(c.Param("rideId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride ID"})
			return
		}

		var ride models.RideRequest
		if err := db.First(&ride, rideID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}

		tx := db.Begin()
		defer func() {
			if r := recover(); r != nil {
				tx.Rollback()
			}
		}()

		var existing models.Booking
		if err := tx.Where("user_id = ? AND ride_id = ? AND status <> ?",
			userId, rideID, models.BookingStatusCancelled).First(&existing).Error; err == nil {
			tx.Rollback()
			c.JSON(409, gin.H{"error": "You already booked this ride"})
			return
		}

		booking := models.Booking{
			UserID: userId,
			RideID: uint(rideID),
			Status: models.BookingStatusPending,
		}
		if err := tx.Create(&booking).Error; err != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Error booking ride: " + err.Error()})
			return
		}

		// Atomic conditional decrement: zero rows affected means the ride
		// is full (or was never offered with seats) and the whole booking
		// rolls back.
		result := tx.Model(&models.DriverRide{}).
			Where("ride_id = ? AND available_seats > 0", rideID).
			UpdateColumn("available_seats", gorm.Expr("available_seats - 1"))
		if result.Error != nil {
			tx.Rollback()
			c.JSON(500, gin.H{"error": "Error booking ride: " + result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			tx.Rollback()
			c.JSON(409, gin.H{"error": "No seats available on this ride"})
			return
		}

		if err := tx.Commit().Error; err != nil {
			c.JSON(500, gin.H{"error": "Error booking ride: " + err.Error()})
			return
		}

		services.InvalidateOpenRides(c.Request.Context())

		var driverRide models.DriverRide
		seatsRemaining := 0
		if err := db.Where("ride_id = ?", rideID).First(&driverRide).Error; err == nil {
			seatsRemaining = driverRide.AvailableSeats
		}

		hub.SendBookingReceived(ride.UserID, services.BookingReceived{
			RideID:         uint(rideID),
			BookingID:      booking.ID,
			PassengerID:    userId,
			PassengerName:  c.GetString("userName"),
			SeatsRemaining: seatsRemaining,
		})

		c.JSON(201, gin.H{
			"message": "Ride booked successfully!",
			"booking": gin.H{
				"id":     booking.ID,
				"rideId": booking.RideID,
				"status": booking.Status,
			},
		})
	}
}

// ConfirmBooking lets the ride owner confirm a passenger's pending booking.
// The seat was already reserved at booking time, so seats are untouched.
func ConfirmBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")

		rideNum, err := strconv.ParseUint(c.Param("rideNum"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride number"})
			return
		}
		bookerID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid user ID"})
			return
		}

		var ride models.RideRequest
		if err := db.First(&ride, rideNum).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}
		if ride.UserID != driverID {
			c.JSON(403, gin.H{"error": "Unauthorized action"})
			return
		}

		result := db.Model(&models.Booking{}).
			Where("ride_id = ? AND user_id = ? AND status = ?",
				rideNum, bookerID, models.BookingStatusPending).
			Update("status", models.BookingStatusConfirmed)
		if result.Error != nil {
			c.JSON(500, gin.H{"error": "Error confirming booking: " + result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(409, gin.H{"error": "No pending booking to confirm"})
			return
		}

		var booking models.Booking
		if err := db.Where("ride_id = ? AND user_id = ? AND status = ?",
			rideNum, bookerID, models.BookingStatusConfirmed).First(&booking).Error; err == nil {
			hub.SendBookingDecided(uint(bookerID), services.BookingDecided{
				RideID:    uint(rideNum),
				BookingID: booking.ID,
				Status:    string(models.BookingStatusConfirmed),
			})
		}

		c.JSON(200, gin.H{"message": "Booking confirmed.", "redirect": "/my_bookings"})
	}
}

// CancelBooking cancels a pending booking. Confirmed bookings are immutable.
// Only the passenger who booked or the ride owner may cancel.
func CancelBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionUser := c.GetUint("userId")

		rideNum, err := strconv.ParseUint(c.Param("rideNum"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid ride number"})
			return
		}
		bookerID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid user ID"})
			return
		}

		var ride models.RideRequest
		if err := db.First(&ride, rideNum).Error; err != nil {
			c.JSON(404, gin.H{"error": "Ride not found"})
			return
		}
		if sessionUser != uint(bookerID) && sessionUser != ride.UserID {
			c.JSON(403, gin.H{"error": "Unauthorized action"})
			return
		}

		var booking models.Booking
		if err := db.Where("ride_id = ? AND user_id = ?", rideNum, bookerID).
			Order("id DESC").First(&booking).Error; err != nil {
			c.JSON(409, gin.H{"error": "No booking to cancel"})
			return
		}
		if booking.Status == models.BookingStatusConfirmed {
			c.JSON(409, gin.H{"error": "Confirmed bookings cannot be cancelled"})
			return
		}

		// TODO: the seat is not returned to the pool on cancellation, so a
		// cancelled seat stays unsellable. Matches the current product
		// behavior; revisit once product decides whether cancellations free
		// the seat.
		if err := db.Model(&booking).
			Update("status", models.BookingStatusCancelled).Error; err != nil {
			c.JSON(500, gin.H{"error": "Error cancelling booking: " + err.Error()})
			return
		}

		hub.SendBookingDecided(uint(bookerID), services.BookingDecided{
			RideID:    uint(rideNum),
			BookingID: booking.ID,
			Status:    string(models.BookingStatusCancelled),
		})

		c.JSON(200, gin.H{"message": "Booking cancelled.", "redirect": "/my_bookings"})
	}
}

// PassengerBooking is one row of the dashboard's "your bookings" list.
type PassengerBooking struct {
	RideID            uint      `json:"rideId"`
	DepartureLocation string    `json:"departureLocation"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departureTime"`
	Status            string    `json:"status"`
}

// OfferedRide is one row of the dashboard's "your offers" list.
type OfferedRide struct {
	RideID            uint      `json:"rideId"`
	DepartureLocation string    `json:"departureLocation"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departureTime"`
	AvailableSeats    int       `json:"availableSeats"`
}

// Dashboard aggregates the caller's bookings (as passenger) and offered
// rides (as driver). Either read failing degrades to an empty list with a
// warning instead of aborting the page.
func Dashboard(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var warning string

		var bookings []PassengerBooking
		err := db.Table("bookings").
			Select(`bookings.ride_id,
				ride_requests.departure_location,
				ride_requests.destination,
				ride_requests.departure_time,
				bookings.status`).
			Joins("JOIN ride_requests ON ride_requests.id = bookings.ride_id").
			Where("bookings.user_id = ?", userId).
			Where("bookings.deleted_at IS NULL AND ride_requests.deleted_at IS NULL").
			Order("ride_requests.departure_time ASC").
			Scan(&bookings).Error
		if err != nil {
			bookings = []PassengerBooking{}
			warning = "Could not load dashboard info"
		}

		var offers []OfferedRide
		err = db.Table("ride_requests").
			Select(`ride_requests.id AS ride_id,
				ride_requests.departure_location,
				ride_requests.destination,
				ride_requests.departure_time,
				driver_rides.available_seats`).
			Joins("JOIN driver_rides ON driver_rides.ride_id = ride_requests.id").
			Where("ride_requests.user_id = ?", userId).
			Where("ride_requests.deleted_at IS NULL AND driver_rides.deleted_at IS NULL").
			Order("ride_requests.departure_time ASC").
			Scan(&offers).Error
		if err != nil {
			offers = []OfferedRide{}
			warning = "Could not load dashboard info"
		}

		if bookings == nil {
			bookings = []PassengerBooking{}
		}
		if offers == nil {
			offers = []OfferedRide{}
		}

		response := gin.H{"bookings": bookings, "offers": offers}
		if warning != "" {
			response["warning"] = warning
		}
		c.JSON(200, response)
	}
}

// IncomingBooking is a booking made on one of the caller's rides, joined
// with the booker's identity.
type IncomingBooking struct {
	RideID            uint      `json:"rideId"`
	DepartureLocation string    `json:"departureLocation"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departureTime"`
	BookerID          uint      `json:"bookerId"`
	BookerName        string    `json:"bookerName"`
	BookerEmail       string    `json:"bookerEmail"`
	BookingID         uint      `json:"bookingId"`
	Status            string    `json:"status"`
}

func incomingBookings(db *gorm.DB, driverID uint) ([]IncomingBooking, error) {
	var bookings []IncomingBooking
	err := db.Table("ride_requests").
		Select(`ride_requests.id AS ride_id,
			ride_requests.departure_location,
			ride_requests.destination,
			ride_requests.departure_time,
			users.id AS booker_id,
			users.name AS booker_name,
			users.email AS booker_email,
			bookings.id AS booking_id,
			bookings.status`).
		Joins("JOIN bookings ON bookings.ride_id = ride_requests.id").
		Joins("JOIN users ON users.id = bookings.user_id").
		Where("ride_requests.user_id = ?", driverID).
		Where("ride_requests.deleted_at IS NULL AND bookings.deleted_at IS NULL").
		Order("ride_requests.departure_time ASC").
		Scan(&bookings).Error
	if bookings == nil {
		bookings = []IncomingBooking{}
	}
	return bookings, err
}

// DashboardBookings lists booking requests on the caller's rides for
// review, including each booking's status.
func DashboardBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		bookings, err := incomingBookings(db, userId)
		if err != nil {
			c.JSON(200, gin.H{"bookings": []IncomingBooking{}, "warning": "Could not load bookings"})
			return
		}

		c.JSON(200, gin.H{"bookings": bookings})
	}
}

// MyBookings lists who booked the caller's rides.
func MyBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")

		bookings, err := incomingBookings(db, driverID)
		if err != nil {
			c.JSON(200, gin.H{"bookings": []IncomingBooking{}, "warning": "Could not load bookings"})
			return
		}

		c.JSON(200, gin.H{"bookings": bookings})
	}
}
