package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOfferRideCreatesRequestAndDriverRide(t *testing.T) {
	r, db := newTestServer(t)
	token, userID := signUp(t, r, "Dan", "dan@example.com", "secret123")

	rideID := offerRide(t, r, token, 3)

	var ride models.RideRequest
	require.NoError(t, db.First(&ride, rideID).Error)
	assert.Equal(t, userID, ride.UserID)
	assert.True(t, ride.IsDriver)

	var driverRide models.DriverRide
	require.NoError(t, db.Where("ride_id = ?", rideID).First(&driverRide).Error)
	assert.Equal(t, 3, driverRide.AvailableSeats)
	assert.Equal(t, "Blue Toyota Noah", driverRide.CarDetails)
}

func TestOfferRideRollsBackWhenSeatInsertFails(t *testing.T) {
	r, db := newTestServer(t)
	token, _ := signUp(t, r, "Eve", "eve@example.com", "secret123")

	// With the seat table gone the second insert fails and the first must
	// not survive on its own.
	require.NoError(t, db.Migrator().DropTable(&models.DriverRide{}))

	w := doJSON(r, http.MethodPost, "/offer", token, gin.H{
		"departure":     "Kampala",
		"destination":   "Jinja",
		"departureTime": time.Now().Add(time.Hour).Format(time.RFC3339),
		"seats":         2,
		"carDetails":    "Red Subaru",
		"price":         20000.0,
	})
	assert.Equal(t, 500, w.Code)

	var count int64
	db.Model(&models.RideRequest{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestOfferRideRejectsPastDeparture(t *testing.T) {
	r, _ := newTestServer(t)
	token, _ := signUp(t, r, "Frank", "frank@example.com", "secret123")

	w := doJSON(r, http.MethodPost, "/offer", token, gin.H{
		"departure":     "Kampala",
		"destination":   "Mbarara",
		"departureTime": time.Now().Add(-time.Hour).Format(time.RFC3339),
		"seats":         2,
		"carDetails":    "Van",
		"price":         30000.0,
	})
	assert.Equal(t, 400, w.Code)
}

func TestOpenRidesListing(t *testing.T) {
	r, db := newTestServer(t)
	driverToken, _ := signUp(t, r, "Grace", "grace@example.com", "secret123")
	passengerToken, _ := signUp(t, r, "Henry", "henry@example.com", "secret123")

	// Two open rides with distinct departure times, created out of order.
	later := doJSON(r, http.MethodPost, "/offer", driverToken, gin.H{
		"departure":     "Kampala",
		"destination":   "Gulu",
		"departureTime": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
		"seats":         2,
		"carDetails":    "Bus",
		"price":         40000.0,
	})
	require.Equal(t, 201, later.Code)

	sooner := doJSON(r, http.MethodPost, "/offer", driverToken, gin.H{
		"departure":     "Kampala",
		"destination":   "Entebbe",
		"departureTime": time.Now().Add(12 * time.Hour).Format(time.RFC3339),
		"seats":         1,
		"carDetails":    "Sedan",
		"price":         10000.0,
	})
	require.Equal(t, 201, sooner.Code)

	w := doJSON(r, http.MethodGet, "/rides", "", nil)
	require.Equal(t, 200, w.Code)

	body := decodeBody(t, w)
	rides := body["rides"].([]interface{})
	require.Len(t, rides, 2)

	// Ascending by departure time, with the joined owner and seat data.
	first := rides[0].(map[string]interface{})
	assert.Equal(t, "Entebbe", first["destination"])
	assert.Equal(t, "Grace", first["driverName"])
	assert.Equal(t, float64(1), first["availableSeats"])

	// Booking out the single seat removes that ride from the catalog.
	soonerBody := decodeBody(t, sooner)
	soonerID := uint(soonerBody["ride"].(map[string]interface{})["rideId"].(float64))
	booked := doJSON(r, http.MethodPost, "/book_ride/"+itoa(soonerID), passengerToken, nil)
	require.Equal(t, 201, booked.Code)

	w = doJSON(r, http.MethodGet, "/rides", "", nil)
	require.Equal(t, 200, w.Code)
	body = decodeBody(t, w)
	rides = body["rides"].([]interface{})
	require.Len(t, rides, 1)
	assert.Equal(t, "Gulu", rides[0].(map[string]interface{})["destination"])

	var full models.DriverRide
	require.NoError(t, db.Where("ride_id = ?", soonerID).First(&full).Error)
	assert.Equal(t, 0, full.AvailableSeats)
}
