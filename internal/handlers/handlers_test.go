package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/chachabrian/carpool-backend/internal/database"
	"github.com/chachabrian/carpool-backend/internal/handlers"
	"github.com/chachabrian/carpool-backend/internal/middleware"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

// newTestServer builds the same route table as cmd/api against an in-memory
// SQLite database. A single connection keeps the database alive and
// serializes transactions the way Postgres row locking would.
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.RunMigrations(db))

	hub := services.NewHub()
	go hub.Run()

	r := gin.New()
	r.GET("/", handlers.Landing())
	r.GET("/register", handlers.RegisterForm())
	r.POST("/register", handlers.Register(db))
	r.GET("/login", handlers.LoginForm())
	r.POST("/login", handlers.Login(db))
	r.GET("/logout", handlers.Logout())
	r.GET("/rides", handlers.GetOpenRides(db))

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/offer", handlers.OfferForm())
		protected.POST("/offer", handlers.OfferRide(db))
		protected.POST("/book_ride/:rideId", handlers.BookRide(db, hub))
		protected.GET("/dashboard", handlers.Dashboard(db))
		protected.GET("/dashboard/bookings", handlers.DashboardBookings(db))
		protected.GET("/my_bookings", handlers.MyBookings(db))
		protected.POST("/confirm_booking/:rideNum/:userId", handlers.ConfirmBooking(db, hub))
		protected.POST("/cancel_booking/:rideNum/:userId", handlers.CancelBooking(db, hub))
		protected.GET("/profile", handlers.GetProfile(db))
	}

	return r, db
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// signUp registers a user and returns their session token and user id.
func signUp(t *testing.T, r *gin.Engine, name, email, password string) (string, uint) {
	t.Helper()

	w := doJSON(r, http.MethodPost, "/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": password,
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	body := decodeBody(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	user := body["user"].(map[string]interface{})
	return token, uint(user["id"].(float64))
}

// mustSignUp is signUp for callers that only need the token.
func mustSignUp(t *testing.T, r *gin.Engine, name, email string) string {
	t.Helper()
	token, _ := signUp(t, r, name, email, "secret123")
	return token
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}

// offerRide posts a ride offer and returns the new ride number.
func offerRide(t *testing.T, r *gin.Engine, token string, seats int) uint {
	t.Helper()

	w := doJSON(r, http.MethodPost, "/offer", token, gin.H{
		"departure":     "Kampala",
		"destination":   "Entebbe",
		"departureTime": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"seats":         seats,
		"carDetails":    "Blue Toyota Noah",
		"price":         15000.0,
	})
	require.Equal(t, 201, w.Code, w.Body.String())

	body := decodeBody(t, w)
	ride := body["ride"].(map[string]interface{})
	return uint(ride["rideId"].(float64))
}
