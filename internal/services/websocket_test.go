package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversBookingEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleWebSocket(hub, w, r, 7)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.GetConnectedClients() == 1
	}, time.Second, 10*time.Millisecond)

	hub.SendBookingReceived(7, BookingReceived{
		RideID:         1,
		BookingID:      2,
		PassengerID:    3,
		PassengerName:  "Wes",
		SeatsRemaining: 1,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "booking_received", msg.Type)

	data := msg.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["rideId"])
	assert.Equal(t, "Wes", data["passengerName"])

	// An event for another user must not reach this connection; the next
	// frame read is the event addressed to user 7.
	hub.SendBookingDecided(99, BookingDecided{RideID: 1, BookingID: 2, Status: "cancelled"})
	hub.SendBookingDecided(7, BookingDecided{RideID: 1, BookingID: 2, Status: "confirmed"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "booking_decided", msg.Type)
	assert.Equal(t, "confirmed", msg.Data.(map[string]interface{})["status"])
}
