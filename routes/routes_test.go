package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/tutor_live/database"
	"github.com/anjiri1684/tutor_live/handlers"
	"github.com/anjiri1684/tutor_live/models"
	"github.com/anjiri1684/tutor_live/services"
	"github.com/anjiri1684/tutor_live/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

const testSecret = "routes-test-secret"

type testAPI struct {
	app *fiber.App
	h   *handlers.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	db, err := database.Open("sqlite:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	slots := services.NewSlotStore(db)
	calls := services.NewCallService(db, slots, services.DefaultInvitationTTL)
	conversations := services.NewConversationStore(db)
	hub := websocket.NewHub(conversations, calls, websocket.Options{})
	calls.SetNotifier(hub)
	t.Cleanup(hub.Shutdown)

	h := handlers.New(slots, calls, conversations, hub, 5*time.Second)
	app := fiber.New()
	Register(app, h)
	return &testAPI{app: app, h: h}
}

func token(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": id.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// do sends a request and decodes the JSON response into out when non-nil.
func (a *testAPI) do(t *testing.T, method, path, tok string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestSlotLifecycle(t *testing.T) {
	api := newTestAPI(t)
	tutor, student, other := uuid.New(), uuid.New(), uuid.New()
	tutorTok := token(t, tutor, "teacher")
	studentTok := token(t, student, "student")
	otherTok := token(t, other, "student")
	course := uuid.New()

	start := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	publish := fiber.Map{"course_id": course.String(), "start_time": start, "end_time": start.Add(time.Hour)}

	assert.Equal(t, fiber.StatusForbidden, api.do(t, "POST", "/api/v1/tutor/slots", studentTok, publish, nil))
	assert.Equal(t, fiber.StatusBadRequest, api.do(t, "POST", "/api/v1/tutor/slots", tutorTok, fiber.Map{"course_id": "x"}, nil))

	var slot models.AvailabilitySlot
	require.Equal(t, fiber.StatusCreated, api.do(t, "POST", "/api/v1/tutor/slots", tutorTok, publish, &slot))
	assert.Equal(t, models.SlotOpen, slot.Status)
	assert.Empty(t, slot.BookedUsers)

	var listed []models.AvailabilitySlot
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", "/api/v1/courses/"+course.String()+"/slots", studentTok, nil, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, slot.ID, listed[0].ID)

	bookPath := "/api/v1/slots/" + slot.ID.String() + "/book"
	var booked models.AvailabilitySlot
	require.Equal(t, fiber.StatusOK, api.do(t, "POST", bookPath, studentTok, nil, &booked))
	assert.Equal(t, models.SlotBooked, booked.Status)
	assert.Equal(t, []uuid.UUID{student}, booked.BookedUsers)

	assert.Equal(t, fiber.StatusConflict, api.do(t, "POST", bookPath, otherTok, nil, nil))
	assert.Equal(t, fiber.StatusForbidden, api.do(t, "DELETE", bookPath, otherTok, nil, nil))
	assert.Equal(t, fiber.StatusConflict, api.do(t, "DELETE", "/api/v1/tutor/slots/"+slot.ID.String(), tutorTok, nil, nil))

	require.Equal(t, fiber.StatusOK, api.do(t, "DELETE", bookPath, studentTok, nil, nil))
	assert.Equal(t, fiber.StatusConflict, api.do(t, "DELETE", bookPath, studentTok, nil, nil))

	var mine []models.AvailabilitySlot
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", "/api/v1/tutor/slots", tutorTok, nil, &mine))
	assert.Len(t, mine, 1)

	assert.Equal(t, fiber.StatusForbidden, api.do(t, "DELETE", "/api/v1/tutor/slots/"+slot.ID.String(), token(t, uuid.New(), "tutor"), nil, nil))
	assert.Equal(t, fiber.StatusOK, api.do(t, "DELETE", "/api/v1/tutor/slots/"+slot.ID.String(), tutorTok, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, api.do(t, "POST", bookPath, studentTok, nil, nil))
}

func TestSlotRoutes_RequireAuth(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, fiber.StatusBadRequest, api.do(t, "GET", "/api/v1/courses/"+uuid.NewString()+"/slots", "", nil, nil))
	assert.Equal(t, fiber.StatusBadRequest, api.do(t, "GET", "/api/v1/courses/nope/slots", token(t, uuid.New(), "student"), nil, nil))
}

type pendingResponse struct {
	Invitation       *models.CallInvitation `json:"invitation"`
	PollAfterSeconds int                    `json:"poll_after_seconds"`
}

// Invitation handoff over HTTP, ended explicitly instead of waiting for the TTL.
func TestCallHandoff(t *testing.T) {
	api := newTestAPI(t)
	tutor, student, course := uuid.New(), uuid.New(), uuid.New()
	tutorTok := token(t, tutor, "tutor")
	studentTok := token(t, student, "student")
	pendingPath := "/api/v1/calls/pending?course_id=" + course.String()

	var pending pendingResponse
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", pendingPath, studentTok, nil, &pending))
	assert.Nil(t, pending.Invitation)
	assert.Equal(t, 5, pending.PollAfterSeconds)

	create := fiber.Map{"student_id": student.String(), "course_id": course.String()}
	assert.Equal(t, fiber.StatusForbidden, api.do(t, "POST", "/api/v1/tutor/calls", studentTok, create, nil))

	var inv models.CallInvitation
	require.Equal(t, fiber.StatusCreated, api.do(t, "POST", "/api/v1/tutor/calls", tutorTok, create, &inv))
	assert.Equal(t, student, inv.StudentID)

	require.Equal(t, fiber.StatusOK, api.do(t, "GET", pendingPath, studentTok, nil, &pending))
	require.NotNil(t, pending.Invitation)
	assert.Equal(t, inv.RoomID, pending.Invitation.RoomID)

	callPath := "/api/v1/calls/" + inv.RoomID
	assert.Equal(t, fiber.StatusOK, api.do(t, "GET", callPath, studentTok, nil, nil))
	assert.Equal(t, fiber.StatusForbidden, api.do(t, "GET", callPath, token(t, uuid.New(), "student"), nil, nil))
	assert.Equal(t, fiber.StatusForbidden, api.do(t, "POST", callPath+"/end", token(t, uuid.New(), "tutor"), nil, nil))

	require.Equal(t, fiber.StatusOK, api.do(t, "POST", callPath+"/end", tutorTok, nil, nil))
	assert.Equal(t, fiber.StatusOK, api.do(t, "POST", callPath+"/end", tutorTok, nil, nil))

	var gone map[string]string
	assert.Equal(t, fiber.StatusGone, api.do(t, "GET", callPath, studentTok, nil, &gone))
	assert.Equal(t, "invitation no longer available", gone["error"])

	pending = pendingResponse{}
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", pendingPath, studentTok, nil, &pending))
	assert.Nil(t, pending.Invitation)

	assert.Equal(t, fiber.StatusBadRequest, api.do(t, "GET", "/api/v1/calls/pending", studentTok, nil, nil))
}

type unreadResponse struct {
	Unread bool             `json:"unread"`
	Rooms  map[string]int64 `json:"rooms"`
}

// Messages stay unread until the tutor marks the room read.
func TestRooms(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	tutor, student := uuid.New(), uuid.New()
	tutorTok := token(t, tutor, "tutor")
	studentTok := token(t, student, "student")

	var room models.Conversation
	require.Equal(t, fiber.StatusOK, api.do(t, "POST", "/api/v1/rooms", studentTok, fiber.Map{"peer_id": tutor.String()}, &room))
	key := models.NewRoomKey(student, tutor)
	assert.Equal(t, key.String(), room.RoomID)
	assert.Equal(t, fiber.StatusBadRequest, api.do(t, "POST", "/api/v1/rooms", studentTok, fiber.Map{"peer_id": student.String()}, nil))

	_, err := api.h.Conversations.Append(ctx, key, student, models.RoleStudent, "hi")
	require.NoError(t, err)
	_, err = api.h.Conversations.Append(ctx, key, student, models.RoleStudent, "ping")
	require.NoError(t, err)

	var unread unreadResponse
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", "/api/v1/rooms/unread", studentTok, nil, &unread))
	assert.False(t, unread.Unread, "own messages never count")
	assert.Empty(t, unread.Rooms)

	unread = unreadResponse{}
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", "/api/v1/rooms/unread", tutorTok, nil, &unread))
	assert.True(t, unread.Unread)
	assert.Equal(t, map[string]int64{key.String(): 2}, unread.Rooms)

	var rooms []models.Conversation
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", "/api/v1/rooms", tutorTok, nil, &rooms))
	require.Len(t, rooms, 1)
	require.NotNil(t, rooms[0].LastMessage)
	assert.Equal(t, "ping", *rooms[0].LastMessage)

	var history []models.Message
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", "/api/v1/rooms/"+key.String()+"/messages", tutorTok, nil, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "ping", history[1].Content)

	assert.Equal(t, fiber.StatusForbidden, api.do(t, "GET", "/api/v1/rooms/"+key.String()+"/messages", token(t, uuid.New(), "tutor"), nil, nil))
	assert.Equal(t, fiber.StatusBadRequest, api.do(t, "GET", "/api/v1/rooms/not-a-room/messages", tutorTok, nil, nil))

	var marked map[string]int64
	require.Equal(t, fiber.StatusOK, api.do(t, "POST", "/api/v1/rooms/"+key.String()+"/read", tutorTok, nil, &marked))
	assert.Equal(t, int64(2), marked["marked"])

	unread = unreadResponse{}
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", "/api/v1/rooms/unread", tutorTok, nil, &unread))
	assert.False(t, unread.Unread)
	assert.Empty(t, unread.Rooms)
}

func TestWebsocketRouteRequiresUpgrade(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, fiber.StatusUpgradeRequired, api.do(t, "GET", "/api/v1/ws", "", nil, nil))
}

func TestHealthReportsHubStats(t *testing.T) {
	api := newTestAPI(t)

	var health struct {
		Status    string          `json:"status"`
		Websocket websocket.Stats `json:"websocket"`
	}
	require.Equal(t, fiber.StatusOK, api.do(t, "GET", "/health", "", nil, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, websocket.Stats{}, health.Websocket)
}
