package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/controller"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/messaging"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/metrics"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/store/memstore"
	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "router-test-key"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	t.Setenv("JWT_ACCESS_KEY", testKey)

	svc := messaging.NewService(messaging.Options{
		Backend: memstore.New(),
		Directory: memstore.NewDirectory(
			model.User{ID: "s1", Email: "sara@example.com", Name: "Sara", Role: model.RoleStudent},
			model.User{ID: "o1", Email: "omar@example.com", Name: "Omar", Role: model.RoleOwner},
			model.User{ID: "s2", Email: "sami@example.com", Name: "Sami", Role: model.RoleStudent},
		),
	})
	reg := metrics.NewRegistry()
	dispatcher := messaging.NewDispatcher(svc, metrics.NewActions(reg))

	app := fiber.New(fiber.Config{DisableStartupMessage: true, StrictRouting: true})
	Rest(app, controller.NewMessaging(dispatcher), reg)
	return app
}

func token(t *testing.T, meta utils.TokenMetadata) string {
	t.Helper()
	tok, err := utils.GenerateToken(meta, testKey, time.Hour)
	require.NoError(t, err)
	return tok
}

var (
	sara = utils.TokenMetadata{ID: "s1", Email: "sara@example.com", Name: "Sara", Role: model.RoleStudent}
	omar = utils.TokenMetadata{ID: "o1", Email: "omar@example.com", Name: "Omar", Role: model.RoleOwner}
	sami = utils.TokenMetadata{ID: "s2", Email: "sami@example.com", Name: "Sami", Role: model.RoleStudent}
)

func call(t *testing.T, app *fiber.App, method, path, bearer, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func TestMessagingEndpointScenario(t *testing.T) {
	app := setupApp(t)
	saraTok, omarTok := token(t, sara), token(t, omar)

	status, env := call(t, app, http.MethodPost, "/v1/messaging", saraTok, `{"action":"create_conversation","otherEmail":"omar@example.com"}`)
	require.Equal(t, http.StatusOK, status, env.Error)
	var conv model.ConversationSummary
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	assert.Equal(t, "o1", conv.OtherParticipant)

	status, env = call(t, app, http.MethodPost, "/v1/messaging", saraTok,
		`{"action":"send_message","conversationId":"`+conv.ID+`","text":"Is this room available?","senderId":"o1"}`)
	require.Equal(t, http.StatusOK, status, env.Error)
	var msg model.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	assert.Equal(t, "s1", msg.SenderID, "sender comes from the token")

	status, env = call(t, app, http.MethodPost, "/v1/messaging", omarTok, `{"action":"get_conversations"}`)
	require.Equal(t, http.StatusOK, status)
	var list []model.ConversationSummary
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].OtherParticipant)
	assert.Equal(t, 1, list[0].UnreadCount)

	status, env = call(t, app, http.MethodGet, "/v1/messaging/me", omarTok, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":"o1","email":"omar@example.com","name":"Omar","role":"owner","unread":1}`, string(env.Data))

	status, _ = call(t, app, http.MethodPost, "/v1/messaging", omarTok, `{"action":"mark_read","conversationId":"`+conv.ID+`"}`)
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, app, http.MethodPost, "/v1/messaging", token(t, sami), `{"action":"get_messages","conversationId":"`+conv.ID+`"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "not found: conversation", env.Error)
}

func TestMessagingEndpointErrors(t *testing.T) {
	app := setupApp(t)
	saraTok := token(t, sara)

	status, env := call(t, app, http.MethodPost, "/v1/messaging", "", `{"action":"get_conversations"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	status, _ = call(t, app, http.MethodPost, "/v1/messaging", "garbage", `{"action":"get_conversations"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	pending := token(t, utils.TokenMetadata{ID: "s1", Role: model.RoleStudent, Otp: true})
	status, env = call(t, app, http.MethodPost, "/v1/messaging", pending, `{"action":"get_conversations"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "2FA required", env.Error)

	noRole := token(t, utils.TokenMetadata{ID: "s1"})
	status, _ = call(t, app, http.MethodPost, "/v1/messaging", noRole, `{"action":"get_conversations"}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = call(t, app, http.MethodPost, "/v1/messaging", saraTok, `{"action":"send_message","conversationId":"c1","text":""}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "invalid argument")

	status, _ = call(t, app, http.MethodPost, "/v1/messaging", saraTok, `{"action":"unknown"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOutOfRangePageIsRejected(t *testing.T) {
	app := setupApp(t)
	saraTok := token(t, sara)

	status, env := call(t, app, http.MethodPost, "/v1/messaging", saraTok, `{"action":"create_conversation","otherUserId":"o1"}`)
	require.Equal(t, http.StatusOK, status, env.Error)
	var conv model.ConversationSummary
	require.NoError(t, json.Unmarshal(env.Data, &conv))
	call(t, app, http.MethodPost, "/v1/messaging", saraTok, `{"action":"send_message","conversationId":"`+conv.ID+`","text":"hello"}`)

	status, env = call(t, app, http.MethodPost, "/v1/messaging", saraTok,
		`{"action":"get_messages","conversationId":"`+conv.ID+`","page":100000000000000000,"pageSize":100}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid argument: page is out of range", env.Error)

	status, _ = call(t, app, http.MethodPost, "/v1/messaging", saraTok, `{"action":"get_messages","conversationId":"`+conv.ID+`"}`)
	assert.Equal(t, http.StatusOK, status)
}

func TestHealthAndMetrics(t *testing.T) {
	app := setupApp(t)

	status, env := call(t, app, http.MethodGet, "/v1/health", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"backend":"memory"}`, string(env.Data))

	call(t, app, http.MethodPost, "/v1/messaging", token(t, sara), `{"action":"get_unread_count"}`)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `messaging_actions_total{action="get_unread_count",outcome="ok"} 1`)
}
