package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight-backend/internal/agent"
	"github.com/finsight/finsight-backend/internal/auth"
	"github.com/finsight/finsight-backend/internal/database"
	"github.com/finsight/finsight-backend/internal/memory"
	"github.com/finsight/finsight-backend/internal/services"
)

type cannedModel struct {
	completion string
}

func (m *cannedModel) Complete(_ context.Context, _ []agent.Message) (string, error) {
	return m.completion, nil
}

type noopTools struct{}

func (noopTools) Dispatch(_ context.Context, tool, _ string) string {
	return fmt.Sprintf("Error: Tool %s not recognized.", tool)
}

func newTestApp(t *testing.T, completion string) *fiber.App {
	t.Helper()
	return newTestAppWithModel(t, &cannedModel{completion: completion})
}

func newTestAppWithModel(t *testing.T, model agent.ModelClient) *fiber.App {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, database.ApplySchema(db))

	summarize := func(_ context.Context, _ string) (string, error) { return "", nil }
	store := memory.NewStore(db, summarize, memory.DefaultMaxTurns, nil)

	chatService := services.NewChatService(store, model, noopTools{}, "", 0, 0, nil)
	jwtService := auth.NewJWTService("test-secret", "finsight-test")

	app := fiber.New()
	SetupRoutes(app, store, chatService, jwtService, nil)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if resp.Body != nil {
		json.NewDecoder(resp.Body).Decode(&decoded)
	}
	return resp, decoded
}

func loginAs(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	creds := map[string]string{"username": username, "password": "pw-123456"}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, "Answer: ok")

	resp, body := doJSON(t, app, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterConflict(t *testing.T) {
	app := newTestApp(t, "Answer: ok")
	creds := map[string]string{"username": "alice", "password": "pw-123456"}

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Username already exists", body["error"])
}

func TestLoginRejectsBadPassword(t *testing.T) {
	app := newTestApp(t, "Answer: ok")
	doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "",
		map[string]string{"username": "alice", "password": "pw-123456"})

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "",
		map[string]string{"username": "alice", "password": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid username or password", body["error"])
}

func TestChatRequiresAuth(t *testing.T) {
	app := newTestApp(t, "Answer: ok")

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/chat", "",
		map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatTurn(t *testing.T) {
	app := newTestApp(t, "Answer: VCB is a Vietnamese bank.")
	token := loginAs(t, app, "alice")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/chat", token,
		map[string]string{"message": "What is VCB?"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "VCB is a Vietnamese bank.", body["answer"])
	assert.NotZero(t, body["conversation_id"])

	// The turn shows up in the conversation surface.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/conversations", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	convID := int64(body["conversation_id"].(float64))
	resp, msgBody := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%d/messages", convID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs, ok := msgBody["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestChatRejectsForeignConversation(t *testing.T) {
	app := newTestApp(t, "Answer: noted.")
	aliceToken := loginAs(t, app, "alice")
	bobToken := loginAs(t, app, "bob")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/chat", aliceToken,
		map[string]string{"message": "alice's private question"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	convID := int64(body["conversation_id"].(float64))

	resp, body = doJSON(t, app, http.MethodPost, "/api/v1/chat", bobToken,
		map[string]interface{}{"message": "bob intrudes", "conversation_id": convID})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Conversation not found", body["error"])

	// Alice's history is untouched by the rejected turn.
	resp, msgBody := doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%d/messages", convID), aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs, ok := msgBody["messages"].([]interface{})
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestConversationsIsolatedPerUser(t *testing.T) {
	app := newTestApp(t, "Answer: noted.")
	aliceToken := loginAs(t, app, "alice")
	bobToken := loginAs(t, app, "bob")

	resp, body := doJSON(t, app, http.MethodPost, "/api/v1/chat", aliceToken,
		map[string]string{"message": "alice's question"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	convID := int64(body["conversation_id"].(float64))

	resp, _ = doJSON(t, app, http.MethodGet,
		fmt.Sprintf("/api/v1/conversations/%d/messages", convID), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
