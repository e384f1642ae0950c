package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nekowy/messy-protect-service/internal/config"
	"github.com/nekowy/messy-protect-service/internal/crypto"
	"github.com/nekowy/messy-protect-service/internal/database"
	"github.com/nekowy/messy-protect-service/internal/handlers"
	"github.com/nekowy/messy-protect-service/internal/models"
	"github.com/nekowy/messy-protect-service/internal/proxy"
	"github.com/nekowy/messy-protect-service/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testSecret    = "0123456789abcdef0123456789abcdef"
	testPluginKey = "plugin-shared-key"
	testVerifyKey = "verify-1"
)

func newTestApp(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))
	t.Cleanup(func() { sqlDB.Close() })
	database.DB = db

	cfg := &config.Config{
		DBSecret:          testSecret,
		MPAPIKey:          testPluginKey,
		VerificationKey:   testVerifyKey,
		ReputationTimeout: time.Second,
		CORSOrigins:       "*",
	}

	// Reputation stub that never flags anyone.
	reputation := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","proxy":false,"hosting":false}`)
	}))
	t.Cleanup(reputation.Close)
	cfg.ReputationURL = reputation.URL

	codec, err := crypto.NewCodec(cfg.DBSecret)
	require.NoError(t, err)

	gate := proxy.NewGate(proxy.NewSet(), cfg.ReputationURL, cfg.ReputationTimeout, reputation.Client())
	outbox := services.NewOutboxService(db, codec)
	accounts := services.NewAccountService(db, outbox)
	stats := services.NewStatsService(db, outbox)

	// ProxyHeader lets tests vary the client IP per request.
	app := fiber.New(fiber.Config{ProxyHeader: "X-Forwarded-For"})
	Setup(app, cfg, gate,
		handlers.NewAccountHandler(accounts),
		handlers.NewAdminHandler(cfg, accounts, stats),
		handlers.NewSyncHandler(cfg, outbox),
		handlers.NewHealthHandler(),
	)
	return app, cfg
}

func doJSON(t *testing.T, app *fiber.App, method, path, ip string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func TestEndToEndWhitelistFlow(t *testing.T) {
	app, _ := newTestApp(t)
	pluginHeaders := map[string]string{"mp-api-key": testPluginKey}

	// Register and capture the one-time password.
	status, body := doJSON(t, app, "POST", "/api/auth/register", "1.1.1.1",
		map[string]string{"username": "alice"}, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, body["success"])
	password, _ := body["password"].(string)
	require.Len(t, password, 16)

	// Login succeeds with that exact password; no nickname yet.
	status, body = doJSON(t, app, "POST", "/api/auth/login", "1.1.1.1",
		map[string]string{"username": "alice", "password": password}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
	assert.Nil(t, body["whitelistedNick"])

	// Bind a nickname.
	status, _ = doJSON(t, app, "POST", "/api/user/whitelist", "1.1.1.1",
		map[string]string{"username": "alice", "password": password, "nick": "AliceGG"}, nil)
	require.Equal(t, http.StatusOK, status)

	// The plugin polls and receives the decrypted task.
	status, body = doJSON(t, app, "GET", "/mpapi/tasks", "", nil, pluginHeaders)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, testVerifyKey, body["verify"])
	tasks, _ := body["tasks"].([]any)
	require.Len(t, tasks, 1)
	task := tasks[0].(map[string]any)
	assert.Equal(t, "whitelist", task["type"])
	assert.Equal(t, "add", task["action"])
	assert.Equal(t, "AliceGG", task["data"])
	taskID := int(task["id"].(float64))

	// Acknowledge; a retry of the same acknowledgement also succeeds.
	for i := 0; i < 2; i++ {
		status, body = doJSON(t, app, "GET", fmt.Sprintf("/mpapi/complete?task=%d", taskID), "", nil, pluginHeaders)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, body["success"])
	}

	status, body = doJSON(t, app, "GET", "/mpapi/tasks", "", nil, pluginHeaders)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["tasks"])

	// Admin bans alice; the outbox gains the compensating remove.
	status, _ = doJSON(t, app, "POST", "/api/admin/action", "9.9.9.9",
		map[string]string{"secret": testSecret, "action": "ban", "target": "alice"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, app, "GET", "/mpapi/tasks", "", nil, pluginHeaders)
	require.Equal(t, http.StatusOK, status)
	tasks, _ = body["tasks"].([]any)
	require.Len(t, tasks, 1)
	task = tasks[0].(map[string]any)
	assert.Equal(t, "remove", task["action"])
	assert.Equal(t, "AliceGG", task["data"])

	// Suspended login fails regardless of credential correctness.
	status, body = doJSON(t, app, "POST", "/api/auth/login", "1.1.1.1",
		map[string]string{"username": "alice", "password": password}, nil)
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Access suspended", body["error"])
}

func TestRegister_SecondAccountSameIP(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "POST", "/api/auth/register", "1.1.1.1",
		map[string]string{"username": "alice"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, "POST", "/api/auth/register", "1.1.1.1",
		map[string]string{"username": "bob"}, nil)
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Only 1 account per IP address allowed.", body["error"])
}

func TestPluginAuth(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/mpapi/tasks", "", nil, nil)
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Invalid API Key", body["error"])

	status, _ = doJSON(t, app, "GET", "/mpapi/tasks", "", nil,
		map[string]string{"mp-api-key": "wrong"})
	require.Equal(t, http.StatusForbidden, status)
}

func TestComplete_InvalidID(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/mpapi/complete?task=abc", "", nil,
		map[string]string{"mp-api-key": testPluginKey})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID", body["error"])
	assert.Equal(t, testVerifyKey, body["verify"])
}

func TestAdminCheck(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/api/admin/check", "1.1.1.1",
		map[string]string{"secret": testSecret}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["admin"])

	status, _ = doJSON(t, app, "POST", "/api/admin/check", "1.1.1.1",
		map[string]string{"secret": "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminStats(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "GET", "/api/admin/stats", "1.1.1.1", nil, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, "POST", "/api/auth/register", "1.1.1.1",
		map[string]string{"username": "alice"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, app, "GET", "/api/admin/stats", "1.1.1.1", nil,
		map[string]string{"x-admin-secret": testSecret})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["users"])
	assert.EqualValues(t, 0, body["tasks"])
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/api/health", "1.1.1.1", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db"])
}
