package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jtrag/namebench-appengine/middleware"
	"github.com/jtrag/namebench-appengine/models"
	"github.com/jtrag/namebench-appengine/services"
)

// setupAdminRouter 带认证的管理接口路由
func setupAdminRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	InitTaskHandlers(services.NewCleanupService(db))

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/login", Login)
	api.POST("/auth/register", Register)

	admin := api.Group("", middleware.AuthMiddleware(), middleware.AdminRequired())
	admin.POST("/tasks/clear_dupes", ClearDuplicates)
	admin.POST("/tasks/import_index_hosts", ImportIndexHosts)
	return r
}

func postJSON(r http.Handler, path, token string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// registerAndLogin 注册并登录，返回 JWT
func registerAndLogin(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	w := postJSON(r, "/api/auth/register", "", gin.H{
		"username": username,
		"password": "secret123",
		"email":    username + "@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/auth/login", "", gin.H{
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	return body.Data.Token
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	db := setupTestDB(t)
	r := setupAdminRouter(t, db)

	w := postJSON(r, "/api/auth/register", "", gin.H{
		"username": "first",
		"password": "secret123",
		"email":    "first@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(r, "/api/auth/register", "", gin.H{
		"username": "second",
		"password": "secret123",
		"email":    "second@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var first, second models.User
	require.NoError(t, db.Where("username = ?", "first").First(&first).Error)
	require.NoError(t, db.Where("username = ?", "second").First(&second).Error)
	assert.Equal(t, "admin", first.Role)
	assert.Equal(t, "user", second.Role)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	r := setupAdminRouter(t, db)

	registerAndLogin(t, r, "admin")
	w := postJSON(r, "/api/auth/register", "", gin.H{
		"username": "admin",
		"password": "secret123",
		"email":    "other@example.com",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	db := setupTestDB(t)
	r := setupAdminRouter(t, db)

	registerAndLogin(t, r, "admin")
	w := postJSON(r, "/api/auth/login", "", gin.H{
		"username": "admin",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	db := setupTestDB(t)
	r := setupAdminRouter(t, db)

	w := postJSON(r, "/api/tasks/clear_dupes", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/api/tasks/clear_dupes", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	db := setupTestDB(t)
	r := setupAdminRouter(t, db)

	registerAndLogin(t, r, "admin")
	token := registerAndLogin(t, r, "mortal")

	w := postJSON(r, "/api/tasks/clear_dupes", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestClearDuplicatesEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r := setupAdminRouter(t, db)
	token := registerAndLogin(t, r, "admin")

	for _, sub := range []models.Submission{
		{DupeCheckID: "run-1", ClassC: "203.0.113", Listed: true},
		{DupeCheckID: "run-1", ClassC: "203.0.113", Listed: true},
	} {
		require.NoError(t, db.Create(&sub).Error)
	}

	w := postJSON(r, "/api/tasks/clear_dupes", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(1), body["unlisted"])
}

func TestImportIndexHostsEndpoint(t *testing.T) {
	db := setupTestDB(t)
	r := setupAdminRouter(t, db)
	token := registerAndLogin(t, r, "admin")

	w := postJSON(r, "/api/tasks/import_index_hosts", token, []gin.H{
		{"record_type": "A", "record_name": "www.example.com", "listed": true},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeJSON(t, w)["imported"])

	var count int64
	require.NoError(t, db.Model(&models.IndexHost{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestImportIndexHostsEmptyList(t *testing.T) {
	db := setupTestDB(t)
	r := setupAdminRouter(t, db)
	token := registerAndLogin(t, r, "admin")

	w := postJSON(r, "/api/tasks/import_index_hosts", token, []gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
