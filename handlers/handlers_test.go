package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jtrag/namebench-appengine/database"
	"github.com/jtrag/namebench-appengine/models"
	"github.com/jtrag/namebench-appengine/services"
)

// setupTestDB 独立内存库，并指到全局 database.DB 上
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	return db
}

// setupRouter 只挂公开路由，够覆盖页面和上报接口
func setupRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	InitCountryHandler(services.NewCountryReportService(db))
	InitTaskHandlers(services.NewCleanupService(db))

	r := gin.New()
	r.LoadHTMLGlob("../templates/*.html")
	r.GET("/", Index)
	r.GET("/id/:id", LookupByID)
	r.GET("/ns/:ip", NameServerByIP)
	r.GET("/country/:code", CountryReport)
	r.GET("/index_hosts", ListIndexHosts)
	r.POST("/submit", SubmitResults)
	return r
}

func floatPtr(v float64) *float64 {
	return &v
}

// submitPayload 7 台服务器、足额查询数的合法载荷
func submitPayload() *models.SubmitPayload {
	payload := &models.SubmitPayload{
		Config: &models.PayloadConfig{
			QueryCount: 100,
			RunCount:   2,
			Platform:   []string{"Linux", "5.15"},
			Python:     []int{2, 7, 18},
			Version:    "1.3.1",
		},
		Geodata: &models.PayloadGeodata{
			City:        "Hamburg",
			CountryName: "Germany",
			CountryCode: "de",
		},
		NameServers: []models.PayloadNameServer{
			{
				IP: "192.0.2.53", Name: "Current ISP",
				IsReference: true, Position: 4,
				Averages:  []*float64{floatPtr(30), floatPtr(34)},
				Min:       12,
				Durations: [][]float64{{28, 32}, {30, 38}},
			},
			{
				IP: "8.8.8.8", Name: "Google Public DNS", IsGlobal: true,
				Position: 0, SysPosition: 2,
				Averages:  []*float64{floatPtr(20), floatPtr(22)},
				Min:       8,
				Durations: [][]float64{{18, 22}, {20, 24}},
			},
		},
	}
	for i := 0; i < 5; i++ {
		avg := 40 + float64(i)*5
		payload.NameServers = append(payload.NameServers, models.PayloadNameServer{
			IP: fmt.Sprintf("198.51.100.%d", i+1), Name: fmt.Sprintf("Resolver %d", i+1),
			IsRegional: true, Position: i + 1, SysPosition: -1,
			Averages:  []*float64{floatPtr(avg), floatPtr(avg + 2)},
			Min:       avg - 10,
			Durations: [][]float64{{avg, avg + 1}, {avg + 2, avg + 3}},
		})
	}
	return payload
}

// postSubmit 按客户端约定以表单提交结果
func postSubmit(t *testing.T, r *gin.Engine, remoteAddr string, payload *models.SubmitPayload, dupeID, hidden string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	form := url.Values{}
	form.Set("data", string(data))
	form.Set("duplicate_check", dupeID)
	if hidden != "" {
		form.Set("hidden", hidden)
	}

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = remoteAddr

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
