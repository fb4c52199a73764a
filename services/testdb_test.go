package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jtrag/namebench-appengine/database"
	"github.com/jtrag/namebench-appengine/models"
)

// newTestDB 每个测试一个独立的内存库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func floatPtr(v float64) *float64 {
	return &v
}

// testPayload 7 台服务器、足额查询数的合法载荷。
// 索引 0 是参照服务器（平均 32ms），索引 1 是全场第 0 名（平均 21ms）。
func testPayload() *models.SubmitPayload {
	payload := &models.SubmitPayload{
		Config: &models.PayloadConfig{
			QueryCount:           100,
			RunCount:             2,
			Platform:             []string{"Linux", "5.15"},
			Python:               []int{2, 7, 18},
			Version:              "1.3.1",
			BenchmarkThreadCount: 40,
			HealthThreadCount:    40,
			HealthTimeout:        3.75,
			Timeout:              3.5,
			InputSource:          "alexa",
		},
		Geodata: &models.PayloadGeodata{
			City:        "Hamburg",
			RegionName:  "Hamburg",
			CountryName: "Germany",
			CountryCode: "de",
		},
	}

	reference := models.PayloadNameServer{
		IP:          "192.0.2.53",
		Name:        "Current ISP",
		Hostname:    "resolver.isp.example",
		IsReference: true,
		SysPosition: 0,
		Position:    4,
		Averages:    []*float64{floatPtr(30), floatPtr(34)},
		Min:         12, Max: 220,
		Durations: [][]float64{{28, 32}, {30, 38}},
	}
	best := models.PayloadNameServer{
		IP:       "8.8.8.8",
		Name:     "Google Public DNS",
		Hostname: "dns.google",
		IsGlobal: true,
		Position: 0, SysPosition: 2,
		Averages: []*float64{floatPtr(20), floatPtr(22)},
		Min:      8, Max: 95,
		Durations: [][]float64{{18, 22}, {20, 24}},
		Index: []models.IndexCheckResult{
			{Host: "www.example.com", RecordType: "A", Duration: 15.5, AnswerCount: 1, TTL: 300, Response: "93.184.216.34"},
			{Host: "unknown.example.net", RecordType: "A", Duration: 9.1, AnswerCount: 1, TTL: 60, Response: "203.0.113.77"},
		},
	}
	payload.NameServers = append(payload.NameServers, reference, best)

	for i := 0; i < 5; i++ {
		avg := 40 + float64(i)*5
		payload.NameServers = append(payload.NameServers, models.PayloadNameServer{
			IP:          fmt.Sprintf("198.51.100.%d", i+1),
			Name:        fmt.Sprintf("Resolver %d", i+1),
			IsRegional:  true,
			Position:    i + 1,
			SysPosition: -1,
			Averages:    []*float64{floatPtr(avg), floatPtr(avg + 2)},
			Min:         avg - 10, Max: avg + 100,
			Durations: [][]float64{{avg, avg + 1}, {avg + 2, avg + 3}},
		})
	}
	return payload
}
