package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	JWTSecret  string
	DBPath     string

	// 提交上榜（listed）策略
	MinQueryCount     int
	MinServerCount    int
	ListingDeltaHours int

	// 国家聚合报表
	CountryCacheTTL   time.Duration
	CountryFetchLimit int

	// 提交接口限流（每分钟每 IP）
	SubmitRatePerMinute int

	// 定时维护任务（cron 表达式，留空则关闭）
	BackupCron  string
	CleanupCron string
}

var config *Config

// GetConfig 获取配置
func GetConfig() *Config {
	if config == nil {
		// 本地开发时从 .env 加载，线上环境直接使用环境变量
		_ = godotenv.Load()

		config = &Config{
			ServerPort:          getEnv("SERVER_PORT", "3001"),
			JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			DBPath:              getEnv("DB_PATH", "/app/data/results.db"),
			MinQueryCount:       getEnvInt("MIN_QUERY_COUNT", 75),
			MinServerCount:      getEnvInt("MIN_SERVER_COUNT", 7),
			ListingDeltaHours:   getEnvInt("LISTING_DELTA_HOURS", 8),
			CountryCacheTTL:     time.Duration(getEnvInt("COUNTRY_CACHE_TTL_MINUTES", 120)) * time.Minute,
			CountryFetchLimit:   getEnvInt("COUNTRY_FETCH_LIMIT", 250),
			SubmitRatePerMinute: getEnvInt("SUBMIT_RATE_PER_MINUTE", 10),
			BackupCron:          getEnv("BACKUP_CRON", ""),
			CleanupCron:         getEnv("CLEANUP_CRON", ""),
		}

		log.Printf("Config loaded - ServerPort: %s, DBPath: %s", config.ServerPort, config.DBPath)
	}
	return config
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("%s 配置错误，使用默认值 %d: %v", key, defaultValue, err)
		return defaultValue
	}
	return n
}
