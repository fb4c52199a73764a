package database

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jtrag/namebench-appengine/config"
	"github.com/jtrag/namebench-appengine/models"
)

var DB *gorm.DB

// InitDB 初始化数据库
func InitDB() {
	var err error

	dbPath := config.GetConfig().DBPath

	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Printf("Database initialized successfully at: %s", dbPath)
}

// Migrate 自动迁移数据库结构，测试用内存库时也会复用
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.NameServer{},
		&models.Submission{},
		&models.SubmissionConfig{},
		&models.SubmissionNameServer{},
		&models.RunResult{},
		&models.IndexHost{},
		&models.IndexResult{},
		&models.BackupRecord{},
	)
}
