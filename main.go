package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/jtrag/namebench-appengine/config"
	"github.com/jtrag/namebench-appengine/database"
	"github.com/jtrag/namebench-appengine/handlers"
	"github.com/jtrag/namebench-appengine/middleware"
	"github.com/jtrag/namebench-appengine/services"
)

func main() {
	cfg := config.GetConfig()

	// 初始化数据库
	database.InitDB()

	// 创建 Gin 路由
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	// CORS 配置
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	r.LoadHTMLGlob("templates/*.html")

	// 备份存储（默认本地，可配 S3）
	storageCfg := config.LoadStorageConfig()
	if err := storageCfg.Validate(); err != nil {
		log.Fatalf("备份存储配置错误: %v", err)
	}
	var s3Service *services.S3Service
	if storageCfg.IsS3Enabled() {
		var err error
		s3Service, err = services.NewS3Service(storageCfg)
		if err != nil {
			log.Fatalf("创建S3客户端失败: %v", err)
		}
	}

	// 服务装配
	countryService := services.NewCountryReportService(database.DB)
	cleanupService := services.NewCleanupService(database.DB)
	backupService := services.NewBackupService(database.DB, storageCfg, s3Service)

	handlers.InitCountryHandler(countryService)
	handlers.InitTaskHandlers(cleanupService)
	handlers.InitBackupHandler(backupService)

	// 定时维护任务
	cronRunner := cron.New()
	if cfg.BackupCron != "" {
		if _, err := cronRunner.AddFunc(cfg.BackupCron, func() {
			if _, err := backupService.Run(); err != nil {
				log.Printf("scheduled backup failed: %v", err)
			}
		}); err != nil {
			log.Fatalf("BACKUP_CRON 配置错误: %v", err)
		}
	}
	if cfg.CleanupCron != "" {
		if _, err := cronRunner.AddFunc(cfg.CleanupCron, func() {
			if _, err := cleanupService.ClearDuplicateSubmissions(); err != nil {
				log.Printf("scheduled duplicate cleanup failed: %v", err)
			}
		}); err != nil {
			log.Fatalf("CLEANUP_CRON 配置错误: %v", err)
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	// 公开页面与客户端接口
	r.GET("/", handlers.Index)
	r.GET("/id/:id", handlers.LookupByID)
	r.GET("/ns/:ip", handlers.NameServerByIP)
	r.GET("/country/:code", handlers.CountryReport)
	r.GET("/index_hosts", handlers.ListIndexHosts)
	r.POST("/submit", middleware.RateLimit(cfg.SubmitRatePerMinute), handlers.SubmitResults)

	// 公开路由
	public := r.Group("/api")
	{
		public.POST("/login", handlers.Login)
		public.POST("/register", handlers.Register)
	}

	// 维护接口，需要管理员
	admin := r.Group("/api")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminRequired())
	{
		admin.POST("/tasks/clear_dupes", handlers.ClearDuplicates)
		admin.POST("/tasks/import_index_hosts", handlers.ImportIndexHosts)
		admin.POST("/backups", handlers.TriggerBackup)
		admin.GET("/backups", handlers.GetBackupHistory)
	}

	// 启动服务器
	port := cfg.ServerPort
	log.Printf("Server starting on port %s", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
