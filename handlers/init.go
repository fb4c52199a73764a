package handlers

import (
	"github.com/jtrag/namebench-appengine/services"
)

var (
	countryService *services.CountryReportService
	cleanupService *services.CleanupService
	backupService  *services.BackupService
)

// InitCountryHandler 注入国家聚合服务（持有跨请求的读缓存）
func InitCountryHandler(svc *services.CountryReportService) {
	countryService = svc
}

// InitTaskHandlers 注入维护任务服务
func InitTaskHandlers(svc *services.CleanupService) {
	cleanupService = svc
}

// InitBackupHandler 注入备份服务
func InitBackupHandler(svc *services.BackupService) {
	backupService = svc
}
