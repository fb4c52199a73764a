package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerBackup 手动触发一次数据库备份
func TriggerBackup(c *gin.Context) {
	record, err := backupService.Run()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "备份失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// GetBackupHistory 备份历史
func GetBackupHistory(c *gin.Context) {
	records, err := backupService.History()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询备份历史失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}
