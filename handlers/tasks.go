package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jtrag/namebench-appengine/services"
)

// ClearDuplicates 维护任务：重复提交只保留最新一条上榜
func ClearDuplicates(c *gin.Context) {
	unlisted, err := cleanupService.ClearDuplicateSubmissions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "清理重复提交失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"unlisted": unlisted,
	})
}

// ImportIndexHosts 维护任务：批量导入索引记录
func ImportIndexHosts(c *gin.Context) {
	var hosts []services.IndexHostInput
	if err := c.ShouldBindJSON(&hosts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"error":   err.Error(),
		})
		return
	}
	if len(hosts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "导入列表为空",
		})
		return
	}

	imported, err := cleanupService.ImportIndexHosts(hosts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "导入索引记录失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imported": imported,
	})
}
