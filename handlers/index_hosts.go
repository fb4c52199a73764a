package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jtrag/namebench-appengine/database"
	"github.com/jtrag/namebench-appengine/models"
)

// ListIndexHosts 客户端跑基准测试前下载的索引记录清单。
// 线上客户端约定的格式：[[record_type, record_name], ...]
func ListIndexHosts(c *gin.Context) {
	var hosts []models.IndexHost
	if err := database.DB.Where("listed = ?", true).Find(&hosts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to load index hosts",
		})
		return
	}

	out := make([][]string, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, []string{h.RecordType, h.RecordName})
	}
	c.JSON(http.StatusOK, out)
}
