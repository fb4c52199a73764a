package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jtrag/namebench-appengine/database"
	"github.com/jtrag/namebench-appengine/models"
)

// NameServerByIP 服务器详情页 /ns/:ip
func NameServerByIP(c *gin.Context) {
	ip := c.Param("ip")

	var nameserver models.NameServer
	err := database.DB.Where("ip = ?", ip).First(&nameserver).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.HTML(http.StatusNotFound, "nameserver.html", gin.H{
				"found": false,
				"ip":    ip,
			})
			return
		}
		c.HTML(http.StatusInternalServerError, "nameserver.html", gin.H{
			"found": false,
			"ip":    ip,
		})
		return
	}

	// 该服务器最近出现的提交行，限 100 条
	var rows []models.SubmissionNameServer
	if err := database.DB.
		Where("name_server_id = ?", nameserver.ID).
		Order("id desc").
		Limit(100).
		Find(&rows).Error; err != nil {
		rows = nil
	}

	c.HTML(http.StatusOK, "nameserver.html", gin.H{
		"found":      true,
		"ip":         ip,
		"nameserver": nameserver,
		"rows":       rows,
	})
}
