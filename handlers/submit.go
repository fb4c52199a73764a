package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jtrag/namebench-appengine/database"
	"github.com/jtrag/namebench-appengine/models"
	"github.com/jtrag/namebench-appengine/services"
)

// SubmitResults 接收客户端的基准测试结果。
// 表单字段：data＝JSON 载荷，duplicate_check＝客户端生成的去重标识，
// hidden＝真值时强制不公开。
// 响应是客户端约定的平铺格式：{state, url, notes}。
func SubmitResults(c *gin.Context) {
	raw := c.PostForm("data")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing form field: data",
		})
		return
	}

	var payload models.SubmitPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "malformed data payload: " + err.Error(),
		})
		return
	}

	dupeCheckID := c.PostForm("duplicate_check")
	hideValue := c.PostForm("hidden")
	hideRequested := hideValue != "" && hideValue != "False" && hideValue != "false" && hideValue != "0"

	svc := services.NewIngestService(database.DB)
	result, err := svc.Ingest(c.ClientIP(), dupeCheckID, hideRequested, &payload)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to store submission",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state": result.State,
		"url":   result.URL,
		"notes": result.Notes,
	})
}
