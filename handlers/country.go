package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CountryReport 国家聚合页 /country/:code，结果带 2 小时读缓存
func CountryReport(c *gin.Context) {
	code := c.Param("code")

	summary, err := countryService.Summary(code)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "country.html", gin.H{
			"found":        false,
			"country_code": code,
		})
		return
	}

	c.HTML(http.StatusOK, "country.html", gin.H{
		"found":            true,
		"country_code":     summary.CountryCode,
		"country":          summary.Country,
		"count":            summary.Count,
		"last_update":      summary.LastUpdate,
		"nsdata":           summary.NameServers,
		"popular_primary":  summary.PopularPrimary,
		"distribution_url": summary.DistributionURL,
	})
}
