package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jtrag/namebench-appengine/database"
	"github.com/jtrag/namebench-appengine/models"
	"github.com/jtrag/namebench-appengine/services"
)

// 详情页展示的配置项
var shownConfigKeys = []string{
	"client_version",
	"python_version",
	"os_system",
	"timeout",
	"health_timeout",
	"health_thread_count",
	"benchmark_thread_count",
	"input_source",
}

// Index 首页：最近 10 条公开提交
func Index(c *gin.Context) {
	var recent []models.Submission
	if err := database.DB.
		Where("listed = ?", true).
		Order("timestamp desc").
		Limit(10).
		Find(&recent).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "index.html", gin.H{
			"error": "failed to load recent submissions",
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"recent_submissions": recent,
	})
}

// LookupByID 提交详情页 /id/:id
func LookupByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.HTML(http.StatusNotFound, "lookup.html", gin.H{"found": false})
		return
	}

	var submission models.Submission
	err = database.DB.
		Preload("Config").
		Preload("NameServers").
		Preload("NameServers.NameServer").
		Preload("NameServers.Results").
		First(&submission, uint(id)).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.HTML(http.StatusNotFound, "lookup.html", gin.H{"found": false, "id": id})
			return
		}
		c.HTML(http.StatusInternalServerError, "lookup.html", gin.H{"found": false, "id": id})
		return
	}

	byFastest := sortedByAverage(submission.NameServers)
	nearest := sortedByMinDuration(submission.NameServers)
	recommended := recommendedSet(byFastest, nearest)

	c.HTML(http.StatusOK, "lookup.html", gin.H{
		"found":                true,
		"id":                   id,
		"submission":           submission,
		"config":               configRows(submission.Config),
		"nameservers":          byFastest,
		"recommended":          recommended,
		"mean_duration_url":    meanDurationURL(byFastest),
		"min_duration_url":     minDurationURL(nearest),
		"distribution_url_200": distributionURL(submission.NameServers, 200),
		"distribution_url":     distributionURL(submission.NameServers, 3000),
	})
}

func sortedByAverage(rows []models.SubmissionNameServer) []models.SubmissionNameServer {
	out := make([]models.SubmissionNameServer, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OverallAverage < out[j].OverallAverage
	})
	return out
}

func sortedByMinDuration(rows []models.SubmissionNameServer) []models.SubmissionNameServer {
	out := make([]models.SubmissionNameServer, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DurationMin < out[j].DurationMin
	})
	return out
}

// recommendedSet 推荐集合：最快的一台加上就近的候选，IP 两两不同，
// 最多三台。跳过重复 IP 避免推荐三台几乎一样的。
func recommendedSet(byFastest, nearest []models.SubmissionNameServer) []models.SubmissionNameServer {
	var out []models.SubmissionNameServer
	seen := map[string]bool{}

	add := func(row models.SubmissionNameServer) {
		if len(out) >= 3 || seen[row.NameServer.IP] {
			return
		}
		seen[row.NameServer.IP] = true
		out = append(out, row)
	}

	if len(byFastest) > 0 {
		add(byFastest[0])
	}
	for _, row := range nearest {
		add(row)
	}
	return out
}

func configRows(cfg *models.SubmissionConfig) [][2]string {
	if cfg == nil {
		return nil
	}
	values := map[string]string{
		"client_version":         cfg.ClientVersion,
		"python_version":         cfg.PythonVersion,
		"os_system":              cfg.OSSystem,
		"timeout":                strconv.FormatFloat(cfg.Timeout, 'f', -1, 64),
		"health_timeout":         strconv.FormatFloat(cfg.HealthTimeout, 'f', -1, 64),
		"health_thread_count":    strconv.Itoa(cfg.HealthThreadCount),
		"benchmark_thread_count": strconv.Itoa(cfg.BenchmarkThreadCount),
		"input_source":           cfg.InputSource,
	}
	rows := make([][2]string, 0, len(shownConfigKeys))
	for _, key := range shownConfigKeys {
		rows = append(rows, [2]string{key, values[key]})
	}
	return rows
}

func meanDurationURL(rows []models.SubmissionNameServer) string {
	series := make([]services.ChartSeries, 0, len(rows))
	for _, row := range rows {
		values := make([]float64, 0, len(row.Averages))
		for _, v := range row.Averages {
			if v != nil {
				values = append(values, *v)
			}
		}
		series = append(series, services.ChartSeries{
			Name:   row.NameServer.DisplayName(),
			Values: values,
		})
	}
	return services.PerRunDurationBarGraph(series)
}

func minDurationURL(nearest []models.SubmissionNameServer) string {
	series := make([]services.ChartSeries, 0, len(nearest))
	for _, row := range nearest {
		series = append(series, services.ChartSeries{
			Name:   row.NameServer.DisplayName(),
			Values: []float64{row.DurationMin},
		})
	}
	return services.MinimumDurationBarGraph(series)
}

func distributionURL(rows []models.SubmissionNameServer, scale float64) string {
	series := make([]services.ChartSeries, 0, len(rows))
	for _, row := range rows {
		var all []float64
		for _, run := range row.Results {
			all = append(all, run.Durations...)
		}
		series = append(series, services.ChartSeries{
			Name:   row.NameServer.DisplayName(),
			Values: all,
		})
	}
	return services.DistributionLineGraph(series, scale)
}
