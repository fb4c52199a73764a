package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/jtrag/namebench-appengine/config"
	"github.com/jtrag/namebench-appengine/models"
)

// 聚合时名次只统计前 15 名以内的，尾部名次噪声太大
const countedPositionLimit = 15

// FastestLocalKey 合成行的键：每次提交里最快的非全球服务器
const FastestLocalKey = "fastest-local"

// CountryNameServer 国家聚合里单个服务器的最终行。
// OverallAverage / OverallPosition 为 -1 表示从未累计到值，
// 与「累计到了但为 0」区分开。
type CountryNameServer struct {
	IP              string  `json:"ip"`
	Name            string  `json:"name"`
	Hostname        string  `json:"hostname"`
	IsGlobal        bool    `json:"is_global"`
	Count           int     `json:"count"`
	OverallAverage  float64 `json:"overall_average"`
	OverallPosition float64 `json:"overall_position"`
}

// CountrySummary 一个国家的聚合报表
type CountrySummary struct {
	CountryCode     string              `json:"country_code"`
	Country         string              `json:"country"`
	Count           int                 `json:"count"`
	LastUpdate      time.Time           `json:"last_update"`
	NameServers     []CountryNameServer `json:"nameservers"`
	PopularPrimary  map[string]int      `json:"popular_primary"` // 提交方原用服务器的出现次数
	DistributionURL string              `json:"distribution_url"`
}

// countryAccumulator 聚合过程中的中间量，字段都是可选累计
type countryAccumulator struct {
	ns        models.NameServer
	count     int
	positions []float64
	averages  []float64
	durations []float64
}

// CountryReportService 国家维度聚合，带短时读缓存。
// 缓存只是性能优化，写失败不影响返回结果。
type CountryReportService struct {
	db    *gorm.DB
	cache *gocache.Cache
}

func NewCountryReportService(db *gorm.DB) *CountryReportService {
	ttl := config.GetConfig().CountryCacheTTL
	return &CountryReportService{
		db:    db,
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

// CacheKey 缓存键推导，统一大写国家码
func CacheKey(countryCode string) string {
	return "country:" + strings.ToUpper(countryCode)
}

// Summary 取一个国家的聚合结果，优先走缓存
func (s *CountryReportService) Summary(countryCode string) (*CountrySummary, error) {
	key := CacheKey(countryCode)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*CountrySummary), nil
	}

	summary, err := s.compute(strings.ToUpper(countryCode))
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, summary, gocache.DefaultExpiration)
	return summary, nil
}

func (s *CountryReportService) compute(countryCode string) (*CountrySummary, error) {
	limit := config.GetConfig().CountryFetchLimit

	var submissions []models.Submission
	err := s.db.
		Where("country_code = ? AND listed = ?", countryCode, true).
		Order("timestamp desc").
		Limit(limit).
		Preload("NameServers").
		Preload("NameServers.NameServer").
		Preload("NameServers.Results").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("load submissions for %s: %w", countryCode, err)
	}

	summary := &CountrySummary{
		CountryCode:    countryCode,
		NameServers:    []CountryNameServer{},
		PopularPrimary: map[string]int{},
	}

	accs := map[string]*countryAccumulator{}
	primaryIDs := map[uint]bool{}

	for _, sub := range submissions {
		if summary.Country == "" {
			summary.Country = sub.Country
		}
		if sub.Timestamp.After(summary.LastUpdate) {
			summary.LastUpdate = sub.Timestamp
		}
		summary.Count++

		var fastestLocal *models.SubmissionNameServer
		for i := range sub.NameServers {
			row := &sub.NameServers[i]
			s.accumulate(accs, row.NameServer.IP, row.NameServer, row)

			// 非全球服务器里每次提交取最快的一台，喂给合成行
			if !row.NameServer.IsGlobal {
				if fastestLocal == nil || row.OverallAverage < fastestLocal.OverallAverage {
					fastestLocal = row
				}
			}
		}
		if fastestLocal != nil {
			pseudo := models.NameServer{IP: FastestLocalKey, Name: "Fastest local nameserver"}
			s.accumulate(accs, FastestLocalKey, pseudo, fastestLocal)
		}

		if sub.PrimaryNameServerID != nil {
			primaryIDs[*sub.PrimaryNameServerID] = true
		}
	}

	// 原用服务器的人气统计需要名字，单独查一次
	if len(primaryIDs) > 0 {
		ids := make([]uint, 0, len(primaryIDs))
		for id := range primaryIDs {
			ids = append(ids, id)
		}
		var primaries []models.NameServer
		if err := s.db.Where("id IN ?", ids).Find(&primaries).Error; err != nil {
			return nil, fmt.Errorf("load primary nameservers: %w", err)
		}
		byID := map[uint]*models.NameServer{}
		for i := range primaries {
			byID[primaries[i].ID] = &primaries[i]
		}
		for _, sub := range submissions {
			if sub.PrimaryNameServerID == nil {
				continue
			}
			if ns, ok := byID[*sub.PrimaryNameServerID]; ok {
				summary.PopularPrimary[ns.DisplayName()]++
			}
		}
	}

	ordered := finalizeAccumulators(accs)
	for _, acc := range ordered {
		summary.NameServers = append(summary.NameServers, CountryNameServer{
			IP:              acc.ns.IP,
			Name:            acc.ns.Name,
			Hostname:        acc.ns.Hostname,
			IsGlobal:        acc.ns.IsGlobal,
			Count:           acc.count,
			OverallAverage:  sentinelAverage(acc.averages),
			OverallPosition: sentinelAverage(acc.positions),
		})
	}

	summary.DistributionURL = s.buildDistributionURL(ordered)
	return summary, nil
}

func (s *CountryReportService) accumulate(accs map[string]*countryAccumulator,
	key string, ns models.NameServer, row *models.SubmissionNameServer) *countryAccumulator {

	acc, ok := accs[key]
	if !ok {
		acc = &countryAccumulator{ns: ns}
		accs[key] = acc
	}
	acc.count++
	if row.Position < countedPositionLimit {
		acc.positions = append(acc.positions, float64(row.Position))
	}
	acc.averages = append(acc.averages, row.OverallAverage)
	for _, run := range row.Results {
		acc.durations = append(acc.durations, run.Durations...)
	}
	return acc
}

// finalizeAccumulators 按出现次数降序排，次数相同按展示名稳定排序
func finalizeAccumulators(accs map[string]*countryAccumulator) []*countryAccumulator {
	ordered := make([]*countryAccumulator, 0, len(accs))
	for _, acc := range accs {
		ordered = append(ordered, acc)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].ns.DisplayName() < ordered[j].ns.DisplayName()
	})
	return ordered
}

// sentinelAverage 空序列返回 -1，区分「没排过名」和「排名均值为 0」
func sentinelAverage(values []float64) float64 {
	if len(values) == 0 {
		return -1
	}
	return Average(values)
}

// buildDistributionURL 人气前 10 的行，加上所有全球服务器行，交给图表构建器
func (s *CountryReportService) buildDistributionURL(ordered []*countryAccumulator) string {
	var series []ChartSeries
	included := map[string]bool{}
	for i, acc := range ordered {
		if i >= 10 {
			break
		}
		if len(acc.durations) == 0 {
			continue
		}
		series = append(series, ChartSeries{Name: acc.ns.DisplayName(), Values: acc.durations})
		included[acc.ns.IP] = true
	}
	for _, acc := range ordered {
		if acc.ns.IsGlobal && !included[acc.ns.IP] && len(acc.durations) > 0 {
			series = append(series, ChartSeries{Name: acc.ns.DisplayName(), Values: acc.durations})
		}
	}
	if len(series) == 0 {
		return ""
	}
	return DistributionLineGraph(series, 350)
}
