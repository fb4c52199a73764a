package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/jtrag/namebench-appengine/models"
)

// 提交最终状态
const (
	StatePublic   = "public"
	StateHidden   = "hidden"
	StateUnlisted = "unlisted"
)

// ErrInvalidPayload 载荷缺字段或类型错误，整个请求失败，不落任何数据
var ErrInvalidPayload = errors.New("invalid payload")

// IngestService 提交入库流水线。
// 服务器注册和上榜判定在事务外完成，提交图谱本身在单个事务内写入，
// 要么全部持久化，要么对外不可见。
type IngestService struct {
	db       *gorm.DB
	registry *NameServerRegistry
	policy   *ListingPolicy
}

func NewIngestService(db *gorm.DB) *IngestService {
	return &IngestService{
		db:       db,
		registry: NewNameServerRegistry(db),
		policy:   NewListingPolicy(db),
	}
}

// IngestResult 返回给客户端的入库结果
type IngestResult struct {
	State        string   `json:"state"` // public, hidden, unlisted
	URL          string   `json:"url"`
	Notes        []string `json:"notes"`
	SubmissionID uint     `json:"-"`
}

// Ingest 处理一次完整的结果提交
func (s *IngestService) Ingest(remoteAddr, dupeCheckID string, hideRequested bool, payload *models.SubmitPayload) (*IngestResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	// 同一 IP 在载荷里出现多次只取第一条，保证一次提交一台服务器一行
	nameservers := dedupeByIP(payload.NameServers)

	// 第一步：注册所有出现的服务器。幂等且全局可见，不需要参与事务。
	servers := make(map[string]*models.NameServer, len(nameservers))
	for _, nsd := range nameservers {
		rec, err := s.registry.Upsert(&models.NameServer{
			IP:         nsd.IP,
			Name:       nsd.Name,
			Hostname:   nsd.Hostname,
			IsGlobal:   nsd.IsGlobal,
			IsRegional: nsd.IsRegional,
			IsCustom:   nsd.IsCustom,
		})
		if err != nil {
			return nil, err
		}
		servers[nsd.IP] = rec
	}

	// 第二步：上榜判定。必须先于提交行写入，否则会匹配到自己。
	listing, err := s.policy.Evaluate(remoteAddr, dupeCheckID,
		payload.Config.QueryCount, len(nameservers), hideRequested)
	if err != nil {
		return nil, err
	}

	// 索引记录预取一次，事务内逐条匹配
	var indexHosts []models.IndexHost
	if err := s.db.Where("listed = ?", true).Find(&indexHosts).Error; err != nil {
		return nil, fmt.Errorf("load index hosts: %w", err)
	}

	// 提升率基线：参照服务器（客户端原本在用的那台）的整体平均延迟
	var referenceLatency float64
	for _, nsd := range nameservers {
		if nsd.IsReference {
			referenceLatency = ListAverage(nsd.Averages)
			break
		}
	}

	// 第三步：单事务写入整个提交图谱
	submission := s.buildSubmission(dupeCheckID, listing, payload.Geodata)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return err
		}

		cfg := s.buildConfig(submission.ID, payload.Config)
		if err := tx.Create(cfg).Error; err != nil {
			return err
		}

		for _, nsd := range nameservers {
			if err := s.storeNameServerResult(tx, submission, &nsd, servers[nsd.IP], referenceLatency, indexHosts); err != nil {
				return err
			}
		}

		// 回填反范式的 primary/best 指针
		return tx.Save(submission).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store submission: %w", err)
	}

	state := StateUnlisted
	if submission.Listed {
		state = StatePublic
	} else if submission.Hidden {
		state = StateHidden
	}

	notes := listing.Notes
	if notes == nil {
		notes = []string{}
	}
	return &IngestResult{
		State:        state,
		URL:          fmt.Sprintf("/id/%d", submission.ID),
		Notes:        notes,
		SubmissionID: submission.ID,
	}, nil
}

func dedupeByIP(nameservers []models.PayloadNameServer) []models.PayloadNameServer {
	seen := make(map[string]bool, len(nameservers))
	out := make([]models.PayloadNameServer, 0, len(nameservers))
	for _, nsd := range nameservers {
		if seen[nsd.IP] {
			continue
		}
		seen[nsd.IP] = true
		out = append(out, nsd)
	}
	return out
}

func (s *IngestService) buildSubmission(dupeCheckID string, listing *ListingResult, geo *models.PayloadGeodata) *models.Submission {
	sub := &models.Submission{
		DupeCheckID: dupeCheckID,
		ClassC:      listing.ClassC,
		Listed:      listing.Listed,
		Hidden:      listing.Hidden,
	}
	if geo == nil {
		return sub
	}
	if geo.Latitude != nil && geo.Longitude != nil {
		sub.Coordinates = fmt.Sprintf("%v,%v", *geo.Latitude, *geo.Longitude)
	}
	if geo.Address != nil {
		sub.City = geo.Address.City
		sub.Region = geo.Address.Region
		sub.Country = geo.Address.Country
	} else {
		sub.City = geo.City
		sub.Region = geo.RegionName
		sub.Country = geo.CountryName
	}
	sub.CountryCode = strings.ToUpper(geo.CountryCode)
	return sub
}

func (s *IngestService) buildConfig(submissionID uint, cfg *models.PayloadConfig) *models.SubmissionConfig {
	return &models.SubmissionConfig{
		SubmissionID:         submissionID,
		QueryCount:           cfg.QueryCount,
		RunCount:             cfg.RunCount,
		OSSystem:             cfg.OSSystem(),
		OSRelease:            cfg.OSRelease(),
		PythonVersion:        cfg.PythonVersion(),
		ClientVersion:        cfg.Version,
		BenchmarkThreadCount: cfg.BenchmarkThreadCount,
		HealthThreadCount:    cfg.HealthThreadCount,
		HealthTimeout:        cfg.HealthTimeout,
		Timeout:              cfg.Timeout,
		InputSource:          cfg.InputSource,
	}
}

// storeNameServerResult 写入单个被测服务器的汇总行、各轮原始耗时和索引检查结果
func (s *IngestService) storeNameServerResult(tx *gorm.DB, submission *models.Submission,
	nsd *models.PayloadNameServer, record *models.NameServer,
	referenceLatency float64, indexHosts []models.IndexHost) error {

	notes := make([]string, 0, len(nsd.Notes))
	for _, n := range nsd.Notes {
		notes = append(notes, n.Text)
	}

	row := &models.SubmissionNameServer{
		SubmissionID:   submission.ID,
		NameServerID:   record.ID,
		Averages:       nsd.Averages,
		OverallAverage: ListAverage(nsd.Averages),
		CheckAverage:   nsd.CheckAverage,
		DurationMin:    nsd.Min,
		DurationMax:    nsd.Max,
		FailedCount:    nsd.Failed,
		NxCount:        nsd.Nx,
		IsErrorProne:   nsd.IsErrorProne,
		IsDisabled:     nsd.IsDisabled,
		IsReference:    nsd.IsReference,
		SysPosition:    nsd.SysPosition,
		Position:       nsd.Position,
		Notes:          notes,
	}

	if nsd.IsReference {
		submission.PrimaryNameServerID = &record.ID
	} else if referenceLatency > 0 && row.OverallAverage > 0 {
		improvement := ((referenceLatency / row.OverallAverage) - 1) * 100
		row.Improvement = &improvement
	}

	if err := tx.Create(row).Error; err != nil {
		return err
	}

	// position 是本次提交里按速度的总名次，第 0 名即最佳服务器
	if row.Position == 0 {
		submission.BestNameServerID = &record.ID
		if !nsd.IsReference && row.Improvement != nil {
			submission.BestImprovement = row.Improvement
		}
	}

	for i, run := range nsd.Durations {
		result := &models.RunResult{
			SubmissionNameServerID: row.ID,
			RunNumber:              i,
			Durations:              run,
		}
		if err := tx.Create(result).Error; err != nil {
			return err
		}
	}

	return s.storeIndexResults(tx, row, nsd.Index, indexHosts)
}

// storeIndexResults 逐条对照预取的索引记录，匹配不上只记日志不报错
func (s *IngestService) storeIndexResults(tx *gorm.DB, row *models.SubmissionNameServer,
	checks []models.IndexCheckResult, indexHosts []models.IndexHost) error {

	for _, chk := range checks {
		matched := false
		for i := range indexHosts {
			if chk.Host == indexHosts[i].RecordName && chk.RecordType == indexHosts[i].RecordType {
				result := &models.IndexResult{
					SubmissionNameServerID: row.ID,
					IndexHostID:            indexHosts[i].ID,
					Duration:               chk.Duration,
					AnswerCount:            chk.AnswerCount,
					TTL:                    chk.TTL,
					Response:               chk.Response,
				}
				if err := tx.Create(result).Error; err != nil {
					return err
				}
				matched = true
				break
			}
		}
		if !matched {
			log.Printf("index result %s (%s) did not match any curated host, dropped", chk.Host, chk.RecordType)
		}
	}
	return nil
}
