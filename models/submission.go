package models

import (
	"time"
)

// Submission 一次客户端基准测试的提交记录
type Submission struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	DupeCheckID string    `json:"dupe_check_id" gorm:"index:idx_dupe,priority:2"`
	ClassC      string    `json:"class_c" gorm:"index:idx_dupe,priority:1"` // 提交方 IP 的前三段，用于去重和脱敏
	Timestamp   time.Time `json:"timestamp" gorm:"index;autoCreateTime"`
	Listed      bool      `json:"listed" gorm:"index;default:false"`
	Hidden      bool      `json:"hidden" gorm:"default:false"`
	City        string    `json:"city"`
	Region      string    `json:"region"`
	Country     string    `json:"country"`
	CountryCode string    `json:"country_code" gorm:"index"`
	Coordinates string    `json:"coordinates"`

	// 反范式字段：全部子记录写入后再回填
	BestNameServerID    *uint    `json:"best_nameserver_id"`
	BestImprovement     *float64 `json:"best_improvement"`
	PrimaryNameServerID *uint    `json:"primary_nameserver_id"`

	Config      *SubmissionConfig      `json:"config,omitempty" gorm:"foreignKey:SubmissionID"`
	NameServers []SubmissionNameServer `json:"nameservers,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (Submission) TableName() string {
	return "submissions"
}

// SubmissionConfig 提交时客户端的运行配置，1:1 从属于 Submission
type SubmissionConfig struct {
	ID                   uint    `json:"id" gorm:"primarykey"`
	SubmissionID         uint    `json:"submission_id" gorm:"uniqueIndex"`
	InputSource          string  `json:"input_source"`
	BenchmarkThreadCount int     `json:"benchmark_thread_count"`
	HealthThreadCount    int     `json:"health_thread_count"`
	HealthTimeout        float64 `json:"health_timeout"`
	Timeout              float64 `json:"timeout"`
	QueryCount           int     `json:"query_count"`
	RunCount             int     `json:"run_count"`
	OSSystem             string  `json:"os_system"`
	OSRelease            string  `json:"os_release"`
	PythonVersion        string  `json:"python_version"`
	ClientVersion        string  `json:"client_version"`
}

func (SubmissionConfig) TableName() string {
	return "submission_configs"
}

// SubmissionNameServer 某次提交中单个被测服务器的汇总结果
type SubmissionNameServer struct {
	ID           uint `json:"id" gorm:"primarykey"`
	SubmissionID uint `json:"submission_id" gorm:"index"`
	NameServerID uint `json:"nameserver_id" gorm:"index"`

	Averages       []*float64 `json:"averages" gorm:"serializer:json"` // 每轮平均延迟，保留空值
	OverallAverage float64    `json:"overall_average"`
	CheckAverage   float64    `json:"check_average"`
	DurationMin    float64    `json:"duration_min"`
	DurationMax    float64    `json:"duration_max"`
	FailedCount    int        `json:"failed_count"`
	NxCount        int        `json:"nx_count"`
	Position       int        `json:"position"`     // 本次提交中按速度的名次
	SysPosition    int        `json:"sys_position"` // 客户端系统配置中的名次
	Improvement    *float64   `json:"improvement"`  // 相对参照服务器的提升百分比，参照行恒为空
	IsReference    bool       `json:"is_reference" gorm:"default:false"`
	IsDisabled     bool       `json:"is_disabled" gorm:"default:false"`
	IsErrorProne   bool       `json:"is_error_prone" gorm:"default:false"`
	Notes          []string   `json:"notes" gorm:"serializer:json"`

	NameServer   NameServer    `json:"nameserver" gorm:"foreignKey:NameServerID"`
	Results      []RunResult   `json:"results,omitempty" gorm:"foreignKey:SubmissionNameServerID"`
	IndexResults []IndexResult `json:"index_results,omitempty" gorm:"foreignKey:SubmissionNameServerID"`
}

func (SubmissionNameServer) TableName() string {
	return "submission_nameservers"
}

// RunResult 单轮基准测试的原始耗时序列，一轮一行
type RunResult struct {
	ID                     uint      `json:"id" gorm:"primarykey"`
	SubmissionNameServerID uint      `json:"submission_nameserver_id" gorm:"index"`
	RunNumber              int       `json:"run_number"`
	Durations              []float64 `json:"durations" gorm:"serializer:json"`
	AnswerCounts           []int     `json:"answer_counts" gorm:"serializer:json"`
}

func (RunResult) TableName() string {
	return "run_results"
}
