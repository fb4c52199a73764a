package models

import (
	"encoding/json"
	"fmt"
)

// SubmitPayload /submit 接口 data 字段的 JSON 结构。
// 字段校验在任何实体构建之前完成，缺字段直接整体拒绝。
type SubmitPayload struct {
	Config      *PayloadConfig      `json:"config"`
	Geodata     *PayloadGeodata     `json:"geodata"`
	NameServers []PayloadNameServer `json:"nameservers"`
}

type PayloadConfig struct {
	QueryCount           int      `json:"query_count"`
	RunCount             int      `json:"run_count"`
	Platform             []string `json:"platform"` // [os_name, os_release]
	Python               []int    `json:"python"`
	Version              string   `json:"version"`
	BenchmarkThreadCount int      `json:"benchmark_thread_count"`
	HealthThreadCount    int      `json:"health_thread_count"`
	HealthTimeout        float64  `json:"health_timeout"`
	Timeout              float64  `json:"timeout"`
	InputSource          string   `json:"input_source"`
}

// PayloadGeodata 兼容三种客户端上报格式：
// 经纬度、嵌套 address、平铺的 city/region_name/country_name
type PayloadGeodata struct {
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
	Address     *PayloadAddress `json:"address"`
	City        string          `json:"city"`
	RegionName  string          `json:"region_name"`
	CountryName string          `json:"country_name"`
	CountryCode string          `json:"country_code"`
}

type PayloadAddress struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type PayloadNameServer struct {
	IP             string             `json:"ip"`
	Name           string             `json:"name"`
	Hostname       string             `json:"hostname"`
	IsGlobal       bool               `json:"is_global"`
	IsRegional     bool               `json:"is_regional"`
	IsCustom       bool               `json:"is_custom"`
	Averages       []*float64         `json:"averages"`
	OverallAverage float64            `json:"overall_average"`
	CheckAverage   float64            `json:"check_average"`
	Min            float64            `json:"min"`
	Max            float64            `json:"max"`
	Failed         int                `json:"failed"`
	Nx             int                `json:"nx"`
	IsErrorProne   bool               `json:"is_error_prone"`
	IsReference    bool               `json:"is_reference"` // 客户端基准测试前在用的服务器，提升率的基线
	IsDisabled     bool               `json:"is_disabled"`
	SysPosition    int                `json:"sys_position"`
	Position       int                `json:"position"`
	Notes          []PayloadNote      `json:"notes"`
	Diff           float64            `json:"diff"`
	Durations      [][]float64        `json:"durations"`
	Index          []IndexCheckResult `json:"index"`
}

type PayloadNote struct {
	Text string `json:"text"`
}

// IndexCheckResult 线上客户端以定长数组上报：
// [host, req_type, duration, answer_count, ttl, response]
type IndexCheckResult struct {
	Host        string
	RecordType  string
	Duration    float64
	AnswerCount int
	TTL         int
	Response    string
}

func (r *IndexCheckResult) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if len(fields) < 5 {
		return fmt.Errorf("index result: expected at least 5 fields, got %d", len(fields))
	}
	if err := json.Unmarshal(fields[0], &r.Host); err != nil {
		return fmt.Errorf("index result host: %w", err)
	}
	if err := json.Unmarshal(fields[1], &r.RecordType); err != nil {
		return fmt.Errorf("index result record type: %w", err)
	}
	if err := json.Unmarshal(fields[2], &r.Duration); err != nil {
		return fmt.Errorf("index result duration: %w", err)
	}
	if err := json.Unmarshal(fields[3], &r.AnswerCount); err != nil {
		return fmt.Errorf("index result answer count: %w", err)
	}
	if err := json.Unmarshal(fields[4], &r.TTL); err != nil {
		return fmt.Errorf("index result ttl: %w", err)
	}
	// response 是后加的字段，老客户端不带
	if len(fields) > 5 {
		if err := json.Unmarshal(fields[5], &r.Response); err != nil {
			return fmt.Errorf("index result response: %w", err)
		}
	}
	return nil
}

func (r IndexCheckResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{
		r.Host, r.RecordType, r.Duration, r.AnswerCount, r.TTL, r.Response,
	})
}

// Validate 必填字段校验，任何实体写入之前调用
func (p *SubmitPayload) Validate() error {
	if p.Config == nil {
		return fmt.Errorf("missing required field: config")
	}
	if len(p.NameServers) == 0 {
		return fmt.Errorf("missing required field: nameservers")
	}
	for i, ns := range p.NameServers {
		if ns.IP == "" {
			return fmt.Errorf("nameservers[%d]: missing required field: ip", i)
		}
	}
	return nil
}

// OSSystem 平台数组的第一个元素
func (c *PayloadConfig) OSSystem() string {
	if len(c.Platform) > 0 {
		return c.Platform[0]
	}
	return ""
}

// OSRelease 平台数组的第二个元素
func (c *PayloadConfig) OSRelease() string {
	if len(c.Platform) > 1 {
		return c.Platform[1]
	}
	return ""
}

// PythonVersion 把版本号数组拼成 "x.y.z"
func (c *PayloadConfig) PythonVersion() string {
	out := ""
	for i, n := range c.Python {
		if i > 0 {
			out += "."
		}
		out += fmt.Sprintf("%d", n)
	}
	return out
}
