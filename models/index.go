package models

// IndexHost 新鲜度索引检查用的基准 DNS 记录，由管理端维护
type IndexHost struct {
	ID         uint   `json:"id" gorm:"primarykey"`
	RecordType string `json:"record_type" gorm:"uniqueIndex:idx_index_host,priority:2"`
	RecordName string `json:"record_name" gorm:"uniqueIndex:idx_index_host,priority:1"`
	Listed     bool   `json:"listed" gorm:"default:false"`
}

func (IndexHost) TableName() string {
	return "index_hosts"
}

// IndexResult 单个被测服务器对某条索引记录的检查结果
type IndexResult struct {
	ID                     uint    `json:"id" gorm:"primarykey"`
	SubmissionNameServerID uint    `json:"submission_nameserver_id" gorm:"index"`
	IndexHostID            uint    `json:"index_host_id" gorm:"index"`
	Duration               float64 `json:"duration"`
	AnswerCount            int     `json:"answer_count"`
	TTL                    int     `json:"ttl"`
	Response               string  `json:"response"`
}

func (IndexResult) TableName() string {
	return "index_results"
}
