package models

import (
	"time"
)

// NameServer DNS 解析服务器，以 IP 作为自然键
type NameServer struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	IP         string    `json:"ip" gorm:"uniqueIndex;not null"`
	Name       string    `json:"name"`
	Hostname   string    `json:"hostname"`
	Listed     bool      `json:"listed" gorm:"default:false"` // 是否展示在公共页面
	IsGlobal   bool      `json:"is_global" gorm:"default:false"`
	IsRegional bool      `json:"is_regional" gorm:"default:false"`
	IsCustom   bool      `json:"is_custom" gorm:"default:false"`
	City       string    `json:"city"`
	Province   string    `json:"province"`
	Country    string    `json:"country"`
	Coordinates string   `json:"coordinates"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"created_at"`
}

func (NameServer) TableName() string {
	return "nameservers"
}

// DisplayName 优先返回名称，缺失时退回 IP。
// 值接收者：模板里要在非指针值上调用。
func (n NameServer) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.IP
}
