package services

import (
	"fmt"
	"net"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jtrag/namebench-appengine/config"
	"github.com/jtrag/namebench-appengine/models"
)

// 上榜策略的说明性备注，客户端会原样展示
const (
	NoteNotEnoughQueries = "Not enough queries to list."
	NoteNotEnoughServers = "Not enough servers to list."
	NoteHiddenOnRequest  = "Hidden on request."
	NoteHiddenInternalIP = "Hidden due to internal IP."
)

var privateRanges = []struct {
	cidr   string
	octets int // 脱敏展示时保留的段数
}{
	{"10.0.0.0/8", 1},
	{"172.16.0.0/12", 1},
	{"192.168.0.0/16", 2},
}

// ListingPolicy 判定一次提交是否公开展示
type ListingPolicy struct {
	db *gorm.DB
}

func NewListingPolicy(db *gorm.DB) *ListingPolicy {
	return &ListingPolicy{db: db}
}

// ListingResult 策略判定结果
type ListingResult struct {
	Listed bool
	Hidden bool
	ClassC string
	Notes  []string
}

// ClassC 取 IPv4 前三段作为粗粒度身份，隐私脱敏用
func ClassC(ip string) string {
	parts := strings.Split(ip, ".")
	if len(parts) < 3 {
		return ip
	}
	return strings.Join(parts[0:3], ".")
}

// PrivateIPOctets 检查 IP 是否属于内网段。
// 返回脱敏展示时应保留的段数，公网地址返回 0。
// 始终作用于真实的 remote 地址，不能传截断后的前缀。
func PrivateIPOctets(ip string) int {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return 0
	}
	for _, r := range privateRanges {
		_, block, _ := net.ParseCIDR(r.cidr)
		if block.Contains(parsed) {
			return r.octets
		}
	}
	return 0
}

// DuplicateCount 查同一 class_c + dupe_check_id 在回溯窗口内的既有提交数
func (p *ListingPolicy) DuplicateCount(classC, dupeCheckID string, since time.Time) (int64, error) {
	var count int64
	err := p.db.Model(&models.Submission{}).
		Where("class_c = ? AND dupe_check_id = ? AND timestamp > ?", classC, dupeCheckID, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("duplicate lookup: %w", err)
	}
	return count, nil
}

// Evaluate 在任何对聚合查询可见的写入之前执行。
// remoteAddr 必须是未截断的提交方地址。
func (p *ListingPolicy) Evaluate(remoteAddr, dupeCheckID string, queryCount, serverCount int, hideRequested bool) (*ListingResult, error) {
	cfg := config.GetConfig()
	result := &ListingResult{
		Listed: true,
		ClassC: ClassC(remoteAddr),
	}

	since := time.Now().Add(-time.Duration(cfg.ListingDeltaHours) * time.Hour)
	dupes, err := p.DuplicateCount(result.ClassC, dupeCheckID, since)
	if err != nil {
		return nil, err
	}
	if dupes > 0 {
		result.Listed = false
	}

	if queryCount < cfg.MinQueryCount {
		result.Notes = append(result.Notes, NoteNotEnoughQueries)
		result.Listed = false
	}
	if serverCount < cfg.MinServerCount {
		result.Notes = append(result.Notes, NoteNotEnoughServers)
		result.Listed = false
	}

	if hideRequested {
		result.Notes = append(result.Notes, NoteHiddenOnRequest)
		result.Hidden = true
		result.Listed = false
	} else if PrivateIPOctets(remoteAddr) > 0 {
		result.Notes = append(result.Notes, NoteHiddenInternalIP)
		result.Hidden = true
		result.Listed = false
	}

	return result, nil
}
