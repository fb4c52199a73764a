package services

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jtrag/namebench-appengine/models"
)

// NameServerRegistry 以 IP 为自然键的服务器注册表。
// Upsert 幂等，已有字段先写先得，后续提交只能补全缺失字段。
type NameServerRegistry struct {
	db *gorm.DB
}

func NewNameServerRegistry(db *gorm.DB) *NameServerRegistry {
	return &NameServerRegistry{db: db}
}

// Upsert 按 IP get-or-create。
// 注册表写入独立于提交事务，部分完成也无害，所以放在事务外执行。
func (r *NameServerRegistry) Upsert(ns *models.NameServer) (*models.NameServer, error) {
	if ns.IP == "" {
		return nil, fmt.Errorf("upsert nameserver: empty ip")
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ip"}},
		DoNothing: true,
	}).Create(ns).Error
	if err != nil {
		return nil, fmt.Errorf("upsert nameserver %s: %w", ns.IP, err)
	}

	var existing models.NameServer
	if err := r.db.Where("ip = ?", ns.IP).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("load nameserver %s: %w", ns.IP, err)
	}

	// 只补全缺失字段，不覆盖已有值
	updates := map[string]interface{}{}
	if existing.Name == "" && ns.Name != "" {
		updates["name"] = ns.Name
		existing.Name = ns.Name
	}
	if existing.Hostname == "" && ns.Hostname != "" {
		updates["hostname"] = ns.Hostname
		existing.Hostname = ns.Hostname
	}
	if len(updates) > 0 {
		if err := r.db.Model(&existing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("fill nameserver %s: %w", ns.IP, err)
		}
	}

	return &existing, nil
}
