package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jtrag/namebench-appengine/models"
)

// CleanupService 维护任务：重复提交清理、索引记录导入
type CleanupService struct {
	db *gorm.DB
}

func NewCleanupService(db *gorm.DB) *CleanupService {
	return &CleanupService{db: db}
}

// ClearDuplicateSubmissions 同一 class_c + dupe_check_id 只保留最新一条上榜，
// 其余下榜。返回被下榜的条数。
func (s *CleanupService) ClearDuplicateSubmissions() (int64, error) {
	var listed []models.Submission
	err := s.db.Where("listed = ?", true).
		Order("timestamp desc").
		Find(&listed).Error
	if err != nil {
		return 0, fmt.Errorf("load listed submissions: %w", err)
	}

	seen := map[string]bool{}
	var unlist []uint
	for _, sub := range listed {
		key := sub.ClassC + "|" + sub.DupeCheckID
		if seen[key] {
			unlist = append(unlist, sub.ID)
			continue
		}
		seen[key] = true
	}

	if len(unlist) == 0 {
		return 0, nil
	}

	res := s.db.Model(&models.Submission{}).
		Where("id IN ?", unlist).
		Update("listed", false)
	if res.Error != nil {
		return 0, fmt.Errorf("unlist duplicates: %w", res.Error)
	}
	log.Printf("unlisted %d duplicate submissions", res.RowsAffected)
	return res.RowsAffected, nil
}

// IndexHostInput 索引记录导入的输入行
type IndexHostInput struct {
	RecordType string `json:"record_type" binding:"required"`
	RecordName string `json:"record_name" binding:"required"`
	Listed     bool   `json:"listed"`
}

// ImportIndexHosts 批量导入索引记录，按 (record_name, record_type) 幂等
func (s *CleanupService) ImportIndexHosts(hosts []IndexHostInput) (int, error) {
	imported := 0
	for _, h := range hosts {
		row := models.IndexHost{
			RecordType: h.RecordType,
			RecordName: h.RecordName,
			Listed:     h.Listed,
		}
		err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_name"}, {Name: "record_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"listed"}),
		}).Create(&row).Error
		if err != nil {
			return imported, fmt.Errorf("import index host %s: %w", h.RecordName, err)
		}
		imported++
	}
	return imported, nil
}
