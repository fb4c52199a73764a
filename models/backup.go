package models

import (
	"time"
)

// BackupRecord 数据库备份历史
type BackupRecord struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	BackupID  string    `json:"backup_id" gorm:"uniqueIndex"`
	FileName  string    `json:"file_name"`
	FilePath  string    `json:"file_path"`
	Size      int64     `json:"size"`
	Storage   string    `json:"storage"` // local, s3
	Status    string    `json:"status"`  // success, failed
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
}

func (BackupRecord) TableName() string {
	return "backup_records"
}
