package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jtrag/namebench-appengine/config"
	"github.com/jtrag/namebench-appengine/models"
)

// BackupService 定期把 sqlite 数据文件归档到本地目录或 S3
type BackupService struct {
	db      *gorm.DB
	storage *config.StorageConfig
	s3      *S3Service
}

func NewBackupService(db *gorm.DB, storage *config.StorageConfig, s3 *S3Service) *BackupService {
	return &BackupService{db: db, storage: storage, s3: s3}
}

// Run 执行一次备份，成功后按保留份数清理旧备份
func (s *BackupService) Run() (*models.BackupRecord, error) {
	record := &models.BackupRecord{
		BackupID: uuid.New().String(),
		Storage:  s.storage.Type,
		Status:   "success",
	}

	fileName := fmt.Sprintf("results-%s.db", time.Now().Format("20060102-150405"))
	record.FileName = fileName

	size, path, err := s.copyDatabase(fileName)
	if err != nil {
		record.Status = "failed"
		record.Error = err.Error()
		s.db.Create(record)
		return record, err
	}
	record.Size = size
	record.FilePath = path

	if s.storage.IsS3Enabled() && s.s3 != nil {
		if err := s.uploadToS3(path, fileName); err != nil {
			record.Status = "failed"
			record.Error = err.Error()
			s.db.Create(record)
			return record, err
		}
	}

	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("save backup record: %w", err)
	}

	if err := s.prune(); err != nil {
		log.Printf("prune old backups: %v", err)
	}
	return record, nil
}

func (s *BackupService) copyDatabase(fileName string) (int64, string, error) {
	if err := os.MkdirAll(s.storage.BackupDir, 0o755); err != nil {
		return 0, "", fmt.Errorf("create backup dir: %w", err)
	}

	src, err := os.Open(config.GetConfig().DBPath)
	if err != nil {
		return 0, "", fmt.Errorf("open database: %w", err)
	}
	defer src.Close()

	path := filepath.Join(s.storage.BackupDir, fileName)
	dst, err := os.Create(path)
	if err != nil {
		return 0, "", fmt.Errorf("create backup file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return 0, "", fmt.Errorf("copy database: %w", err)
	}
	return size, path, nil
}

func (s *BackupService) uploadToS3(path, fileName string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()
	return s.s3.Upload(context.TODO(), "backups/"+fileName, f)
}

// prune 删掉超出保留份数的最老备份
func (s *BackupService) prune() error {
	var old []models.BackupRecord
	err := s.db.Where("status = ?", "success").
		Order("created_at desc").
		Offset(s.storage.Retention).
		Find(&old).Error
	if err != nil {
		return err
	}

	for _, rec := range old {
		if rec.FilePath != "" {
			if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
				log.Printf("remove backup file %s: %v", rec.FilePath, err)
			}
		}
		if s.storage.IsS3Enabled() && s.s3 != nil {
			if err := s.s3.Delete(context.TODO(), "backups/"+rec.FileName); err != nil {
				log.Printf("remove s3 backup %s: %v", rec.FileName, err)
			}
		}
		if err := s.db.Delete(&models.BackupRecord{}, rec.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

// History 最近的备份记录，限 100 条
func (s *BackupService) History() ([]models.BackupRecord, error) {
	var records []models.BackupRecord
	err := s.db.Order("created_at desc").Limit(100).Find(&records).Error
	return records, err
}
