package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
)

// DefaultListLimit 列表默认条数
const DefaultListLimit = 50

// ReportRepository 扫描报告 Repository
type ReportRepository interface {
	Create(ctx context.Context, report *domain.ScanReport) error
	FindByID(ctx context.Context, id string) (*domain.ScanReport, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.ScanReport, error)
	Delete(ctx context.Context, id string) error
}

// reportRepo 扫描报告 Repository 实现
type reportRepo struct {
	db *gorm.DB
}

// NewReportRepository 创建扫描报告 Repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

// Create 保存扫描报告
func (r *reportRepo) Create(ctx context.Context, report *domain.ScanReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// FindByID 根据 ID 查询扫描报告（包含完整结果）
func (r *reportRepo) FindByID(ctx context.Context, id string) (*domain.ScanReport, error) {
	var report domain.ScanReport
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListRecent 最近的扫描报告，不加载结果 JSON
func (r *reportRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ScanReport, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var reports []*domain.ScanReport
	err := r.db.WithContext(ctx).
		Omit("results_json").
		Order("created_at DESC").
		Limit(limit).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Delete 删除扫描报告，不存在时返回 gorm.ErrRecordNotFound
func (r *reportRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.ScanReport{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
