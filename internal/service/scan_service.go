package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jar-analysis/jar-analysis-go/internal/classfile"
	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/jar-analysis/jar-analysis-go/internal/jar"
	"github.com/jar-analysis/jar-analysis-go/internal/metrics"
	"github.com/jar-analysis/jar-analysis-go/internal/repository"
	"github.com/jar-analysis/jar-analysis-go/internal/scanner"
	"github.com/jar-analysis/jar-analysis-go/internal/scoring"
	"github.com/jar-analysis/jar-analysis-go/internal/worker"
)

// ErrNoRepository 未配置报告存储
var ErrNoRepository = errors.New("report repository not configured")

// ScanService JAR 扫描服务接口
type ScanService interface {
	// 扫描一个 JAR 并保存报告
	ScanJar(ctx context.Context, jarPath string) (*domain.JarReport, error)

	// 查询已保存的报告
	GetReport(ctx context.Context, id string) (*domain.ScanReport, error)

	// 最近的报告
	ListReports(ctx context.Context, limit int) ([]*domain.ScanReport, error)

	// 删除报告
	DeleteReport(ctx context.Context, id string) error

	// 本次运行是否遇到过非标准类文件
	CustomJVMIndicator() bool
}

type scanService struct {
	scanner *scanner.Scanner
	walker  *jar.Walker
	repo    repository.ReportRepository
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewScanService 创建扫描服务。repo 和 m 可以为 nil
func NewScanService(s *scanner.Scanner, walker *jar.Walker, repo repository.ReportRepository, m *metrics.Metrics, logger *logrus.Logger) ScanService {
	if m != nil {
		s.SetObserver(m)
	}
	return &scanService{
		scanner: s,
		walker:  walker,
		repo:    repo,
		metrics: m,
		logger:  logger,
	}
}

// ScanJar 遍历 JAR 中的类文件，通过 worker 池并行扫描并汇总
func (s *scanService) ScanJar(ctx context.Context, jarPath string) (*domain.JarReport, error) {
	report := &domain.JarReport{
		ID:             uuid.New().String(),
		JarPath:        jarPath,
		MaxDangerScore: scoring.MinScore,
		Results:        []*domain.ScanResult{},
		FindingCounts:  make(map[domain.FindingType]int),
		StartedAt:      time.Now(),
	}

	log := s.logger.WithFields(logrus.Fields{"scan_id": report.ID, "jar": jarPath})
	log.Info("Starting JAR scan")

	pool := worker.NewPool(s.scanner.Options().Workers, s.scanner, s.logger)
	pool.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := range pool.Results() {
			s.collect(report, r, log)
		}
	}()

	nonStandard := 0
	stats, walkErr := s.walker.Walk(ctx, jarPath, func(entry jar.Entry) error {
		if entry.Err == nil && !classfile.HasStandardMagic(entry.Data) {
			nonStandard++
		}
		return pool.Submit(ctx, &worker.Task{Entry: entry})
	})

	pool.Stop()
	wg.Wait()

	report.CompletedAt = time.Now()
	report.DurationMs = report.CompletedAt.Sub(report.StartedAt).Milliseconds()

	if walkErr != nil {
		s.observeJar("failed", report)
		log.WithError(walkErr).Error("JAR scan failed")
		return nil, fmt.Errorf("scan %s: %w", jarPath, walkErr)
	}

	report.ClassesScanned = stats.Classes
	report.ClassesSkipped = stats.Skipped
	// 超过大小上限的条目未被分析，计为错误
	report.Errors += stats.Oversized
	report.CustomJVMIndicator = nonStandard > 0
	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].FilePath < report.Results[j].FilePath
	})

	s.observeJar("completed", report)
	s.persist(ctx, report, log)

	log.WithFields(logrus.Fields{
		"classes":          report.ClassesScanned,
		"reported":         len(report.Results),
		"errors":           report.Errors,
		"max_danger_score": report.MaxDangerScore,
		"custom_jvm":       report.CustomJVMIndicator,
		"duration_ms":      report.DurationMs,
	}).Info("JAR scan completed")

	return report, nil
}

// collect 只在结果收集协程中调用
func (s *scanService) collect(report *domain.JarReport, r worker.Result, log *logrus.Entry) {
	if r.Err != nil {
		report.Errors++
		log.WithError(r.Err).WithField("path", r.Path).Warn("Class scan failed")
		return
	}
	if r.Result == nil {
		return
	}

	report.Results = append(report.Results, r.Result)
	if r.Result.DangerScore > report.MaxDangerScore {
		report.MaxDangerScore = r.Result.DangerScore
	}
	for t, n := range r.Result.Matches.CountByType() {
		report.FindingCounts[t] += n
	}
}

func (s *scanService) observeJar(status string, report *domain.JarReport) {
	if s.metrics == nil {
		return
	}
	s.metrics.SetCacheEntries(s.scanner.CacheLen())
	s.metrics.ObserveJar(status, report.CompletedAt.Sub(report.StartedAt))
}

func (s *scanService) persist(ctx context.Context, report *domain.JarReport, log *logrus.Entry) {
	if s.repo == nil {
		return
	}

	record, err := ToScanReport(report, s.scanner.Options().ReportThreshold)
	if err != nil {
		log.WithError(err).Warn("Failed to encode scan report")
		return
	}
	if err := s.repo.Create(ctx, record); err != nil {
		log.WithError(err).Warn("Failed to save scan report")
	}
}

// ToScanReport 转换为数据库记录
func ToScanReport(report *domain.JarReport, threshold int) (*domain.ScanReport, error) {
	resultsJSON, err := json.Marshal(report.Results)
	if err != nil {
		return nil, err
	}

	flagged := 0
	for _, r := range report.Results {
		if r.DangerScore >= threshold {
			flagged++
		}
	}

	return &domain.ScanReport{
		ID:                 report.ID,
		JarPath:            report.JarPath,
		JarName:            filepath.Base(report.JarPath),
		ClassesScanned:     report.ClassesScanned,
		ClassesFlagged:     flagged,
		ClassesSkipped:     report.ClassesSkipped,
		Errors:             report.Errors,
		MaxDangerScore:     report.MaxDangerScore,
		Verdict:            scoring.Verdict(report.MaxDangerScore),
		CustomJVMIndicator: report.CustomJVMIndicator,
		ResultsJSON:        string(resultsJSON),
		DurationMs:         report.DurationMs,
		CompletedAt:        report.CompletedAt,
		CreatedAt:          report.StartedAt,
	}, nil
}

// GetReport 查询报告
func (s *scanService) GetReport(ctx context.Context, id string) (*domain.ScanReport, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.FindByID(ctx, id)
}

// ListReports 最近的报告
func (s *scanService) ListReports(ctx context.Context, limit int) ([]*domain.ScanReport, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}
	return s.repo.ListRecent(ctx, limit)
}

// DeleteReport 删除报告
func (s *scanService) DeleteReport(ctx context.Context, id string) error {
	if s.repo == nil {
		return ErrNoRepository
	}
	return s.repo.Delete(ctx, id)
}

// CustomJVMIndicator 本次运行是否遇到过非标准类文件
func (s *scanService) CustomJVMIndicator() bool {
	return s.scanner.CustomJVMIndicator()
}
