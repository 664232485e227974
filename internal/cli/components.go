package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jar-analysis/jar-analysis-go/internal/config"
	"github.com/jar-analysis/jar-analysis-go/internal/filter"
	"github.com/jar-analysis/jar-analysis-go/internal/jar"
	"github.com/jar-analysis/jar-analysis-go/internal/metrics"
	"github.com/jar-analysis/jar-analysis-go/internal/repository"
	"github.com/jar-analysis/jar-analysis-go/internal/scanner"
	"github.com/jar-analysis/jar-analysis-go/internal/service"
)

// components 一次运行所需的扫描组件
type components struct {
	scanner *scanner.Scanner
	service service.ScanService
}

// scannerOptions 配置 -> 扫描选项。忽略列表加载失败只告警
func (a *app) scannerOptions() scanner.Options {
	sc := a.cfg.Scanner
	opts := scanner.Options{
		Verbose:            sc.Verbose,
		CacheCapacity:      sc.CacheCapacity,
		Workers:            sc.Workers,
		ReportThreshold:    sc.ReportThreshold,
		MaxStringsPerClass: sc.MaxStringsPerClass,
	}

	if sc.IgnoreKeywordsFile != "" {
		ignored, err := config.LoadKeywordIgnoreList(sc.IgnoreKeywordsFile)
		if err != nil {
			a.logger.WithError(err).WithField("file", sc.IgnoreKeywordsFile).Warn("Failed to load keyword ignore list")
		} else {
			opts.IgnoredKeywords = ignored
		}
	}

	return opts
}

// build 组装扫描器、JAR 遍历器和服务。reg 为空时不注册指标，persist 为 false 时不连接数据库
func (a *app) build(reg prometheus.Registerer, persist bool) (*components, error) {
	pathFilter, err := filter.NewPathFilter(a.cfg.Scanner.IncludePatterns, a.cfg.Scanner.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid path filter: %w", err)
	}

	s := scanner.New(a.scannerOptions(), a.logger)
	walker := jar.NewWalker(pathFilter, a.logger)

	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg, metrics.DefaultNamespace)
	}

	var repo repository.ReportRepository
	if persist {
		db, err := repository.InitDB(&a.cfg.Database, a.logger)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		repo = repository.NewReportRepository(db)
	}

	return &components{
		scanner: s,
		service: service.NewScanService(s, walker, repo, m, a.logger),
	}, nil
}
