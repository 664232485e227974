package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jar-analysis/jar-analysis-go/internal/classfile/classfiletest"
	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/jar-analysis/jar-analysis-go/internal/jar"
	"github.com/jar-analysis/jar-analysis-go/internal/metrics"
	"github.com/jar-analysis/jar-analysis-go/internal/scanner"
	"github.com/jar-analysis/jar-analysis-go/internal/scoring"
)

const testWebhook = "https://discord.com/api/webhooks/123456789012345678/AbCdEfGhIjKlMnOp_qrstuv-wxyz"

// MockReportRepository Mock Repository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, report *domain.ScanReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *MockReportRepository) FindByID(ctx context.Context, id string) (*domain.ScanReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScanReport), args.Error(1)
}

func (m *MockReportRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ScanReport, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScanReport), args.Error(1)
}

func (m *MockReportRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func writeTestJar(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suspicious-mod.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	entries := map[string][]byte{
		"com/example/Main.class":   classfiletest.NewBuilder("com/example/Main", "java/lang/Object").AddString(testWebhook).Build(),
		"com/example/Util.class":   classfiletest.NewBuilder("com/example/Util", "java/lang/Object").Build(),
		"shaded/Util.class":        classfiletest.NewBuilder("com/example/Util", "java/lang/Object").Build(),
		"com/example/Loader.class": {0xDE, 0xAD, 0xBE, 0xEF},
		"com/example/Broken.class": {0xCA, 0xFE, 0xBA, 0xBE, 0x00},
		"META-INF/MANIFEST.MF":     []byte("Manifest-Version: 1.0\n"),
	}
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func newTestService(t *testing.T, repo *MockReportRepository, m *metrics.Metrics) ScanService {
	t.Helper()
	opts := scanner.DefaultOptions()
	opts.Workers = 2
	s := scanner.New(opts, testLogger())

	if repo == nil {
		return NewScanService(s, jar.NewWalker(nil, testLogger()), nil, m, testLogger())
	}
	return NewScanService(s, jar.NewWalker(nil, testLogger()), repo, m, testLogger())
}

// TestScanService_ScanJar 测试 JAR 扫描汇总与报告保存
func TestScanService_ScanJar(t *testing.T) {
	repo := new(MockReportRepository)
	var saved *domain.ScanReport
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ScanReport")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.ScanReport) }).
		Return(nil)

	m := metrics.New(prometheus.NewRegistry(), "")
	svc := newTestService(t, repo, m)
	jarPath := writeTestJar(t)

	report, err := svc.ScanJar(context.Background(), jarPath)
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 5, report.ClassesScanned)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 10, report.MaxDangerScore)
	assert.True(t, report.CustomJVMIndicator)
	assert.True(t, svc.CustomJVMIndicator())
	assert.Equal(t, 1, report.FindingCounts[domain.FindingDiscordWebhook])

	// 低分结果被抑制，只剩 Webhook 类
	require.Len(t, report.Results, 1)
	assert.Equal(t, "com/example/Main.class", report.Results[0].FilePath)
	assert.Equal(t, jarPath, report.Results[0].ResourceInfo.JarPath)

	repo.AssertExpectations(t)
	require.NotNil(t, saved)
	assert.Equal(t, report.ID, saved.ID)
	assert.Equal(t, "suspicious-mod.jar", saved.JarName)
	assert.Equal(t, 1, saved.ClassesFlagged)
	assert.Equal(t, scoring.VerdictMalware, saved.Verdict)

	var results []*domain.ScanResult
	require.NoError(t, json.Unmarshal([]byte(saved.ResultsJSON), &results))
	assert.Len(t, results, 1)
}

// TestScanService_ScanJar_SaveFailure 保存失败不影响扫描结果
func TestScanService_ScanJar_SaveFailure(t *testing.T) {
	repo := new(MockReportRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	report, err := newTestService(t, repo, nil).ScanJar(context.Background(), writeTestJar(t))
	require.NoError(t, err)
	assert.Equal(t, 10, report.MaxDangerScore)
	repo.AssertExpectations(t)
}

// TestScanService_ScanJar_Oversized 超过大小上限的类文件计为错误而不是跳过
func TestScanService_ScanJar_Oversized(t *testing.T) {
	walker := jar.NewWalker(nil, testLogger())
	walker.MaxClassSize = 64
	opts := scanner.DefaultOptions()
	opts.Workers = 2
	svc := NewScanService(scanner.New(opts, testLogger()), walker, nil, nil, testLogger())

	report, err := svc.ScanJar(context.Background(), writeTestJar(t))
	require.NoError(t, err)

	// 三个构造出的类文件都超过 64 字节，另有一个损坏的类文件
	assert.Equal(t, 0, report.ClassesSkipped)
	assert.Equal(t, 2, report.ClassesScanned)
	assert.Equal(t, 4, report.Errors)
	assert.True(t, report.CustomJVMIndicator)
	for _, r := range report.Results {
		assert.NotEqual(t, "com/example/Main.class", r.FilePath)
	}
}

// TestScanService_ScanJar_Missing JAR 不存在
func TestScanService_ScanJar_Missing(t *testing.T) {
	_, err := newTestService(t, nil, nil).ScanJar(context.Background(), filepath.Join(t.TempDir(), "none.jar"))
	assert.Error(t, err)
}

// TestScanService_ScanJar_Cancelled 取消的扫描返回错误
func TestScanService_ScanJar_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(t, nil, nil).ScanJar(ctx, writeTestJar(t))
	assert.ErrorIs(t, err, context.Canceled)
}

// TestScanService_NoRepository 未配置存储时查询接口返回错误
func TestScanService_NoRepository(t *testing.T) {
	svc := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.GetReport(ctx, "x")
	assert.ErrorIs(t, err, ErrNoRepository)
	_, err = svc.ListReports(ctx, 10)
	assert.ErrorIs(t, err, ErrNoRepository)
	assert.ErrorIs(t, svc.DeleteReport(ctx, "x"), ErrNoRepository)
}

// TestScanService_Reports 查询接口委托给存储
func TestScanService_Reports(t *testing.T) {
	repo := new(MockReportRepository)
	svc := newTestService(t, repo, nil)
	ctx := context.Background()

	stored := &domain.ScanReport{ID: "abc"}
	repo.On("FindByID", ctx, "abc").Return(stored, nil)
	repo.On("ListRecent", ctx, 20).Return([]*domain.ScanReport{stored}, nil)
	repo.On("Delete", ctx, "abc").Return(nil)

	got, err := svc.GetReport(ctx, "abc")
	require.NoError(t, err)
	assert.Same(t, stored, got)

	list, err := svc.ListReports(ctx, 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.NoError(t, svc.DeleteReport(ctx, "abc"))
	repo.AssertExpectations(t)
}
