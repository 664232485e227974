package domain

import (
	"time"

	"github.com/jar-analysis/jar-analysis-go/internal/classfile"
)

// ResourceInfo 由归档遍历方计算的资源元数据，核心只负责透传
type ResourceInfo struct {
	Path    string `json:"path"`               // 类文件在归档中的路径
	JarPath string `json:"jar_path,omitempty"` // 所属 JAR 文件
	Size    int64  `json:"size"`
	SHA256  string `json:"sha256,omitempty"`
}

// ScanResult 单个类文件的扫描结果
type ScanResult struct {
	FilePath          string                  `json:"file_path"`
	Matches           Findings                `json:"matches"`
	ClassDetails      *classfile.ClassDetails `json:"class_details,omitempty"` // 缓存命中或非标准类文件时为空
	ResourceInfo      *ResourceInfo           `json:"resource_info,omitempty"`
	DangerScore       int                     `json:"danger_score"`
	DangerExplanation []string                `json:"danger_explanation"`
}

// JarReport 一个 JAR 的批量扫描汇总
type JarReport struct {
	ID                 string              `json:"id"`
	JarPath            string              `json:"jar_path"`
	ClassesScanned     int                 `json:"classes_scanned"`
	ClassesSkipped     int                 `json:"classes_skipped"` // 被包含/排除规则过滤
	Errors             int                 `json:"errors"`
	MaxDangerScore     int                 `json:"max_danger_score"`
	CustomJVMIndicator bool                `json:"custom_jvm_indicator"`
	Results            []*ScanResult       `json:"results"`
	FindingCounts      map[FindingType]int `json:"finding_counts"`
	DurationMs         int64               `json:"duration_ms"`
	StartedAt          time.Time           `json:"started_at"`
	CompletedAt        time.Time           `json:"completed_at"`
}
