package domain

import "time"

// ScanReport JAR 扫描报告表
type ScanReport struct {
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	JarPath string `gorm:"type:varchar(512);index:idx_jar_path" json:"jar_path"`
	JarName string `gorm:"type:varchar(255)" json:"jar_name"`

	// 统计
	ClassesScanned int `gorm:"default:0" json:"classes_scanned"`
	ClassesFlagged int `gorm:"default:0" json:"classes_flagged"`
	ClassesSkipped int `gorm:"default:0" json:"classes_skipped"`
	Errors         int `gorm:"default:0" json:"errors"`

	// 结论
	MaxDangerScore     int    `gorm:"default:1" json:"max_danger_score"`
	Verdict            string `gorm:"type:varchar(64)" json:"verdict"`
	CustomJVMIndicator bool   `gorm:"default:false" json:"custom_jvm_indicator"`

	// 完整 JSON 数据
	ResultsJSON string `gorm:"type:text" json:"results_json,omitempty"`

	DurationMs  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (ScanReport) TableName() string {
	return "scan_reports"
}
