package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jar-analysis/jar-analysis-go/internal/service"
)

// DefaultMaxUploadMB 默认上传大小上限
const DefaultMaxUploadMB = 256

// multipartOverhead 请求体中除文件内容以外的 multipart 头部和边界
const multipartOverhead = 1 << 20

// ScanHandler 扫描处理器
type ScanHandler struct {
	scanService service.ScanService
	logger      *logrus.Logger
	maxUpload   int64
}

// NewScanHandler 创建扫描处理器实例
func NewScanHandler(scanService service.ScanService, logger *logrus.Logger, maxUploadMB int) *ScanHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultMaxUploadMB
	}
	return &ScanHandler{
		scanService: scanService,
		logger:      logger,
		maxUpload:   int64(maxUploadMB) << 20,
	}
}

// CreateScan 上传并扫描 JAR
// POST /api/scans (multipart, 字段 file)
func (h *ScanHandler) CreateScan(c *gin.Context) {
	// 读取过程中超限即中止，不会把超大请求体先落盘
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.rejectTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "获取上传文件失败",
		})
		return
	}

	if file.Size > h.maxUpload {
		h.rejectTooLarge(c)
		return
	}

	// 保留原文件名，报告中的 JAR 名称与上传一致
	tmpDir, err := os.MkdirTemp("", "jarscan-upload-*")
	if err != nil {
		h.logger.WithError(err).Error("Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "创建上传目录失败",
		})
		return
	}
	defer os.RemoveAll(tmpDir)

	name := filepath.Base(file.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "upload.jar"
	}
	destPath := filepath.Join(tmpDir, name)

	if err := saveUpload(file, destPath); err != nil {
		h.logger.WithError(err).Error("Failed to save uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "文件上传失败",
		})
		return
	}

	mtype, err := mimetype.DetectFile(destPath)
	if err != nil || !isZipArchive(mtype) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "只支持 JAR/ZIP 文件格式",
		})
		return
	}

	report, err := h.scanService.ScanJar(c.Request.Context(), destPath)
	if err != nil {
		h.logger.WithError(err).WithField("filename", name).Error("Failed to scan JAR")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "扫描失败",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ScanHandler) rejectTooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"error": fmt.Sprintf("文件大小超过限制 (最大 %dMB)", h.maxUpload>>20),
	})
}

// ListScans 最近的扫描报告
// GET /api/scans?limit=20
func (h *ScanHandler) ListScans(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	reports, err := h.scanService.ListReports(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err, "查询扫描报告失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetScan 扫描报告详情
// GET /api/scans/:id
func (h *ScanHandler) GetScan(c *gin.Context) {
	id := c.Param("id")

	report, err := h.scanService.GetReport(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "查询扫描报告失败")
		return
	}

	results := json.RawMessage("[]")
	if report.ResultsJSON != "" {
		results = json.RawMessage(report.ResultsJSON)
	}
	report.ResultsJSON = ""

	c.JSON(http.StatusOK, gin.H{
		"report":  report,
		"results": results,
	})
}

// DeleteScan 删除扫描报告
// DELETE /api/scans/:id
func (h *ScanHandler) DeleteScan(c *gin.Context) {
	id := c.Param("id")

	if err := h.scanService.DeleteReport(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "删除扫描报告失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

func (h *ScanHandler) respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "扫描报告不存在"})
	case errors.Is(err, service.ErrNoRepository):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "未配置报告存储"})
	default:
		h.logger.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}

func saveUpload(file *multipart.FileHeader, destPath string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// isZipArchive JAR 的 MIME 类型以 application/zip 为父类型
func isZipArchive(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("application/zip") || strings.HasSuffix(m.String(), "java-archive") {
			return true
		}
	}
	return false
}
