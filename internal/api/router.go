package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/jar-analysis/jar-analysis-go/internal/api/handlers"
	"github.com/jar-analysis/jar-analysis-go/internal/config"
	"github.com/jar-analysis/jar-analysis-go/internal/middleware"
	"github.com/jar-analysis/jar-analysis-go/internal/service"
)

// Version 服务版本，由 cli 在构建时覆盖
var Version = "dev"

// SetupRouter 注册所有路由。gatherer 或 httpMetrics 为空时不暴露对应指标
func SetupRouter(cfg *config.Config, logger *logrus.Logger, scanService service.ScanService, gatherer prometheus.Gatherer, httpMetrics *middleware.HTTPMetrics) *gin.Engine {
	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))
	r.Use(CORSMiddleware())

	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware())
	}

	// 超过该大小的上传写入临时文件
	r.MaxMultipartMemory = 32 << 20

	if gatherer != nil {
		r.GET("/metrics", middleware.Handler(gatherer))
	}

	scanHandler := handlers.NewScanHandler(scanService, logger, cfg.Server.MaxUploadMB)

	v1 := r.Group("/api")
	{
		// 健康检查（无需认证）
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":               "ok",
				"version":              Version,
				"custom_jvm_indicator": scanService.CustomJVMIndicator(),
			})
		})

		scans := v1.Group("/scans")
		scans.Use(middleware.TokenAuth(cfg.Server.APIToken))
		{
			scans.POST("", scanHandler.CreateScan)
			scans.GET("", scanHandler.ListScans)
			scans.GET("/:id", scanHandler.GetScan)
			scans.DELETE("/:id", scanHandler.DeleteScan)
		}
	}

	return r
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		logger.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"latency": latency.Milliseconds(),
		}).Info("HTTP Request")
	}
}

// CORSMiddleware CORS 中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
