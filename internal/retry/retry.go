package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Strategy 退避策略
type Strategy string

const (
	StrategyFixed       Strategy = "fixed"       // 固定间隔
	StrategyLinear      Strategy = "linear"      // 线性递增
	StrategyExponential Strategy = "exponential" // 指数退避
)

// Config 重试配置
type Config struct {
	Operation       string        // 日志中的操作名
	MaxAttempts     int           // 最大尝试次数
	InitialInterval time.Duration // 初始间隔
	MaxInterval     time.Duration // 最大间隔
	Strategy        Strategy
	Logger          *logrus.Logger
}

// DefaultConfig 默认配置：3 次，指数退避 500ms 起
func DefaultConfig(operation string, logger *logrus.Logger) *Config {
	return &Config{
		Operation:       operation,
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Strategy:        StrategyExponential,
		Logger:          logger,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 包装不应重试的错误
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable 判断错误是否可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var pe *permanentError
	switch {
	case errors.As(err, &pe):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// Func 可重试的函数类型
type Func func(ctx context.Context) error

// Do 执行带重试的操作
func Do(ctx context.Context, config *Config, fn Func) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	var lastErr error
	interval := config.InitialInterval

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s canceled: %w", config.Operation, err)
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.WithFields(logrus.Fields{
					"operation": config.Operation,
					"attempt":   attempt,
				}).Info("Operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return fmt.Errorf("%s: %w", config.Operation, err)
		}
		if attempt >= config.MaxAttempts {
			break
		}

		interval = nextInterval(config.Strategy, config.InitialInterval, config.MaxInterval, attempt)
		log.WithFields(logrus.Fields{
			"operation": config.Operation,
			"attempt":   attempt,
			"max":       config.MaxAttempts,
			"wait":      interval,
			"error":     err.Error(),
		}).Warn("Operation failed, retrying")

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s canceled during wait: %w", config.Operation, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s: max attempts (%d) reached: %w", config.Operation, config.MaxAttempts, lastErr)
}

// nextInterval 第 attempt 次失败后的等待时间
func nextInterval(strategy Strategy, initial, limit time.Duration, attempt int) time.Duration {
	var next time.Duration

	switch strategy {
	case StrategyLinear:
		next = initial * time.Duration(attempt)
	case StrategyExponential:
		next = initial * time.Duration(1<<(attempt-1))
	default:
		next = initial
	}

	if limit > 0 && next > limit {
		next = limit
	}
	return next
}

// DoWithResult 执行带重试的操作并返回结果
func DoWithResult[T any](ctx context.Context, config *Config, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, config, func(ctx context.Context) error {
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}
