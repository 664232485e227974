package retry

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testConfig(attempts int) *Config {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := DefaultConfig("test", logger)
	cfg.MaxAttempts = attempts
	cfg.InitialInterval = time.Millisecond
	return cfg
}

// TestDo_Success 第一次就成功
func TestDo_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), testConfig(3), func(ctx context.Context) error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

// TestDo_SuccessAfterRetries 重试后成功
func TestDo_SuccessAfterRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), testConfig(5), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

// TestDo_MaxAttemptsReached 达到最大尝试次数
func TestDo_MaxAttemptsReached(t *testing.T) {
	attempts := 0
	cause := errors.New("persistent error")
	err := Do(context.Background(), testConfig(3), func(ctx context.Context) error {
		attempts++
		return cause
	})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "max attempts")
}

// TestDo_Permanent 不可重试错误立即返回
func TestDo_Permanent(t *testing.T) {
	attempts := 0
	cause := errors.New("bad dsn")
	err := Do(context.Background(), testConfig(5), func(ctx context.Context) error {
		attempts++
		return Permanent(cause)
	})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, attempts)
}

// TestDo_ContextCanceled 等待期间取消
func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig(10)
	cfg.InitialInterval = time.Hour

	attempts := 0
	err := Do(ctx, cfg, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("slow operation")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

// TestNextInterval 各策略的间隔
func TestNextInterval(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, base, nextInterval(StrategyFixed, base, time.Second, 3))
	assert.Equal(t, 300*time.Millisecond, nextInterval(StrategyLinear, base, time.Second, 3))
	assert.Equal(t, 400*time.Millisecond, nextInterval(StrategyExponential, base, time.Second, 3))
	assert.Equal(t, time.Second, nextInterval(StrategyExponential, base, time.Second, 10))
}

// TestDoWithResult 返回结果
func TestDoWithResult(t *testing.T) {
	attempts := 0
	v, err := DoWithResult(context.Background(), testConfig(3), func(ctx context.Context) (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("first call fails")
		}
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = DoWithResult(context.Background(), testConfig(2), func(ctx context.Context) (string, error) {
		return "", errors.New("always")
	})
	assert.Error(t, err)
}

// TestIsRetryable 默认分类
func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(Permanent(errors.New("x"))))
	assert.True(t, IsRetryable(errors.New("connection refused")))
	assert.Nil(t, Permanent(nil))
}
