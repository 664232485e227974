package scanner

import (
	"errors"
	"fmt"
)

// ErrorKind 扫描错误分类
type ErrorKind string

const (
	ErrKindParse ErrorKind = "parse" // 类文件结构损坏
	ErrKindIO    ErrorKind = "io"    // 调用方读取资源失败
)

// ScanError 单个文件的扫描错误，不影响批量中的其他文件
type ScanError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %s error: %v", e.Path, e.Kind, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// NewParseError 包装解析错误
func NewParseError(path string, err error) *ScanError {
	return &ScanError{Kind: ErrKindParse, Path: path, Err: err}
}

// NewIOError 包装调用方的读取错误
func NewIOError(path string, err error) *ScanError {
	return &ScanError{Kind: ErrKindIO, Path: path, Err: err}
}

// IsParseError 是否为解析错误
func IsParseError(err error) bool {
	var se *ScanError
	return errors.As(err, &se) && se.Kind == ErrKindParse
}

// IsIOError 是否为读取错误
func IsIOError(err error) bool {
	var se *ScanError
	return errors.As(err, &se) && se.Kind == ErrKindIO
}
