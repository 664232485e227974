// Package jar 遍历 JAR/ZIP 归档中的类文件条目
package jar

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/jar-analysis/jar-analysis-go/internal/filter"
)

// 读取上限
const (
	DefaultMaxClassSize  = 32 << 20
	DefaultMaxNestedSize = 256 << 20

	nestedSeparator = "!/"
)

// Entry 一个类文件条目。Err 非空时 Data 为空，由调用方计为读取错误
type Entry struct {
	Path string
	Data []byte
	Info *domain.ResourceInfo
	Err  error
}

// VisitFunc 条目回调，返回错误会中止遍历
type VisitFunc func(entry Entry) error

// Stats 遍历统计
type Stats struct {
	Classes    int `json:"classes"`
	Skipped    int `json:"skipped"` // 被过滤规则跳过
	Oversized  int `json:"oversized"`
	NestedJars int `json:"nested_jars"`
}

// Walker 归档遍历器
type Walker struct {
	filter        *filter.PathFilter
	logger        *logrus.Logger
	MaxClassSize  int64
	MaxNestedSize int64
}

// NewWalker 创建遍历器，pathFilter 可以为 nil
func NewWalker(pathFilter *filter.PathFilter, logger *logrus.Logger) *Walker {
	return &Walker{
		filter:        pathFilter,
		logger:        logger,
		MaxClassSize:  DefaultMaxClassSize,
		MaxNestedSize: DefaultMaxNestedSize,
	}
}

// Walk 遍历 jarPath 中的 .class 条目，内嵌 JAR 展开一层。
// 每个条目之间检查 ctx，已开始的回调总会执行完
func (w *Walker) Walk(ctx context.Context, jarPath string, fn VisitFunc) (stats Stats, err error) {
	reader, err := zip.OpenReader(jarPath)
	if err != nil {
		return stats, fmt.Errorf("open jar %s: %w", jarPath, err)
	}
	defer func() {
		err = multierr.Append(err, reader.Close())
	}()

	err = w.walkArchive(ctx, &reader.Reader, jarPath, "", 0, &stats, fn)
	return stats, err
}

func (w *Walker) walkArchive(ctx context.Context, r *zip.Reader, jarPath, prefix string, depth int, stats *Stats, fn VisitFunc) error {
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			continue
		}

		name := f.Name
		switch {
		case strings.HasSuffix(name, ".class"):
			if reason := w.filter.ShouldSkip(name); reason != "" {
				stats.Skipped++
				continue
			}
			if int64(f.UncompressedSize64) > w.MaxClassSize {
				stats.Oversized++
				w.logger.WithFields(logrus.Fields{"jar": jarPath, "entry": name, "size": f.UncompressedSize64}).Warn("类文件过大，已跳过")
				continue
			}

			stats.Classes++
			if err := fn(w.readEntry(f, jarPath, prefix)); err != nil {
				return err
			}

		case depth == 0 && strings.HasSuffix(strings.ToLower(name), ".jar"):
			if int64(f.UncompressedSize64) > w.MaxNestedSize {
				stats.Oversized++
				continue
			}
			data, err := readLimited(f, w.MaxNestedSize)
			if err != nil {
				w.logger.WithFields(logrus.Fields{"jar": jarPath, "entry": name, "error": err}).Warn("读取内嵌 JAR 失败")
				continue
			}
			nested, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				w.logger.WithFields(logrus.Fields{"jar": jarPath, "entry": name, "error": err}).Debug("内嵌条目不是有效的 ZIP")
				continue
			}

			stats.NestedJars++
			if err := w.walkArchive(ctx, nested, jarPath, name+nestedSeparator, depth+1, stats, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Walker) readEntry(f *zip.File, jarPath, prefix string) Entry {
	path := prefix + f.Name
	entry := Entry{Path: path}

	data, err := readLimited(f, w.MaxClassSize)
	if err != nil {
		entry.Err = err
		return entry
	}

	sum := sha256.Sum256(data)
	containing := jarPath
	if prefix != "" {
		containing = jarPath + nestedSeparator + strings.TrimSuffix(prefix, nestedSeparator)
	}

	entry.Data = data
	entry.Info = &domain.ResourceInfo{
		Path:    path,
		JarPath: containing,
		Size:    int64(len(data)),
		SHA256:  hex.EncodeToString(sum[:]),
	}
	return entry
}

// readLimited 按上限读取，不信任头部声明的大小
func readLimited(f *zip.File, limit int64) (data []byte, err error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, rc.Close())
	}()

	data, err = io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("entry %s exceeds %d bytes", f.Name, limit)
	}
	return data, nil
}
