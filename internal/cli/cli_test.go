package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jar-analysis/jar-analysis-go/internal/classfile/classfiletest"
	"github.com/jar-analysis/jar-analysis-go/internal/domain"
)

const testWebhook = "https://discord.com/api/webhooks/123456789012345678/AbCdEfGhIjKlMnOp_qrstuv-wxyz"

func writeJar(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mod.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func cleanClass() []byte {
	return classfiletest.NewBuilder("com/example/PlayerManager", "java/lang/Object").
		AddMethod("<init>", "()V").
		AddMethod("update", "()V").
		Build()
}

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	root := newRootCmd(io.Discard)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	code := run(root, args)
	return code, out.String()
}

// TestScan_CleanJar 干净的 JAR 返回 0
func TestScan_CleanJar(t *testing.T) {
	jarPath := writeJar(t, map[string][]byte{
		"com/example/PlayerManager.class": cleanClass(),
	})

	code, out := execute(t, "scan", jarPath)
	assert.Equal(t, ExitOK, code, out)
	assert.Contains(t, out, jarPath)
	assert.Contains(t, out, "classes: 1")
}

// TestScan_FlaggedJar 含 webhook 的类返回 2
func TestScan_FlaggedJar(t *testing.T) {
	jarPath := writeJar(t, map[string][]byte{
		"com/example/PlayerManager.class": cleanClass(),
		"com/example/Stealer.class": classfiletest.NewBuilder("com/example/Stealer", "java/lang/Object").
			AddString(testWebhook).
			Build(),
	})

	code, out := execute(t, "scan", jarPath)
	assert.Equal(t, ExitFlagged, code)
	assert.Contains(t, out, "com/example/Stealer.class")
	assert.Contains(t, out, "discord_webhook")
}

// TestScan_NonStandardClass 非标准类文件同样返回 2
func TestScan_NonStandardClass(t *testing.T) {
	jarPath := writeJar(t, map[string][]byte{
		"a/Loader.class": {0xDE, 0xAD, 0xBE, 0xEF},
	})

	code, out := execute(t, "scan", jarPath)
	assert.Equal(t, ExitFlagged, code)
	assert.Contains(t, out, "non-standard class files")
}

// TestScan_JSON JSON 输出可以被解析
func TestScan_JSON(t *testing.T) {
	jarPath := writeJar(t, map[string][]byte{
		"com/example/Stealer.class": classfiletest.NewBuilder("com/example/Stealer", "java/lang/Object").
			AddString(testWebhook).
			Build(),
	})

	code, out := execute(t, "scan", "--format", "json", jarPath)
	assert.Equal(t, ExitFlagged, code)

	var reports []*domain.JarReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, 10, reports[0].MaxDangerScore)
	require.Len(t, reports[0].Results, 1)
	assert.Equal(t, "com/example/Stealer.class", reports[0].Results[0].FilePath)
}

// TestScan_SARIF SARIF 输出
func TestScan_SARIF(t *testing.T) {
	jarPath := writeJar(t, map[string][]byte{
		"com/example/Stealer.class": classfiletest.NewBuilder("com/example/Stealer", "java/lang/Object").
			AddString(testWebhook).
			Build(),
	})

	code, out := execute(t, "scan", "-f", "sarif", jarPath)
	assert.Equal(t, ExitFlagged, code)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "2.1.0", doc["version"])
	assert.Contains(t, out, "discord_webhook")
}

// TestScan_UnknownFormat 未知格式
func TestScan_UnknownFormat(t *testing.T) {
	jarPath := writeJar(t, map[string][]byte{"a/B.class": cleanClass()})
	code, out := execute(t, "scan", "--format", "xml", jarPath)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "unknown output format")
}

// TestScan_ExcludeFilter 排除规则跳过可疑类
func TestScan_ExcludeFilter(t *testing.T) {
	jarPath := writeJar(t, map[string][]byte{
		"com/example/PlayerManager.class": cleanClass(),
		"com/example/Stealer.class": classfiletest.NewBuilder("com/example/Stealer", "java/lang/Object").
			AddString(testWebhook).
			Build(),
	})

	code, out := execute(t, "scan", "--exclude", "*Stealer*", jarPath)
	assert.Equal(t, ExitOK, code, out)
	assert.Contains(t, out, "skipped: 1")
}

// TestScan_MissingFile 文件不存在返回 1
func TestScan_MissingFile(t *testing.T) {
	code, out := execute(t, "scan", filepath.Join(t.TempDir(), "missing.jar"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, out, "Error:")
}

// TestScan_PartialFailure 单个 JAR 失败时继续扫描其余 JAR 并输出已有报告
func TestScan_PartialFailure(t *testing.T) {
	good := writeJar(t, map[string][]byte{
		"com/example/PlayerManager.class": cleanClass(),
	})
	missing := filepath.Join(t.TempDir(), "missing.jar")

	root := newRootCmd(io.Discard)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	code := run(root, []string{"scan", "--format", "json", good, missing})

	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr.String(), "1 of 2 JAR(s) failed to scan")

	var reports []*domain.JarReport
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, good, reports[0].JarPath)
	assert.Equal(t, 1, reports[0].ClassesScanned)
}

// TestScan_PartialFailureFlagged 可疑结果优先于扫描失败
func TestScan_PartialFailureFlagged(t *testing.T) {
	flagged := writeJar(t, map[string][]byte{
		"com/example/Stealer.class": classfiletest.NewBuilder("com/example/Stealer", "java/lang/Object").
			AddString(testWebhook).
			Build(),
	})
	missing := filepath.Join(t.TempDir(), "missing.jar")

	code, out := execute(t, "scan", missing, flagged)
	assert.Equal(t, ExitFlagged, code)
	assert.Contains(t, out, "scan failed")
	assert.Contains(t, out, "com/example/Stealer.class")
}

// TestScan_RequiresArgs 缺少参数返回 1
func TestScan_RequiresArgs(t *testing.T) {
	code, _ := execute(t, "scan")
	assert.Equal(t, ExitError, code)
}

// TestVersion 版本信息
func TestVersion(t *testing.T) {
	code, out := execute(t, "version")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out, "jarscan "+Version)
}

// TestIsFlagged 判定规则
func TestIsFlagged(t *testing.T) {
	assert.False(t, isFlagged(&domain.JarReport{}, 4))
	assert.True(t, isFlagged(&domain.JarReport{CustomJVMIndicator: true}, 4))
	assert.True(t, isFlagged(&domain.JarReport{Results: []*domain.ScanResult{{DangerScore: 4}}}, 4))
	assert.False(t, isFlagged(&domain.JarReport{Results: []*domain.ScanResult{{DangerScore: 3}}}, 4))
}
