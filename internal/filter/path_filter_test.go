package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPathFilter_ShouldSkip 测试包含/排除规则
func TestPathFilter_ShouldSkip(t *testing.T) {
	f, err := NewPathFilter(
		[]string{"com/example/*", "*Main.class"},
		[]string{"*/internal/*", "com/example/Gen?.class"},
	)
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"Included Deep Path", "com/example/a/b/C.class", ""},
		{"Included By Suffix", "org/other/Main.class", ""},
		{"Excluded Wins", "com/example/internal/X.class", ReasonExcluded},
		{"Single Char Wildcard", "com/example/Gen1.class", ReasonExcluded},
		{"Single Char Needs One", "com/example/Gen12.class", ""},
		{"Not Included", "org/other/Util.class", ReasonNotIncluded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.ShouldSkip(tt.path))
		})
	}
}

// TestPathFilter_Empty 没有规则时全部保留
func TestPathFilter_Empty(t *testing.T) {
	f, err := NewPathFilter(nil, []string{"  "})
	require.NoError(t, err)
	assert.True(t, f.Allowed("anything/At/All.class"))

	var nilFilter *PathFilter
	assert.True(t, nilFilter.Allowed("x.class"))
}

// TestPathFilter_Literal 正则元字符按字面匹配
func TestPathFilter_Literal(t *testing.T) {
	f, err := NewPathFilter(nil, []string{"a+b(c).class"})
	require.NoError(t, err)
	assert.False(t, f.Allowed("a+b(c).class"))
	assert.True(t, f.Allowed("aab(c).class"))
}
