package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		width int
		want  string
	}{
		{"fits", "/home/user/a.txt", 40, "/home/user/a.txt"},
		{"tiny width", "/home/user/a.txt", 5, "..."},
		{"keeps first and last dir", "/home/user/photos/2021/summer/beach.jpg", 34, "/home/.../summer/beach.jpg"},
		{"long file name", "/a/" + strings.Repeat("x", 40), 20, "..." + strings.Repeat("x", 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncatePath(tt.path, tt.width)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncatePath_NeverExceedsWidth(t *testing.T) {
	path := "/very/long/directory/structure/with/many/levels/and/a/file.txt"
	for width := 10; width < len(path); width++ {
		got := TruncatePath(path, width)
		assert.LessOrEqual(t, len(got), width, "width %d gave %q", width, got)
		assert.True(t, strings.HasSuffix(got, "file.txt") || strings.HasPrefix(got, "..."))
	}
}

func TestCalculatePageSize(t *testing.T) {
	assert.Equal(t, 5, CalculatePageSize(0))
	assert.Equal(t, 5, CalculatePageSize(12))
	assert.Equal(t, 30, CalculatePageSize(40))
}

func TestSizeWarningBanner(t *testing.T) {
	assert.Empty(t, GetSizeWarningBanner(120, 40))
	assert.Contains(t, GetSizeWarningBanner(60, 20), "Terminal too small")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "abc", TruncateString("abc", 5))
	assert.Equal(t, "ab...", TruncateString("abcdefgh", 5))
	assert.Equal(t, "...", TruncateString("abcdefgh", 2))
}
