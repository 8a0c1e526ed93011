package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/dupefinder/internal/ui/styles"
)

const (
	// MinTerminalWidth is the minimum recommended terminal width
	MinTerminalWidth = 80
	// MinTerminalHeight is the minimum recommended terminal height
	MinTerminalHeight = 24
)

// TruncatePath shortens a path to maxWidth, keeping the file name and as much
// of the directory as fits
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}

	if maxWidth < 10 {
		return "..."
	}

	dir, file := filepath.Split(path)

	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-4):]
	}

	availableForDir := maxWidth - len(file) - 3 // 3 for "..."
	if availableForDir < 10 {
		return ".../" + file
	}

	dir = filepath.Clean(dir)
	parts := strings.Split(dir, string(filepath.Separator))
	lastPart := parts[len(parts)-1]

	firstPart := parts[0]
	if firstPart == "" && len(parts) > 1 {
		firstPart = string(filepath.Separator) + parts[1]
	}

	// first/.../last/file
	if len(firstPart)+len(lastPart)+5 <= availableForDir && len(parts) > 2 {
		return firstPart + string(filepath.Separator) + "..." + string(filepath.Separator) + lastPart + string(filepath.Separator) + file
	}

	if len(lastPart)+2 > availableForDir {
		return ".../" + file
	}
	return "..." + string(filepath.Separator) + lastPart + string(filepath.Separator) + file
}

// CalculatePageSize calculates the number of list rows that fit on screen
// given the terminal height
func CalculatePageSize(terminalHeight int) int {
	// title, summary, status bar and help
	const reservedLines = 10

	pageSize := terminalHeight - reservedLines
	if pageSize < 5 {
		pageSize = 5
	}

	return pageSize
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner if terminal is too small
func GetSizeWarningBanner(width, height int) string {
	if !IsTerminalTooSmall(width, height) {
		return ""
	}

	warning := "⚠️  Terminal too small! Recommended: 80x24 or larger"
	if width > 0 && height > 0 {
		warning += styles.DimStyle.Render(" (current: ") +
			styles.WarningStyle.Render(fmt.Sprintf("%dx%d", width, height)) +
			styles.DimStyle.Render(")")
	}

	return styles.WarningStyle.Render(warning) + "\n\n"
}

// TruncateString truncates a string to maxLen, adding ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
