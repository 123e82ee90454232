// Package ui provides message printing utilities.
package ui

import (
	"fmt"
	"strings"

	"github.com/funmagic/taskwatch/internal/status"
)

// quietMode suppresses informational output. Errors are always printed.
var quietMode bool

// SetQuietMode enables or disables quiet mode.
func SetQuietMode(quiet bool) {
	quietMode = quiet
}

// IsQuietMode reports whether quiet mode is on.
func IsQuietMode() bool {
	return quietMode
}

// Println prints an empty line.
func Println() {
	if quietMode {
		return
	}
	fmt.Println()
}

// PrintSuccess prints a success message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintSuccess(format string, args ...interface{}) {
	if quietMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Println(SuccessStyle.Render("✓ " + msg))
}

// PrintError prints an error message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(ErrorStyle.Render("✗ " + msg))
}

// PrintWarning prints a warning message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintWarning(format string, args ...interface{}) {
	if quietMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Println(WarningStyle.Render("⚠ " + msg))
}

// PrintInfo prints an informational message.
//
// Parameters:
//   - format: Printf format string
//   - args: Printf arguments
func PrintInfo(format string, args ...interface{}) {
	if quietMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Println(InfoStyle.Render(msg))
}

// PrintDim prints a dimmed message.
func PrintDim(format string, args ...interface{}) {
	if quietMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Println(DimStyle.Render(msg))
}

// PrintLink prints a labelled URL.
func PrintLink(label, url string) {
	if quietMode {
		return
	}
	fmt.Printf("%s %s\n", DimStyle.Render(label+":"), LinkStyle.Render(url))
}

// PrintKeyValues prints aligned key/value rows, skipping empty values.
//
// Parameters:
//   - rows: Alternating keys and values
func PrintKeyValues(rows ...string) {
	if quietMode {
		return
	}
	width := 0
	for i := 0; i+1 < len(rows); i += 2 {
		if rows[i+1] != "" {
			width = max(width, len(rows[i]))
		}
	}
	for i := 0; i+1 < len(rows); i += 2 {
		if rows[i+1] == "" {
			continue
		}
		key := TableHeaderStyle.Render(rows[i] + ":" + strings.Repeat(" ", width-len(rows[i])))
		fmt.Printf("  %s %s\n", key, rows[i+1])
	}
}

// StyledStatus returns the status icon and name, colored by category.
//
// Parameters:
//   - statusStr: A status name such as "processing" or "failed"
//
// Returns:
//   - string: The styled "icon name" pair
func StyledStatus(statusStr string) string {
	return getStyledStatusIcon(statusStr) + " " + statusStr
}

// getStyledStatusIcon returns a styled status icon based on the status string.
// Uses the shared status package for consistent icon and category mapping.
//
// Parameters:
//   - statusStr: The status string to get an icon for
//
// Returns:
//   - string: The styled icon string
func getStyledStatusIcon(statusStr string) string {
	icon := status.StatusIcon(statusStr)

	switch status.StatusCategory(statusStr) {
	case "info":
		return InfoStyle.Render(icon)
	case "success":
		return SuccessStyle.Render(icon)
	case "error":
		return ErrorStyle.Render(icon)
	default:
		return DimStyle.Render(icon)
	}
}
