package ui

import (
	"fmt"
	"strings"

	"github.com/example/testmend/internal/domain"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// PrintHeader prints a section header
func PrintHeader(title string) {
	line := strings.Repeat("=", len(title)+4)
	fmt.Printf("\n%s%s%s\n", colorBold+colorBlue, line, colorReset)
	fmt.Printf("%s  %s  %s\n", colorBold+colorBlue, title, colorReset)
	fmt.Printf("%s%s%s\n\n", colorBold+colorBlue, line, colorReset)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("%s✓%s %s\n", colorGreen, colorReset, message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("%s✗%s %s\n", colorRed, colorReset, message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("%s⚠%s %s\n", colorYellow, colorReset, message)
}

// PrintInfo prints an informational message
func PrintInfo(message string) {
	fmt.Printf("  %s\n", message)
}

// PrintMuted prints de-emphasized detail text
func PrintMuted(message string) {
	fmt.Printf("  %s%s%s\n", colorGray, message, colorReset)
}

// StatusLabel renders a flaky status with its conventional color.
func StatusLabel(status domain.FlakyStatus) string {
	switch status {
	case domain.FlakyStatusStable, domain.FlakyStatusResolved:
		return colorGreen + string(status) + colorReset
	case domain.FlakyStatusFlaky:
		return colorRed + string(status) + colorReset
	case domain.FlakyStatusQuarantined:
		return colorYellow + string(status) + colorReset
	default:
		return colorCyan + string(status) + colorReset
	}
}

// ScoreBar renders a 10-slot bar for a [0,1] score.
func ScoreBar(score float64) string {
	filled := int(score*10 + 0.5)
	if filled > 10 {
		filled = 10
	}
	return fmt.Sprintf("[%s%s] %.2f",
		strings.Repeat("#", filled), strings.Repeat("-", 10-filled), score)
}
