package program

import "strings"

// Accent colors keyed by difficulty.
const (
	ColorPrimary      = "var(--primary-gold)"
	ColorIntermediate = "var(--secondary-gold)"
	ColorAdvanced     = "#e74c3c"
)

// AccentColor picks the card accent from a difficulty label by
// case-insensitive substring match. "advanced" wins over "intermediate";
// anything else, including "beginner", gets the primary color.
func AccentColor(difficulty string) string {
	d := strings.ToLower(difficulty)
	switch {
	case strings.Contains(d, "advanced"):
		return ColorAdvanced
	case strings.Contains(d, "intermediate"):
		return ColorIntermediate
	default:
		return ColorPrimary
	}
}
