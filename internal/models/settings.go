package models

// Font sizes accepted by Settings
const (
	FontSmall  = "small"
	FontMedium = "medium"
	FontLarge  = "large"
)

// Settings holds reader preferences for the device profile
type Settings struct {
	NightMode bool   `json:"night_mode"`
	FontSize  string `json:"font_size"`
	DeviceID  string `json:"device_id"`
}

// ValidFontSize reports whether size is one of the supported font sizes
func ValidFontSize(size string) bool {
	switch size {
	case FontSmall, FontMedium, FontLarge:
		return true
	}
	return false
}
