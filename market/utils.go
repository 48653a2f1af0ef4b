package market

import (
	"fmt"
	"strings"
	"time"
)

var estNoDST = time.FixedZone("EST", -5*60*60)

// Dukascopy/HistData export layout, always in EST without daylight saving.
const layout = "20060102 150405"

var csvLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseEST(s string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), estNoDST)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil // normalize immediately
}

// parseTime accepts the layouts of comma separated exports; times without
// a zone are UTC.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range csvLayouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// TimeframeString names a candle duration, e.g. M1, H1, D1.
func TimeframeString(tf time.Duration) (string, error) {
	sec := int64(tf / time.Second)
	if sec <= 0 || tf%time.Second != 0 {
		return "", fmt.Errorf("invalid timeframe: %s", tf)
	}

	// Minutes
	if sec < 3600 && sec%60 == 0 {
		return fmt.Sprintf("M%d", sec/60), nil
	}

	// Hours
	if sec < 86400 && sec%3600 == 0 {
		return fmt.Sprintf("H%d", sec/3600), nil
	}

	// Days
	if sec%86400 == 0 {
		days := sec / 86400
		if days == 7 {
			return "W1", nil
		}
		return fmt.Sprintf("D%d", days), nil
	}

	return "", fmt.Errorf("cannot map timeframe: %s", tf)
}

// ParseTimeframe is the inverse of TimeframeString for the supported names.
func ParseTimeframe(tf string) (time.Duration, error) {
	switch strings.ToUpper(strings.TrimSpace(tf)) {
	case "M1":
		return time.Minute, nil
	case "M5":
		return 5 * time.Minute, nil
	case "M15":
		return 15 * time.Minute, nil
	case "M30":
		return 30 * time.Minute, nil
	case "H1":
		return time.Hour, nil
	case "H4":
		return 4 * time.Hour, nil
	case "D1":
		return 24 * time.Hour, nil
	case "W1":
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported timeframe string: %s", tf)
	}
}
