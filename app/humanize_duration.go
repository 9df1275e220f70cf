package app

import "fmt"

// humanizeDuration renders an uptime in seconds as the largest two useful
// units, e.g. "3d 07h" or "12m".
func humanizeDuration(seconds int64) string {
	const (
		minute = 60
		hour   = 3600
		day    = 86400
	)

	days := seconds / day
	seconds %= day
	hours := seconds / hour
	seconds %= hour
	minutes := seconds / minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %02dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %02dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm", minutes)
	default:
		return "<1m"
	}
}
