package leaderboard

import "fmt"

// FormatLapTime renders a lap time as m:ss.hh. Minutes are not padded and
// hundredths are truncated.
func FormatLapTime(ms uint32) string {
	minutes := ms / 60000
	seconds := ms / 1000 % 60
	hundredths := ms % 1000 / 10
	return fmt.Sprintf("%d:%02d.%02d", minutes, seconds, hundredths)
}
