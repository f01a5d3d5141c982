package render

import "time"

// NextSleep returns how long to wait after emitting frame index so the next
// frame lands on its nominal time, (index+1)*interval after the sequence
// started. Running late shortens the wait and running early lengthens it.
// The result is kept within [0, 2*interval] so a single stall or clock jump
// cannot freeze playback.
func NextSleep(interval time.Duration, index int, elapsed time.Duration) time.Duration {
	nominal := time.Duration(index) * interval
	d := interval - (elapsed - nominal)
	if d < 0 {
		return 0
	}
	if d > 2*interval {
		return 2 * interval
	}
	return d
}
