package coordinator

// untilDone tracks the bounded auto-continuation loop for one session. When
// enabled, every normally completed turn is followed by an automatic
// continuation prompt until the backend signals completion or the iteration
// cap is reached.
type untilDone struct {
	enabled    bool
	iterations int
	max        int
	// capNotified ensures the cap notification fires once per activation.
	capNotified bool
}

// enable arms the loop with the given iteration cap and resets counters.
func (u *untilDone) enable(max int) {
	u.enabled = true
	u.iterations = 0
	u.max = max
	u.capNotified = false
}

// disable turns the loop off. Counters are kept for inspection.
func (u *untilDone) disable() {
	u.enabled = false
}

// next consumes one completed turn and decides whether another continuation
// should be sent. Reaching the cap disables the loop and returns capped=true
// exactly once per activation.
func (u *untilDone) next() (proceed, capped bool) {
	if !u.enabled {
		return false, false
	}
	u.iterations++
	if u.iterations >= u.max {
		u.enabled = false
		if !u.capNotified {
			u.capNotified = true
			return false, true
		}
		return false, false
	}
	return true, false
}
