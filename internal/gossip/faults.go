package gossip

// SetFaultInjection configures this node's process-local fault knobs.
// dropProb is clamped to [0, 1]; delayMs must be non-negative.
func (l *Layer) SetFaultInjection(dropProb float64, delayMs int) {
	if dropProb < 0 {
		dropProb = 0
	}
	if dropProb > 1 {
		dropProb = 1
	}
	if delayMs < 0 {
		delayMs = 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropProb = dropProb
	l.delayMs = delayMs
}

// FaultInjection reports the currently configured drop probability and
// delay, in that order.
func (l *Layer) FaultInjection() (dropProb float64, delayMs int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropProb, l.delayMs
}

// Crashed reports whether the layer is currently in the crashed state.
func (l *Layer) Crashed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.crashed
}
