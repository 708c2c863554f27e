package loader

// TilingTracker keeps the running extent of every texture coordinate observed so far.
// The extent starts at the origin, so an all-positive set of coordinates is measured from 0.
type TilingTracker struct {
	minU, maxU float32
	minV, maxV float32
	frozen     bool
}

// Observe widens the tracked extent to include (u, v). It has no effect once the tracker is frozen.
//
// Parameters:
//   - u: the authored u component
//   - v: the authored v component
func (t *TilingTracker) Observe(u, v float32) {
	if t.frozen {
		return
	}
	t.minU = min(t.minU, u)
	t.maxU = max(t.maxU, u)
	t.minV = min(t.minV, v)
	t.maxV = max(t.maxV, v)
}

// Freeze stops further observations so Factor reports a fixed extent.
func (t *TilingTracker) Freeze() {
	t.frozen = true
}

// Factor returns the tiling factor for the extent observed so far: max(1, |max-min|) per axis.
//
// Returns:
//   - [2]float32: the u and v repeat factors, each at least 1
func (t *TilingTracker) Factor() [2]float32 {
	return [2]float32{
		max(1, abs32(t.maxU-t.minU)),
		max(1, abs32(t.maxV-t.minV)),
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
