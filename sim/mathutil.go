package sim

// clip bounds x to [lo, hi]. Callers guarantee lo <= hi.
func clip(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}
