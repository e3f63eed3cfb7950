package systems

// Wrap maps v onto [0, n) with toroidal wrapping.
func Wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
