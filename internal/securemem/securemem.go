// Package securemem wipes secret byte material explicitly instead of
// waiting for the garbage collector.
package securemem

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// IsZero reports whether every byte of b is zero, without branching on the
// contents.
func IsZero(b []byte) bool {
	acc := byte(0)
	for _, v := range b {
		acc |= v
	}
	return acc == 0
}
