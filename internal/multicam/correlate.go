package multicam

import "math"

// correlate slides the target envelope across the master and returns the
// band lag with the highest normalized cross-correlation. Positive lag means
// the target's content appears later in the master, i.e. the target camera
// started recording later. ok is false when no lag in range offers at least
// minOverlap bands of overlap.
func correlate(master, target []float64, maxLag, minOverlap int) (lag int, score float64, ok bool) {
	if minOverlap < 1 {
		minOverlap = 1
	}

	var (
		bestLag   int
		bestScore float64
		found     bool
	)
	for k := -maxLag; k <= maxLag; k++ {
		// Overlap window pairs master[i+k] with target[i].
		lo := 0
		if k < 0 {
			lo = -k
		}
		hi := len(target)
		if rest := len(master) - k; rest < hi {
			hi = rest
		}
		n := hi - lo
		if n < minOverlap {
			continue
		}

		r := pearson(master[lo+k:lo+k+n], target[lo:lo+n])
		if !found || r > bestScore || (r == bestScore && absInt(k) < absInt(bestLag)) {
			bestLag, bestScore, found = k, r, true
		}
	}
	return bestLag, bestScore, found
}

// pearson computes the correlation coefficient of two equal-length series.
// Flat series have no variance to correlate against and score zero.
func pearson(a, b []float64) float64 {
	n := float64(len(a))
	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/n, sumB/n

	var cov, varA, varB float64
	for i := range a {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
