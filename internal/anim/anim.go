// Package anim evaluates keyframed property curves. It is deliberately free
// of timeline types: callers hand it a static fallback and a sorted key list,
// and it answers for any local time, in any order, with no state between
// calls. Scrubbing backward is the same as playing forward.
package anim

import "sort"

// Easing names accepted on a Key. Unknown strings fall back to linear.
const (
	Linear = "linear"
	Bezier = "bezier"
	Hold   = "hold"
)

// Handle is a bezier tangent relative to its key: DT seconds along the time
// axis, DV along the value axis. Out handles point forward (DT ≥ 0), In
// handles backward (DT ≤ 0); evaluation clamps the time component into the
// segment either way.
type Handle struct {
	DT float64
	DV float64
}

// Key is one sample on a property curve. Keys must be sorted ascending by
// Time with unique times; both are the caller's contract.
type Key struct {
	Time   float64
	Value  float64
	Easing string
	Out    *Handle
	In     *Handle
}

// Evaluate returns the property value at time t. With no keys the static
// value answers. Before the first key and after the last the curve holds the
// boundary value. Between two keys the leading key's easing picks the blend.
func Evaluate(static float64, keys []Key, t float64) float64 {
	if len(keys) == 0 {
		return static
	}
	if t <= keys[0].Time {
		return keys[0].Value
	}
	last := keys[len(keys)-1]
	if t >= last.Time {
		return last.Value
	}

	// First key strictly after t; its predecessor leads the segment.
	i := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	k0, k1 := keys[i-1], keys[i]

	switch k0.Easing {
	case Hold:
		return k0.Value
	case Bezier:
		return bezierValue(k0, k1, t)
	default:
		f := (t - k0.Time) / (k1.Time - k0.Time)
		return k0.Value + (k1.Value-k0.Value)*f
	}
}

// bezierValue evaluates the cubic segment k0→k1 at time t. Control points
// come from k0's out handle and k1's in handle; a missing handle defaults to
// a third of the chord, which degenerates to exact linear interpolation.
func bezierValue(k0, k1 Key, t float64) float64 {
	dx := k1.Time - k0.Time
	dy := k1.Value - k0.Value

	x1, y1 := k0.Time+dx/3, k0.Value+dy/3
	if k0.Out != nil {
		x1, y1 = k0.Time+k0.Out.DT, k0.Value+k0.Out.DV
	}
	x2, y2 := k1.Time-dx/3, k1.Value-dy/3
	if k1.In != nil {
		x2, y2 = k1.Time+k1.In.DT, k1.Value+k1.In.DV
	}

	// Normalize the time axis to [0,1]. Clamping the control abscissae into
	// the segment keeps x(u) monotonic, so the u we solve for is unique.
	cx1 := clamp01((x1 - k0.Time) / dx)
	cx2 := clamp01((x2 - k0.Time) / dx)
	tx := (t - k0.Time) / dx

	u := solveCurveX(cx1, cx2, tx)
	return sampleCubic(k0.Value, y1, y2, k1.Value, u)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sampleCubic evaluates a 1-D cubic bezier with the four control ordinates at
// parameter u.
func sampleCubic(p0, p1, p2, p3, u float64) float64 {
	w := 1 - u
	return w*w*w*p0 + 3*w*w*u*p1 + 3*w*u*u*p2 + u*u*u*p3
}

// solveCurveX finds the parameter u where the normalized time-axis bezier
// (0, x1, x2, 1) reaches x. Newton converges in a handful of steps on sane
// curves; flat spots fall back to bisection.
func solveCurveX(x1, x2, x float64) float64 {
	const epsilon = 1e-7

	u := x
	for i := 0; i < 8; i++ {
		diff := sampleCubic(0, x1, x2, 1, u) - x
		if diff < epsilon && diff > -epsilon {
			return u
		}
		d := cubicDerivative(0, x1, x2, 1, u)
		if d < 1e-6 && d > -1e-6 {
			break
		}
		u -= diff / d
		if u < 0 || u > 1 {
			break
		}
	}

	lo, hi := 0.0, 1.0
	u = x
	for i := 0; i < 32 && hi-lo > epsilon; i++ {
		if sampleCubic(0, x1, x2, 1, u) < x {
			lo = u
		} else {
			hi = u
		}
		u = (lo + hi) / 2
	}
	return u
}

func cubicDerivative(p0, p1, p2, p3, u float64) float64 {
	w := 1 - u
	return 3*w*w*(p1-p0) + 6*w*u*(p2-p1) + 3*u*u*(p3-p2)
}
