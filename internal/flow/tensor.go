package flow

import "math"

// tensor is the symmetric structure tensor AᵗA = [[xx, xy], [xy, yy]]
// of one window together with Aᵗb = [bx, by].
type tensor struct {
	xx, xy, yy float64
	bx, by     float64
}

// eigenvalues returns the eigenvalues of the symmetric 2x2 matrix,
// largest first.
func (t tensor) eigenvalues() (hi, lo float64) {
	mean := (t.xx + t.yy) / 2
	diff := (t.xx - t.yy) / 2
	r := math.Hypot(diff, t.xy)
	return mean + r, mean - r
}

// condition returns λmax/λmin, or +Inf when the matrix is singular or
// not positive definite.
func (t tensor) condition() float64 {
	hi, lo := t.eigenvalues()
	if !(lo > 0) {
		return math.Inf(1)
	}
	return hi / lo
}

// solve returns (AᵗA)⁻¹ Aᵗb. The caller has already checked conditioning.
func (t tensor) solve() (u, v float64) {
	det := t.xx*t.yy - t.xy*t.xy
	u = (t.yy*t.bx - t.xy*t.by) / det
	v = (t.xx*t.by - t.xy*t.bx) / det
	return u, v
}
