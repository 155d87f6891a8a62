package folio

// Offsets for the fast floor/ceil below. Valid for values in
// [-bigEnough, MaxFloat32-bigEnough].
const (
	bigEnoughInt   = 16 * 1024
	bigEnoughFloor = float64(bigEnoughInt)
	bigEnoughCeil  = 16384.999999999996
)

// Limit constrains v to [lo, hi].
func Limit[T int | float32 | float64](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// ClampUpperBound returns the smaller of v and ceiling.
func ClampUpperBound[T int | float32 | float64](v, ceiling T) T {
	return min(v, ceiling)
}

// ClampLowerBound returns the larger of v and floor.
func ClampLowerBound[T int | float32 | float64](v, floor T) T {
	return max(v, floor)
}

// Floor returns the largest integer less than or equal to v.
func Floor(v float32) int {
	return int(float64(v)+bigEnoughFloor) - bigEnoughInt
}

// Ceil returns the smallest integer greater than or equal to v.
func Ceil(v float32) int {
	return int(float64(v)+bigEnoughCeil) - bigEnoughInt
}
