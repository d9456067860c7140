package tally

import "math"

// Ratio divides num by den and returns 0 instead of NaN or Inf.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Mean averages the non-nil values. No values means 0.
func Mean(values []*float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	return Ratio(sum, float64(n))
}

// Sum adds the non-nil values.
func Sum(values []*float64) float64 {
	sum := 0.0
	for _, v := range values {
		if v != nil {
			sum += *v
		}
	}
	return sum
}
