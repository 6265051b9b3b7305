// Package core provides the finance tracker domain model and the rules that
// do not depend on any store: validation, derived fields, query descriptors
// and the statistics window.
//
// This file contains helpers for amounts held as float64 values.
package core

import "math"

// RoundCents rounds v half away from zero to two decimal places.
//
// Sums of float amounts accumulate binary noise (0.1 + 0.2 = 0.30000000000000004);
// aggregates are rounded before they leave the store layer.
//
// Examples:
//
//	RoundCents(0.1 + 0.2) -> 0.3
//	RoundCents(1.234)     -> 1.23
//	RoundCents(1.236)     -> 1.24
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Mean returns total/count, or 0 when count is zero.
func Mean(total float64, count int64) float64 {
	if count == 0 {
		return 0
	}
	return RoundCents(total / float64(count))
}
