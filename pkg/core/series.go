package core

import (
	"golang.org/x/exp/constraints"
)

// Series is a time series of ordered values
type Series[T constraints.Ordered] []T

// Length returns the number of values in the series
func (s Series[T]) Length() int {
	return len(s)
}
