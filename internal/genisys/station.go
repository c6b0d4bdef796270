// Package genisys holds the primitive types shared across the reducer,
// executor, wire codec and driver: the station address space. The
// monotonic clock abstraction lives in the clock subpackage. Nothing in
// this package performs I/O.
package genisys

import "fmt"

// Station is a GENISYS slave address. Valid stations are [1,255];
// station 0 is the reserved broadcast address and is out of core scope.
type Station uint8

// MinStation and MaxStation bound the valid, addressable station range.
const (
	MinStation Station = 1
	MaxStation Station = 255
)

// Valid reports whether s is an addressable, non-broadcast station.
func (s Station) Valid() bool {
	return s >= MinStation
}

func (s Station) String() string {
	return fmt.Sprintf("station(%d)", uint8(s))
}
