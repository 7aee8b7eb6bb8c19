package timeseries

import (
	"fmt"
	"math"
	"strings"
)

// Domain identifies the physical quantity a series measures.
type Domain string

const (
	Temperature   Domain = "temperature"
	CO2           Domain = "co2"
	SeaLevel      Domain = "sea_level"
	Deforestation Domain = "deforestation"
)

// SeriesDomains are the domains delivered as (date, value) series.
// Deforestation arrives as region records instead.
func SeriesDomains() []Domain {
	return []Domain{Temperature, CO2, SeaLevel}
}

// ParseDomain accepts a domain identifier or its column name.
func ParseDomain(s string) (Domain, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, " ", "_")
	switch key {
	case "temperature":
		return Temperature, nil
	case "co2":
		return CO2, nil
	case "sea_level":
		return SeaLevel, nil
	case "deforestation", "area_deforested":
		return Deforestation, nil
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Column returns the value column name used in input and output files.
func (d Domain) Column() string {
	switch d {
	case Temperature:
		return "Temperature"
	case CO2:
		return "CO2"
	case SeaLevel:
		return "Sea Level"
	case Deforestation:
		return "Area_Deforested"
	}
	return string(d)
}

// DefaultBounds returns the physical range a cleaned value must lie in.
func (d Domain) DefaultBounds() Bounds {
	switch d {
	case Temperature:
		return Closed(-5, 5)
	case CO2:
		return Open(250, 5000)
	case Deforestation:
		return AtLeast(0)
	}
	return Unbounded()
}

// String returns the domain identifier.
func (d Domain) String() string { return string(d) }

// Bounds is an interval on the real line; each end may be open or closed.
type Bounds struct {
	Lo, Hi         float64
	LoOpen, HiOpen bool
}

// Closed returns [lo, hi].
func Closed(lo, hi float64) Bounds { return Bounds{Lo: lo, Hi: hi} }

// Open returns (lo, hi).
func Open(lo, hi float64) Bounds { return Bounds{Lo: lo, Hi: hi, LoOpen: true, HiOpen: true} }

// AtLeast returns [lo, +Inf).
func AtLeast(lo float64) Bounds { return Bounds{Lo: lo, Hi: math.Inf(1), HiOpen: true} }

// Unbounded returns (-Inf, +Inf).
func Unbounded() Bounds {
	return Bounds{Lo: math.Inf(-1), Hi: math.Inf(1), LoOpen: true, HiOpen: true}
}

// Contains reports whether v lies inside the bounds. NaN is never contained.
func (b Bounds) Contains(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if b.LoOpen {
		if !(v > b.Lo) && !math.IsInf(b.Lo, -1) {
			return false
		}
	} else if v < b.Lo {
		return false
	}
	if b.HiOpen {
		if !(v < b.Hi) && !math.IsInf(b.Hi, 1) {
			return false
		}
	} else if v > b.Hi {
		return false
	}
	return true
}

// String formats the interval in bracket notation, e.g. (250, 5000).
func (b Bounds) String() string {
	lo, hi := "[", "]"
	if b.LoOpen {
		lo = "("
	}
	if b.HiOpen {
		hi = ")"
	}
	return fmt.Sprintf("%s%g, %g%s", lo, b.Lo, b.Hi, hi)
}
