package model

import "strings"

// UnitKind enumerates the length units a CadModel can be expressed in.
// Every model has exactly one unit; units are never inferred per-entity.
type UnitKind int

const (
	Millimeter UnitKind = iota
	Centimeter
	Meter
	Foot
	Inch
)

func (u UnitKind) String() string {
	switch u {
	case Millimeter:
		return "mm"
	case Centimeter:
		return "cm"
	case Meter:
		return "m"
	case Foot:
		return "ft"
	case Inch:
		return "in"
	default:
		return "unknown"
	}
}

// ParseUnit maps a unit name to a UnitKind. It accepts the short forms
// used by the IFC-lite format ("mm", "cm", "m", "ft", "in") and the
// spelled-out names.
func ParseUnit(s string) (UnitKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mm", "millimeter", "millimeters":
		return Millimeter, true
	case "cm", "centimeter", "centimeters":
		return Centimeter, true
	case "m", "meter", "meters", "metre", "metres":
		return Meter, true
	case "ft", "foot", "feet":
		return Foot, true
	case "in", "inch", "inches":
		return Inch, true
	}
	return Millimeter, false
}
