package congress

import "strings"

// Chamber is the legislative body a bill originates in.
type Chamber int

const (
	ChamberUnknown Chamber = iota
	ChamberHouse
	ChamberSenate
	ChamberJoint
)

var billTypeChambers = map[string]Chamber{
	"hr":      ChamberHouse,
	"hres":    ChamberHouse,
	"s":       ChamberSenate,
	"sres":    ChamberSenate,
	"hjres":   ChamberJoint,
	"sjres":   ChamberJoint,
	"hconres": ChamberJoint,
	"sconres": ChamberJoint,
}

// ChamberFromBillType maps a provider bill type code such as "hr" or
// "sjres" to its chamber. Unrecognized codes map to ChamberUnknown.
func ChamberFromBillType(billType string) Chamber {
	if chamber, ok := billTypeChambers[strings.ToLower(strings.TrimSpace(billType))]; ok {
		return chamber
	}
	return ChamberUnknown
}

// ChamberFromName parses "house"/"senate" as used by member endpoints.
func ChamberFromName(name string) Chamber {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "house":
		return ChamberHouse
	case "senate":
		return ChamberSenate
	case "joint":
		return ChamberJoint
	default:
		return ChamberUnknown
	}
}

func (c Chamber) String() string {
	switch c {
	case ChamberHouse:
		return "House"
	case ChamberSenate:
		return "Senate"
	case ChamberJoint:
		return "Joint"
	default:
		return "Unknown"
	}
}

// PathSegment is the lower-case name used in provider URLs.
func (c Chamber) PathSegment() string {
	switch c {
	case ChamberHouse:
		return "house"
	case ChamberSenate:
		return "senate"
	default:
		return ""
	}
}

// DocumentSuffix is the chamber letter used in published bill text file
// names. Joint and unknown chambers have no suffix.
func (c Chamber) DocumentSuffix() string {
	switch c {
	case ChamberHouse:
		return "h"
	case ChamberSenate:
		return "s"
	default:
		return ""
	}
}
