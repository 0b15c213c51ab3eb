package bracket

import (
	"database/sql/driver"
	"fmt"
)

type Region string

const (
	IAdvisors            Region = "IADVISORS"
	XAdvisors            Region = "XADVISORS"
	FinancialSpecialists Region = "FINANCIAL_SPECIALISTS"
	WAdvisors            Region = "WADVISORS"
)

// Regions is in display order, which is also the topology build order.
var Regions = []Region{IAdvisors, XAdvisors, FinancialSpecialists, WAdvisors}

// FinalFourPairings is static: F4 match n pairs the two E8 winners of
// FinalFourPairings[n-1].
var FinalFourPairings = [2][2]Region{
	{IAdvisors, XAdvisors},
	{FinancialSpecialists, WAdvisors},
}

var regionLabels = map[Region]string{
	IAdvisors:            "iAdvisors",
	XAdvisors:            "xAdvisors",
	FinancialSpecialists: "Financial Specialists",
	WAdvisors:            "wAdvisors",
}

const SeedsPerRegion = 16

func ParseRegion(s string) (Region, error) {
	r := Region(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown region %q", s)
	}
	return r, nil
}

func (r Region) Valid() bool {
	_, ok := regionLabels[r]
	return ok
}

func (r Region) Label() string {
	if label, ok := regionLabels[r]; ok {
		return label
	}
	return string(r)
}

func (r Region) index() int {
	for i, region := range Regions {
		if region == r {
			return i
		}
	}
	return len(Regions)
}

func (r Region) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid region %q", string(r))
	}
	return string(r), nil
}

func (r *Region) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Region", src)
	}
	parsed, err := ParseRegion(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
