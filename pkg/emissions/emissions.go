// Package emissions estimates CO2e emissions of grid electricity and
// natural gas for a building before and after a CHP retrofit.
package emissions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cogenplan/cogenplan/pkg/summary"
	"github.com/cogenplan/cogenplan/pkg/units"
)

// ErrUnknownLocation is returned when no grid subregion matches a location.
var ErrUnknownLocation = errors.New("unknown grid subregion")

// Subregion is an eGRID subregion group.
type Subregion string

const (
	Northwest Subregion = "nw"
	Florida   Subregion = "fl"
	Midwest   Subregion = "midwest"
	Southwest Subregion = "sw"
)

// gridFactors are CO2e total output emission rates in lb/MWh.
var gridFactors = map[Subregion]float64{
	Northwest: 639.0,
	Florida:   817.2,
	Midwest:   1000.4,
	Southwest: 776.3,
}

// NaturalGasFactor is the CO2e emitted by burning natural gas.
var NaturalGasFactor = units.PoundsPerMMBtu(117.1)

var locations = map[string]Subregion{
	"seattle, wa": Northwest,
	"helena, mt":  Northwest,
	"miami, fl":   Florida,
	"duluth, mn":  Midwest,
	"phoenix, az": Southwest,
}

// Resolve returns the subregion of a city and state. A non-empty override
// names the subregion directly.
func Resolve(city, state, override string) (Subregion, error) {
	if override != "" {
		sub := Subregion(strings.ToLower(override))
		if _, ok := gridFactors[sub]; !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownLocation, override)
		}
		return sub, nil
	}
	key := strings.ToLower(strings.TrimSpace(city)) + ", " + strings.ToLower(strings.TrimSpace(state))
	sub, ok := locations[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownLocation, key)
	}
	return sub, nil
}

// GridFactor returns the emission factor of grid electricity in sub.
func GridFactor(sub Subregion) (units.Quantity, error) {
	f, ok := gridFactors[sub]
	if !ok {
		return units.Quantity{}, fmt.Errorf("%w: %q", ErrUnknownLocation, sub)
	}
	return units.PoundsPerMWh(f), nil
}

// Emissions are the annual CO2e of one configuration.
type Emissions struct {
	Grid units.Quantity
	Fuel units.Quantity
}

// Total returns grid and fuel emissions combined.
func (e Emissions) Total() units.Quantity {
	return e.Grid.Add(e.Fuel)
}

// Of returns the emissions of the energy bought and burned in s. Sold
// electricity is not credited.
func Of(s summary.Summary, gridFactor units.Quantity) Emissions {
	return Emissions{
		Grid: s.ElectricityBought.As(units.Energy).Mul(gridFactor),
		Fuel: s.TotalFuel().As(units.Energy).Mul(NaturalGasFactor),
	}
}

// Comparison is the change in emissions from a retrofit.
type Comparison struct {
	Baseline Emissions
	Proposed Emissions
}

// Reduction is baseline minus proposed. It is negative when the retrofit
// emits more.
func (c Comparison) Reduction() units.Quantity {
	return c.Baseline.Total().Sub(c.Proposed.Total())
}

// Compare computes the emissions of baseline and proposed.
func Compare(baseline, proposed summary.Summary, gridFactor units.Quantity) Comparison {
	return Comparison{
		Baseline: Of(baseline, gridFactor),
		Proposed: Of(proposed, gridFactor),
	}
}
