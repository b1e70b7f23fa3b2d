package types

import (
	"fmt"
	"slices"
	"time"
)

// ScheduleType names a utility rate schedule structure.
type ScheduleType string

const (
	ScheduleBasic               ScheduleType = "basic"
	ScheduleEnergyBlock         ScheduleType = "energy_block"
	ScheduleSeasonalEnergy      ScheduleType = "seasonal_energy"
	ScheduleSeasonalDemand      ScheduleType = "seasonal_demand"
	ScheduleSeasonalEnergyBlock ScheduleType = "seasonal_energy_block"
	ScheduleSeasonalDemandBlock ScheduleType = "seasonal_demand_block"
	ScheduleTOU                 ScheduleType = "tou"
)

// MeterType is how the building is metered. Single-metered buildings pay
// one base charge per apartment.
type MeterType string

const (
	MeterMaster MeterType = "master"
	MeterSingle MeterType = "single"
)

// RatePeriod defines when a time-of-use price applies. Hours are
// [HourStart, HourEnd) in local building time.
type RatePeriod struct {
	Months        []time.Month   `json:"months,omitempty" yaml:"months,omitempty"`
	HourStart     int            `json:"hourStart" yaml:"hour_start"`
	HourEnd       int            `json:"hourEnd" yaml:"hour_end"`
	DaysOfTheWeek []time.Weekday `json:"daysOfTheWeek,omitempty" yaml:"days_of_the_week,omitempty"`
}

// Contains checks if a time is within the period.
func (p *RatePeriod) Contains(t time.Time) bool {
	if len(p.Months) > 0 && !slices.Contains(p.Months, t.Month()) {
		return false
	}
	if h := t.Hour(); h < p.HourStart || h >= p.HourEnd {
		return false
	}
	if len(p.DaysOfTheWeek) > 0 && !slices.Contains(p.DaysOfTheWeek, t.Weekday()) {
		return false
	}
	return true
}

// TOUPeriod is a price that applies during a RatePeriod.
type TOUPeriod struct {
	RatePeriod    `yaml:",inline"`
	DollarsPerKWH float64 `json:"dollarsPerKWH" yaml:"dollars_per_kwh"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// RateBlock is one tier of a block rate. UpTo is the monthly quantity
// at which the tier ends; zero means unbounded.
type RateBlock struct {
	UpTo float64 `json:"upTo" yaml:"up_to"`
	Rate float64 `json:"rate" yaml:"rate"`
}

// SeasonRates holds the charges that apply during one season.
type SeasonRates struct {
	// EnergyCharge is in $/kWh.
	EnergyCharge float64 `json:"energyCharge" yaml:"energy_charge"`
	// DemandCharge is in $/kW of monthly peak.
	DemandCharge float64     `json:"demandCharge" yaml:"demand_charge"`
	Blocks       []RateBlock `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}

// ElectricRate is an electric utility tariff.
type ElectricRate struct {
	Schedule          ScheduleType `json:"schedule" yaml:"schedule"`
	Meter             MeterType    `json:"meter" yaml:"meter"`
	MonthlyBaseCharge float64      `json:"monthlyBaseCharge" yaml:"monthly_base_charge"`
	// EnergyCharge is in $/kWh and is also the off-period price of a TOU
	// schedule.
	EnergyCharge float64 `json:"energyCharge" yaml:"energy_charge"`
	// Blocks are monthly kWh tiers for energy_block.
	Blocks           []RateBlock `json:"blocks,omitempty" yaml:"blocks,omitempty"`
	SummerStartMonth time.Month  `json:"summerStartMonth" yaml:"summer_start_month"`
	WinterStartMonth time.Month  `json:"winterStartMonth" yaml:"winter_start_month"`
	Summer           SeasonRates `json:"summer" yaml:"summer"`
	Winter           SeasonRates `json:"winter" yaml:"winter"`
	TOUPeriods       []TOUPeriod `json:"touPeriods,omitempty" yaml:"tou_periods,omitempty"`
	// ExportRate is the $/kWh credited for sold electricity. Zero credits
	// sold energy at the schedule's energy charges.
	ExportRate float64 `json:"exportRate" yaml:"export_rate"`
}

// IsSummer reports whether month m falls in the summer season.
func (r ElectricRate) IsSummer(m time.Month) bool {
	return r.SummerStartMonth <= m && m < r.WinterStartMonth
}

// Validate checks that the fields required by the schedule are present.
func (r ElectricRate) Validate() error {
	if err := validateMeter(r.Meter); err != nil {
		return err
	}
	switch r.Schedule {
	case ScheduleBasic, ScheduleTOU:
	case ScheduleEnergyBlock:
		if err := validateBlocks(r.Blocks); err != nil {
			return err
		}
	case ScheduleSeasonalEnergy, ScheduleSeasonalDemand:
		if err := r.validateSeasons(); err != nil {
			return err
		}
	case ScheduleSeasonalEnergyBlock, ScheduleSeasonalDemandBlock:
		if err := r.validateSeasons(); err != nil {
			return err
		}
		if err := validateBlocks(r.Summer.Blocks); err != nil {
			return fmt.Errorf("summer: %w", err)
		}
		if err := validateBlocks(r.Winter.Blocks); err != nil {
			return fmt.Errorf("winter: %w", err)
		}
	default:
		return fmt.Errorf("%w: unknown electric schedule %q", ErrInvalidConfig, r.Schedule)
	}
	for _, p := range r.TOUPeriods {
		if p.HourStart < 0 || p.HourEnd > 24 || p.HourStart >= p.HourEnd {
			return fmt.Errorf("%w: invalid tou hours [%d, %d)", ErrInvalidConfig, p.HourStart, p.HourEnd)
		}
	}
	return nil
}

func (r ElectricRate) validateSeasons() error {
	if r.SummerStartMonth < time.January || r.WinterStartMonth > time.December+1 || r.SummerStartMonth >= r.WinterStartMonth {
		return fmt.Errorf("%w: summer must start before winter (got %d and %d)", ErrInvalidConfig, r.SummerStartMonth, r.WinterStartMonth)
	}
	return nil
}

// FuelRate is a natural gas tariff. Prices are in $/MMBtu and block
// tiers in MMBtu per month.
type FuelRate struct {
	Schedule          ScheduleType `json:"schedule" yaml:"schedule"`
	Meter             MeterType    `json:"meter" yaml:"meter"`
	MonthlyBaseCharge float64      `json:"monthlyBaseCharge" yaml:"monthly_base_charge"`
	EnergyCharge      float64      `json:"energyCharge" yaml:"energy_charge"`
	Blocks            []RateBlock  `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}

// Validate checks that the fields required by the schedule are present.
func (r FuelRate) Validate() error {
	if err := validateMeter(r.Meter); err != nil {
		return err
	}
	switch r.Schedule {
	case ScheduleBasic:
	case ScheduleEnergyBlock:
		if len(r.Blocks) > 3 {
			return fmt.Errorf("%w: fuel block schedule supports at most 3 blocks", ErrInvalidConfig)
		}
		return validateBlocks(r.Blocks)
	default:
		return fmt.Errorf("%w: unknown fuel schedule %q", ErrInvalidConfig, r.Schedule)
	}
	return nil
}

func validateMeter(m MeterType) error {
	switch m {
	case MeterMaster, MeterSingle:
		return nil
	default:
		return fmt.Errorf("%w: unknown meter type %q", ErrInvalidConfig, m)
	}
}

func validateBlocks(blocks []RateBlock) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: block schedule requires at least one block", ErrInvalidConfig)
	}
	var prev float64
	for i, b := range blocks {
		last := i == len(blocks)-1
		if b.UpTo == 0 && !last {
			return fmt.Errorf("%w: only the last block may be unbounded", ErrInvalidConfig)
		}
		if b.UpTo != 0 && b.UpTo <= prev {
			return fmt.Errorf("%w: block limits must increase", ErrInvalidConfig)
		}
		prev = b.UpTo
	}
	return nil
}
