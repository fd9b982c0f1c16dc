// Package search implements the chained inline filter that narrows listings
// by brand, model, year, city, price ceiling and publication status.
//
// The wizard keeps no server-side state: every button carries the full path
// of choices made so far, so any message can be continued by any replica.
package search

import "github.com/m3rciful/zalogbot/internal/listing"

// Step is a position in the filter chain.
type Step int

const (
	StepBrand Step = iota
	StepModel
	StepYear
	StepCity
	StepPrice
	StepStatus
	StepResults
)

var stepNames = [...]string{"brand", "model", "year", "city", "price", "status", "results"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// field returns the record attribute a value step selects, or "" for price and status.
func (s Step) field() listing.Field {
	switch s {
	case StepBrand:
		return listing.FieldBrand
	case StepModel:
		return listing.FieldModel
	case StepYear:
		return listing.FieldYear
	case StepCity:
		return listing.FieldCity
	}
	return ""
}

// Options configure a Wizard. Zero values fall back to DefaultOptions.
type Options struct {
	BrandCap int `yaml:"brand_cap"`
	ModelCap int `yaml:"model_cap"`
	YearCap  int `yaml:"year_cap"`
	CityCap  int `yaml:"city_cap"`
	// ResultLimit caps the listings rendered in the result message.
	ResultLimit  int   `yaml:"result_limit"`
	PriceBuckets []int `yaml:"price_buckets"`

	// CallbackKey is the unique of every filter button.
	CallbackKey string `yaml:"-"`
	// MenuKey is the unique of the "main menu" button.
	MenuKey string `yaml:"-"`
}

// DefaultOptions returns the caps used in production.
func DefaultOptions() Options {
	return Options{
		BrandCap:     8,
		ModelCap:     8,
		YearCap:      9,
		CityCap:      6,
		ResultLimit:  10,
		PriceBuckets: append([]int(nil), listing.DefaultPriceBuckets...),
		CallbackKey:  "flt",
		MenuKey:      "menu",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BrandCap <= 0 {
		o.BrandCap = d.BrandCap
	}
	if o.ModelCap <= 0 {
		o.ModelCap = d.ModelCap
	}
	if o.YearCap <= 0 {
		o.YearCap = d.YearCap
	}
	if o.CityCap <= 0 {
		o.CityCap = d.CityCap
	}
	if o.ResultLimit <= 0 {
		o.ResultLimit = d.ResultLimit
	}
	if len(o.PriceBuckets) == 0 {
		o.PriceBuckets = d.PriceBuckets
	}
	if o.CallbackKey == "" {
		o.CallbackKey = d.CallbackKey
	}
	if o.MenuKey == "" {
		o.MenuKey = d.MenuKey
	}
	return o
}

func (o Options) cap(s Step) int {
	switch s {
	case StepBrand:
		return o.BrandCap
	case StepModel:
		return o.ModelCap
	case StepYear:
		return o.YearCap
	case StepCity:
		return o.CityCap
	}
	return 0
}
