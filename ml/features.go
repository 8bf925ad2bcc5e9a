package ml

import (
	"math"
	"strings"
)

// Column names as they appear in the training schema.
const (
	ColumnCrop           = "Crop"
	ColumnSeason         = "Season"
	ColumnState          = "State"
	ColumnArea           = "Area"
	ColumnFertilizer     = "Fertilizer"
	ColumnPesticide      = "Pesticide"
	ColumnAnnualRainfall = "Annual_Rainfall"
	ColumnProduction     = "Production"
)

// Request holds the raw, human-entered inputs of one prediction.
type Request struct {
	Crop           string  `json:"crop"`
	Season         string  `json:"season"`
	State          string  `json:"state"`
	Area           float64 `json:"area"`
	Fertilizer     float64 `json:"fertilizer"`
	Pesticide      float64 `json:"pesticide"`
	AnnualRainfall float64 `json:"annual_rainfall"`
	Production     float64 `json:"production"`
}

// Normalize trims the categorical fields.
func (r Request) Normalize() Request {
	r.Crop = strings.TrimSpace(r.Crop)
	r.Season = strings.TrimSpace(r.Season)
	r.State = strings.TrimSpace(r.State)
	return r
}

// FeatureRow is one model input row. Area, Fertilizer, Pesticide and
// Production are log1p-transformed; AnnualRainfall is raw.
type FeatureRow struct {
	Crop           string
	Season         string
	State          string
	Area           float64
	Fertilizer     float64
	Pesticide      float64
	AnnualRainfall float64
	Production     float64
}

// BuildFeatureRow applies the skew transform the model was trained with.
// Only these four fields are transformed; rainfall is deliberately left as-is.
func BuildFeatureRow(req Request) FeatureRow {
	return FeatureRow{
		Crop:           req.Crop,
		Season:         req.Season,
		State:          req.State,
		Area:           math.Log1p(req.Area),
		Fertilizer:     math.Log1p(req.Fertilizer),
		Pesticide:      math.Log1p(req.Pesticide),
		AnnualRainfall: req.AnnualRainfall,
		Production:     math.Log1p(req.Production),
	}
}

// FeatureNames is the training column order. Pipeline artifacts must match it exactly.
func FeatureNames() []string {
	return []string{
		ColumnCrop,
		ColumnSeason,
		ColumnState,
		ColumnArea,
		ColumnFertilizer,
		ColumnPesticide,
		ColumnAnnualRainfall,
		ColumnProduction,
	}
}

// CategoricalNames lists the categorical columns in column order.
func CategoricalNames() []string {
	return []string{ColumnCrop, ColumnSeason, ColumnState}
}

// NumericNames lists the numeric columns in column order.
func NumericNames() []string {
	return []string{ColumnArea, ColumnFertilizer, ColumnPesticide, ColumnAnnualRainfall, ColumnProduction}
}

func (f FeatureRow) Categorical() []string {
	return []string{f.Crop, f.Season, f.State}
}

func (f FeatureRow) Numeric() []float64 {
	return []float64{f.Area, f.Fertilizer, f.Pesticide, f.AnnualRainfall, f.Production}
}

func validateMagnitudes(req Request) error {
	fields := []struct {
		name  string
		value float64
	}{
		{ColumnArea, req.Area},
		{ColumnFertilizer, req.Fertilizer},
		{ColumnPesticide, req.Pesticide},
		{ColumnAnnualRainfall, req.AnnualRainfall},
		{ColumnProduction, req.Production},
	}
	for _, f := range fields {
		switch {
		case math.IsNaN(f.value) || math.IsInf(f.value, 0):
			return invalidMagnitude(f.name, f.value, "must be a finite number")
		case f.value < 0:
			return invalidMagnitude(f.name, f.value, "must not be negative")
		}
	}
	return nil
}
