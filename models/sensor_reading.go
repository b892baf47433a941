package models

import (
	"math"
	"time"
)

// SensorReading is one timestamped sample from the aquaponics sensor board.
type SensorReading struct {
	ID          uint      `json:"-" gorm:"primaryKey"`
	Temperature float64   `json:"temperature" gorm:"type:decimal(4,1);not null"`
	PH          float64   `json:"ph" gorm:"column:ph;type:decimal(4,2);not null"`
	LDRValue    int       `json:"ldr_value" gorm:"column:ldr_value;not null"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index"`
}

func (SensorReading) TableName() string {
	return "sensor_readings"
}

// PlaceholderReading is returned when no reading has been stored yet.
func PlaceholderReading(now time.Time) SensorReading {
	return SensorReading{Timestamp: now}
}

// ReadingInput is the ingest payload. Pointer fields tell an absent
// measurement apart from a zero one.
type ReadingInput struct {
	Temperature *float64 `json:"temperature"`
	PH          *float64 `json:"ph"`
	LDRValue    *int     `json:"ldrValue"`
}

// Validate reports the first missing measurement.
func (in ReadingInput) Validate() error {
	switch {
	case in.Temperature == nil:
		return &ValidationError{Field: "temperature", Reason: "missing"}
	case in.PH == nil:
		return &ValidationError{Field: "ph", Reason: "missing"}
	case in.LDRValue == nil:
		return &ValidationError{Field: "ldrValue", Reason: "missing"}
	}
	return nil
}

// Reading converts a validated input into a row, rounding to the column
// precision. Call Validate first.
func (in ReadingInput) Reading(ts time.Time) SensorReading {
	return SensorReading{
		Temperature: roundTo(*in.Temperature, 1),
		PH:          roundTo(*in.PH, 2),
		LDRValue:    *in.LDRValue,
		Timestamp:   ts,
	}
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
