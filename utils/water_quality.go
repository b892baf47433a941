package utils

import "fmt"

// TemperatureBand is the discrete water temperature class.
type TemperatureBand string

const (
	VeryCold TemperatureBand = "Sangat Dingin"
	Cold     TemperatureBand = "Dingin"
	Warm     TemperatureBand = "Hangat"
	Hot      TemperatureBand = "Panas"
	TooHot   TemperatureBand = "Terlalu Panas"
)

// PHBand is the discrete acidity class.
type PHBand string

const (
	Acidic   PHBand = "Asam"
	Ideal    PHBand = "Ideal (Netral)"
	Alkaline PHBand = "Basa (Alkaline)"
)

// Severity is the card color class shown for a water condition.
type Severity string

const (
	SeverityGreen Severity = "green"
	SeverityAmber Severity = "amber"
	SeverityRed   Severity = "red"
)

// Color returns the hex color used by the dashboard for s.
func (s Severity) Color() string {
	switch s {
	case SeverityGreen:
		return "#10b981"
	case SeverityRed:
		return "#ef4444"
	default:
		return "#f59e0b"
	}
}

// WaterQuality is the derived classification of a (temperature, pH) pair.
type WaterQuality struct {
	TempStatus TemperatureBand `json:"tempStatus"`
	PHStatus   PHBand          `json:"phStatus"`
	Severity   Severity        `json:"severity"`
	Color      string          `json:"color"`
	Label      string          `json:"label"`
	Conclusion string          `json:"conclusion"`
}

// Optimal reports whether both dimensions are in their ideal band.
func (q WaterQuality) Optimal() bool {
	return q.TempStatus == Warm && q.PHStatus == Ideal
}

// ClassifyTemperature maps a temperature in °C to its band.
func ClassifyTemperature(temperature float64) TemperatureBand {
	switch {
	case temperature > 32:
		return TooHot
	case temperature >= 28:
		return Hot
	case temperature >= 20:
		return Warm
	case temperature >= 15:
		return Cold
	default:
		return VeryCold
	}
}

// ClassifyPH maps a pH value to its band.
func ClassifyPH(ph float64) PHBand {
	switch {
	case ph >= 6.0 && ph <= 7.5:
		return Ideal
	case ph < 6.0:
		return Acidic
	default:
		return Alkaline
	}
}

// ClassifyWater derives the water condition shown on the dashboard.
// Temperature extremes force red regardless of pH.
func ClassifyWater(temperature, ph float64) WaterQuality {
	q := WaterQuality{
		TempStatus: ClassifyTemperature(temperature),
		PHStatus:   ClassifyPH(ph),
	}

	conclusion := fmt.Sprintf("Kondisi air saat ini %s (%.1f°C) dan pH %.2f (%s).", q.TempStatus, temperature, ph, q.PHStatus)
	switch {
	case q.Optimal():
		q.Severity = SeverityGreen
		conclusion = "Kondisi air saat ini sangat OPTIMAL. Pertahankan level ini."
	case q.TempStatus == VeryCold || q.TempStatus == TooHot:
		q.Severity = SeverityRed
		conclusion += " Suhu air TIDAK ideal. Perlu penyesuaian untuk menjaga kesehatan ikan dan tanaman."
	case q.PHStatus != Ideal:
		q.Severity = SeverityAmber
		conclusion += " Kualitas pH air perlu dikoreksi."
	default:
		q.Severity = SeverityAmber
		conclusion += " Kondisi Suhu dan pH berada di batas aman."
	}

	q.Color = q.Severity.Color()
	q.Conclusion = conclusion
	q.Label = "Perlu Cek"
	if q.Optimal() {
		q.Label = "Optimal"
	}
	return q
}
