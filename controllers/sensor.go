package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ReyCannavaro/urbangrow/events"
	"github.com/ReyCannavaro/urbangrow/metrics"
	"github.com/ReyCannavaro/urbangrow/models"
	"github.com/ReyCannavaro/urbangrow/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	sensorLogLimit     = 5
	exportDefaultLimit = 100
	exportMaxLimit     = 1000
)

// GET /api/latest-reading
// An empty log answers with a zero-valued placeholder, not an error.
func (h *Controller) LatestReading(c *gin.Context) {
	reading, ok, err := h.store.LatestReading(c.Request.Context())
	if err != nil {
		h.storageFailure(c, "Gagal mengambil data terbaru dari database.", err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, models.PlaceholderReading(h.now()))
		return
	}
	c.JSON(http.StatusOK, reading)
}

// GET /api/sensor-log
func (h *Controller) SensorLog(c *gin.Context) {
	readings, err := h.store.RecentReadings(c.Request.Context(), sensorLogLimit)
	if err != nil {
		h.storageFailure(c, "Gagal mengambil log sensor dari database.", err)
		return
	}
	c.JSON(http.StatusOK, readings)
}

// POST /api/update-sensor
func (h *Controller) UpdateSensor(c *gin.Context) {
	var in models.ReadingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Data sensor (temperature, ph, ldrValue) tidak lengkap.", err)
		return
	}
	if err := in.Validate(); err != nil {
		badRequest(c, "Data sensor (temperature, ph, ldrValue) tidak lengkap.", err)
		return
	}

	reading, err := h.store.InsertReading(c.Request.Context(), in)
	if err != nil {
		h.storageFailure(c, "Gagal menyimpan data sensor ke database.", err)
		return
	}

	h.logger.Info("sensor reading stored",
		zap.Uint("id", reading.ID),
		zap.Float64("temperature", reading.Temperature),
		zap.Float64("ph", reading.PH),
		zap.Int("ldr_value", reading.LDRValue),
	)
	metrics.ObserveReading(reading)
	h.publish(c.Request.Context(), events.New(events.ReadingCreated, reading))

	c.JSON(http.StatusCreated, gin.H{
		"message": "Data sensor berhasil disimpan",
		"id":      reading.ID,
	})
}

// GET /api/water-quality
func (h *Controller) WaterQuality(c *gin.Context) {
	reading, ok, err := h.store.LatestReading(c.Request.Context())
	if err != nil {
		h.storageFailure(c, "Gagal mengambil data terbaru dari database.", err)
		return
	}
	if !ok {
		placeholder := models.PlaceholderReading(h.now())
		reading = &placeholder
	}
	c.JSON(http.StatusOK, gin.H{
		"reading": reading,
		"quality": utils.ClassifyWater(reading.Temperature, reading.PH),
	})
}

// GET /api/sensor-log/export
func (h *Controller) ExportCSV(c *gin.Context) {
	limit := exportDefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "Parameter limit tidak valid.", fmt.Errorf("limit %q", raw))
			return
		}
		limit = min(n, exportMaxLimit)
	}

	readings, err := h.store.RecentReadings(c.Request.Context(), limit)
	if err != nil {
		h.storageFailure(c, "Gagal mengambil log sensor dari database.", err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=sensor_readings.csv")
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"timestamp", "temperature", "ph", "ldr_value"})
	for _, r := range readings {
		writer.Write([]string{
			r.Timestamp.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.1f", r.Temperature),
			fmt.Sprintf("%.2f", r.PH),
			strconv.Itoa(r.LDRValue),
		})
	}
}
