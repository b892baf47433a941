package controllers

import (
	"net/http"

	"github.com/ReyCannavaro/urbangrow/events"
	"github.com/ReyCannavaro/urbangrow/metrics"
	"github.com/ReyCannavaro/urbangrow/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/actuator-status
func (h *Controller) ActuatorStatus(c *gin.Context) {
	state, err := h.store.ActuatorState(c.Request.Context())
	if err != nil {
		h.storageFailure(c, "Gagal mengambil status aktuator.", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// POST /api/actuator-control
func (h *Controller) ActuatorControl(c *gin.Context) {
	var cmd models.ActuatorCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, "Permintaan kontrol tidak valid.", err)
		return
	}
	field, value, err := cmd.Parse()
	if err != nil {
		badRequest(c, "Permintaan kontrol tidak valid.", err)
		return
	}

	state, err := h.store.SetActuatorField(c.Request.Context(), field, value)
	if err != nil {
		if isValidation(err) {
			badRequest(c, "Permintaan kontrol tidak valid.", err)
			return
		}
		h.storageFailure(c, "Gagal memperbarui status aktuator.", err)
		return
	}

	h.logger.Info("actuator updated", zap.String("field", string(field)), zap.String("value", string(value)))
	metrics.ObserveActuator(field, value)
	h.publish(c.Request.Context(), events.New(events.ActuatorChanged, state))

	c.JSON(http.StatusOK, state)
}
