package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ReyCannavaro/urbangrow/config"
	"github.com/ReyCannavaro/urbangrow/events"
	"github.com/ReyCannavaro/urbangrow/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SensorStore is the reading side of the data-access layer.
type SensorStore interface {
	InsertReading(ctx context.Context, in models.ReadingInput) (models.SensorReading, error)
	LatestReading(ctx context.Context) (*models.SensorReading, bool, error)
	RecentReadings(ctx context.Context, limit int) ([]models.SensorReading, error)
}

// ActuatorStore is the actuator side of the data-access layer.
type ActuatorStore interface {
	ActuatorState(ctx context.Context) (models.ActuatorState, error)
	SetActuatorField(ctx context.Context, field models.ActuatorField, value models.SwitchState) (models.ActuatorState, error)
}

// Store is everything the HTTP layer needs from persistence.
type Store interface {
	SensorStore
	ActuatorStore
}

// ReadingCounter is implemented by stores that can report the log size.
type ReadingCounter interface {
	CountReadings(ctx context.Context) (int64, error)
}

// HealthChecker reports the database connection state.
type HealthChecker interface {
	State() config.ConnState
}

// Controller serves the REST API. It holds no per-request state.
type Controller struct {
	store     Store
	publisher events.Publisher
	health    HealthChecker
	logger    *zap.Logger
	now       func() time.Time
}

// NewController wires the handlers. publisher and health may be nil.
func NewController(store Store, publisher events.Publisher, health HealthChecker, logger *zap.Logger) *Controller {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Controller{
		store:     store,
		publisher: publisher,
		health:    health,
		logger:    logger.Named("api"),
		now:       time.Now,
	}
}

func badRequest(c *gin.Context, message string, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// storageFailure logs the cause and answers with a generic 500.
func (h *Controller) storageFailure(c *gin.Context, message string, err error) {
	_ = c.Error(err)
	h.logger.Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

func (h *Controller) publish(ctx context.Context, ev events.Event) {
	if err := h.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		h.logger.Warn("publish event failed", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}

func isValidation(err error) bool {
	var ve *models.ValidationError
	return errors.As(err, &ve)
}
