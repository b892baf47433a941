package controllers

import (
	"net/http"

	"github.com/ReyCannavaro/urbangrow/config"
	"github.com/ReyCannavaro/urbangrow/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigins []string
	Hub         *Hub
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(h *Controller, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.Recovery(logger), middlewares.RequestLogger(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	api := r.Group("/api")
	api.GET("/latest-reading", h.LatestReading)
	api.GET("/sensor-log", h.SensorLog)
	api.GET("/sensor-log/export", h.ExportCSV)
	api.POST("/update-sensor", h.UpdateSensor)
	api.GET("/water-quality", h.WaterQuality)
	api.GET("/actuator-status", h.ActuatorStatus)
	api.POST("/actuator-control", h.ActuatorControl)

	if opts.Hub != nil {
		r.GET("/ws", opts.Hub.HandleWebSocket)
	}
	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Endpoint tidak ditemukan."})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	conf := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	return conf
}

// GET /healthz
func (h *Controller) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	state := h.health.State()
	status := http.StatusOK
	if state != config.Connected {
		status = http.StatusServiceUnavailable
	}
	body := gin.H{
		"status":   http.StatusText(status),
		"database": state.String(),
	}
	if counter, ok := h.store.(ReadingCounter); ok && state == config.Connected {
		if n, err := counter.CountReadings(c.Request.Context()); err == nil {
			body["readings"] = n
		}
	}
	c.JSON(status, body)
}
