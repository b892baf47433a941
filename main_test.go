package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/ReyCannavaro/urbangrow/client"
	"github.com/ReyCannavaro/urbangrow/models"
	"github.com/ReyCannavaro/urbangrow/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToggleArgs(t *testing.T) {
	field, value, err := parseToggleArgs([]string{"pump", "on"})
	require.NoError(t, err)
	assert.Equal(t, models.PumpStatus, field)
	assert.Equal(t, models.On, value)

	field, value, err = parseToggleArgs([]string{"Lampu"})
	require.NoError(t, err)
	assert.Equal(t, models.LightStatus, field)
	assert.Empty(t, value)

	_, _, err = parseToggleArgs([]string{"fan", "on"})
	assert.Error(t, err)

	_, _, err = parseToggleArgs([]string{"pump", "maybe"})
	assert.Error(t, err)
}

func TestPrintSnapshot(t *testing.T) {
	var buf bytes.Buffer
	printSnapshot(&buf, client.Snapshot{
		State:     client.Connected,
		Reading:   models.SensorReading{Temperature: 25.04, PH: 6.8, LDRValue: 512, Timestamp: time.Now()},
		Actuators: models.ActuatorState{PumpStatus: models.On, LightStatus: models.Off},
		Quality:   utils.ClassifyWater(25.04, 6.8),
	})
	assert.Contains(t, buf.String(), "suhu 25.0°C (Hangat)")
	assert.Contains(t, buf.String(), "pH 6.80 (Ideal (Netral))")
	assert.Contains(t, buf.String(), "pompa ON  lampu OFF  Optimal")

	buf.Reset()
	printSnapshot(&buf, client.Snapshot{State: client.Disconnected, Err: errors.New("connection refused")})
	assert.Contains(t, buf.String(), "disconnected: connection refused")
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "watch", "toggle", "ingest", "chat"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
