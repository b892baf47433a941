package models

import "fmt"

// ActuatorStateID is the fixed primary key of the singleton actuator row.
const ActuatorStateID = 1

// SwitchState is the ON/OFF value of a single actuator.
type SwitchState string

const (
	On  SwitchState = "ON"
	Off SwitchState = "OFF"
)

// ParseSwitchState accepts exactly "ON" or "OFF".
func ParseSwitchState(s string) (SwitchState, error) {
	switch SwitchState(s) {
	case On, Off:
		return SwitchState(s), nil
	}
	return "", &ValidationError{Field: "value", Reason: fmt.Sprintf("%q is not ON or OFF", s)}
}

// Flip returns the opposite state.
func (s SwitchState) Flip() SwitchState {
	if s == On {
		return Off
	}
	return On
}

// ActuatorField names a controllable column of the actuator row.
type ActuatorField string

const (
	PumpStatus  ActuatorField = "pumpStatus"
	LightStatus ActuatorField = "lightStatus"
)

// ParseActuatorField accepts exactly "pumpStatus" or "lightStatus".
func ParseActuatorField(s string) (ActuatorField, error) {
	switch ActuatorField(s) {
	case PumpStatus, LightStatus:
		return ActuatorField(s), nil
	}
	return "", &ValidationError{Field: "key", Reason: fmt.Sprintf("%q is not a known actuator", s)}
}

// ActuatorState stores the current pump and light state. Exactly one row,
// with ID ActuatorStateID, is ever read or written.
type ActuatorState struct {
	ID          uint        `json:"-" gorm:"primaryKey;autoIncrement:false"`
	PumpStatus  SwitchState `json:"pumpStatus" gorm:"column:pumpStatus;type:varchar(3);not null;default:OFF"`
	LightStatus SwitchState `json:"lightStatus" gorm:"column:lightStatus;type:varchar(3);not null;default:OFF"`
}

func (ActuatorState) TableName() string {
	return "actuator_status"
}

// DefaultActuatorState is the all-OFF state used on first start and when the
// row is missing.
func DefaultActuatorState() ActuatorState {
	return ActuatorState{ID: ActuatorStateID, PumpStatus: Off, LightStatus: Off}
}

// Get returns the value of field.
func (a ActuatorState) Get(field ActuatorField) SwitchState {
	if field == LightStatus {
		return a.LightStatus
	}
	return a.PumpStatus
}

// ActuatorCommand is the actuator-control payload.
type ActuatorCommand struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Parse validates both halves of the command.
func (c ActuatorCommand) Parse() (ActuatorField, SwitchState, error) {
	field, err := ParseActuatorField(c.Key)
	if err != nil {
		return "", "", err
	}
	value, err := ParseSwitchState(c.Value)
	if err != nil {
		return "", "", err
	}
	return field, value, nil
}
