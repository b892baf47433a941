package client

import (
	"context"

	"github.com/ReyCannavaro/urbangrow/models"
)

// ActuatorAPI is the part of Client the submitter needs.
type ActuatorAPI interface {
	SetActuator(ctx context.Context, field models.ActuatorField, value models.SwitchState) (models.ActuatorState, error)
	ActuatorStatus(ctx context.Context) (models.ActuatorState, error)
}

// Submitter sends actuator changes and then refetches the actuator state
// into the poller, so the cached view always reflects the server.
type Submitter struct {
	api    ActuatorAPI
	poller *Poller
}

func NewSubmitter(api ActuatorAPI, poller *Poller) *Submitter {
	return &Submitter{api: api, poller: poller}
}

// Set posts the change. If the post fails the poller's state is left as it
// was. Otherwise the actuator state is refetched and applied through the
// poller's generation guard; the connection state is left to the poller.
func (s *Submitter) Set(ctx context.Context, field models.ActuatorField, value models.SwitchState) (models.ActuatorState, error) {
	if _, err := s.api.SetActuator(ctx, field, value); err != nil {
		return models.ActuatorState{}, err
	}

	gen := s.poller.nextGeneration()
	state, err := s.api.ActuatorStatus(ctx)
	s.poller.apply(gen, err, false, func(snap *Snapshot) {
		snap.Actuators = state
	})
	if err != nil {
		return models.ActuatorState{}, err
	}
	return state, nil
}

// Toggle flips field relative to the cached state, fetching it first when
// the poller has not seen a successful result yet.
func (s *Submitter) Toggle(ctx context.Context, field models.ActuatorField) (models.ActuatorState, error) {
	current := s.poller.Snapshot().Actuators
	if current.Get(field) == "" {
		var err error
		if current, err = s.api.ActuatorStatus(ctx); err != nil {
			return models.ActuatorState{}, err
		}
	}
	return s.Set(ctx, field, current.Get(field).Flip())
}
