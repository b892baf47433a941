package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	got []Event
	err error
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.got = append(r.got, ev)
	return r.err
}

func TestMultiPublishesToAll(t *testing.T) {
	a := &recorder{}
	b := &recorder{err: errors.New("offline")}
	m := Multi{a, nil, b}

	err := m.Publish(context.Background(), New(ReadingCreated, 1))

	assert.ErrorContains(t, err, "offline")
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
	assert.Equal(t, ReadingCreated, a.got[0].Type)
	assert.False(t, a.got[0].Time.IsZero())
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "urbangrow.readings", Subject(ReadingCreated))
	assert.Equal(t, "urbangrow.actuators", Subject(ActuatorChanged))
	assert.Equal(t, "urbangrow.events", Subject(Type("other")))
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), New(ActuatorChanged, nil)))
}
