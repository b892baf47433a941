// Package store is the data-access layer over the sensor log and the
// singleton actuator row.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ReyCannavaro/urbangrow/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Conn hands out the current database handle. The connection supervisor
// implements it; Static wraps a fixed handle.
type Conn interface {
	DB() (*gorm.DB, error)
	ReportError(err error)
}

// Static is a Conn over an already open handle.
type Static struct {
	Handle *gorm.DB
}

func (s Static) DB() (*gorm.DB, error) { return s.Handle, nil }

func (Static) ReportError(error) {}

// Store issues parameterized queries through the current connection.
type Store struct {
	conn Conn
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to timestamp readings.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store over conn.
func New(conn Conn, opts ...Option) *Store {
	s := &Store{conn: conn, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates both tables if absent and inserts the default
// actuator row without touching an existing one.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(&models.SensorReading{}, &models.ActuatorState{}); err != nil {
		return &StorageError{Op: "migrate", Err: err}
	}
	if err := ensureActuatorRow(db); err != nil {
		return &StorageError{Op: "seed actuator state", Err: err}
	}
	return nil
}

func ensureActuatorRow(db *gorm.DB) error {
	row := models.DefaultActuatorState()
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *Store) db(ctx context.Context, op string) (*gorm.DB, error) {
	db, err := s.conn.DB()
	if err != nil {
		return nil, &StorageError{Op: op, Err: err}
	}
	return db.WithContext(ctx), nil
}

// fail wraps err and hands it to the connection so a lost link triggers
// a reconnect.
func (s *Store) fail(op string, err error) error {
	s.conn.ReportError(err)
	return &StorageError{Op: op, Err: err}
}

// InsertReading appends a reading and returns the stored row, including
// the id assigned by the database.
func (s *Store) InsertReading(ctx context.Context, in models.ReadingInput) (models.SensorReading, error) {
	const op = "insert reading"
	if err := in.Validate(); err != nil {
		return models.SensorReading{}, &StorageError{Op: op, Err: fmt.Errorf("%w: %v", ErrMissingField, err)}
	}
	db, err := s.db(ctx, op)
	if err != nil {
		return models.SensorReading{}, err
	}

	reading := in.Reading(s.now())
	if err := db.Create(&reading).Error; err != nil {
		return models.SensorReading{}, s.fail(op, err)
	}
	return reading, nil
}

// LatestReading returns the most recent reading; ok is false when the log
// is empty.
func (s *Store) LatestReading(ctx context.Context) (*models.SensorReading, bool, error) {
	readings, err := s.RecentReadings(ctx, 1)
	if err != nil {
		return nil, false, err
	}
	if len(readings) == 0 {
		return nil, false, nil
	}
	return &readings[0], true, nil
}

// RecentReadings returns at most limit readings, newest first.
func (s *Store) RecentReadings(ctx context.Context, limit int) ([]models.SensorReading, error) {
	const op = "recent readings"
	readings := []models.SensorReading{}
	if limit <= 0 {
		return readings, nil
	}
	db, err := s.db(ctx, op)
	if err != nil {
		return nil, err
	}

	if err := db.Order("timestamp desc").Order("id desc").Limit(limit).Find(&readings).Error; err != nil {
		return nil, s.fail(op, err)
	}
	return readings, nil
}

// CountReadings returns the number of stored readings.
func (s *Store) CountReadings(ctx context.Context) (int64, error) {
	const op = "count readings"
	db, err := s.db(ctx, op)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&models.SensorReading{}).Count(&count).Error; err != nil {
		return 0, s.fail(op, err)
	}
	return count, nil
}

// ActuatorState reads the singleton row, or the all-OFF default when the
// row is missing.
func (s *Store) ActuatorState(ctx context.Context) (models.ActuatorState, error) {
	const op = "get actuator state"
	db, err := s.db(ctx, op)
	if err != nil {
		return models.ActuatorState{}, err
	}

	var rows []models.ActuatorState
	if err := db.Where("id = ?", models.ActuatorStateID).Limit(1).Find(&rows).Error; err != nil {
		return models.ActuatorState{}, s.fail(op, err)
	}
	if len(rows) == 0 {
		return models.DefaultActuatorState(), nil
	}
	return rows[0], nil
}

// SetActuatorField writes a single column of the actuator row and returns
// the state read back afterwards. Concurrent writes to the same field are
// last-write-wins.
func (s *Store) SetActuatorField(ctx context.Context, field models.ActuatorField, value models.SwitchState) (models.ActuatorState, error) {
	const op = "set actuator field"
	if _, err := models.ParseActuatorField(string(field)); err != nil {
		return models.ActuatorState{}, err
	}
	if _, err := models.ParseSwitchState(string(value)); err != nil {
		return models.ActuatorState{}, err
	}
	db, err := s.db(ctx, op)
	if err != nil {
		return models.ActuatorState{}, err
	}

	update := func() (int64, error) {
		res := db.Model(&models.ActuatorState{}).
			Where("id = ?", models.ActuatorStateID).
			Update(string(field), value)
		return res.RowsAffected, res.Error
	}

	affected, err := update()
	if err != nil {
		return models.ActuatorState{}, s.fail(op, err)
	}
	if affected == 0 {
		// Either the row vanished or the driver reports changed rows only.
		if err := ensureActuatorRow(db); err != nil {
			return models.ActuatorState{}, s.fail(op, err)
		}
		if _, err := update(); err != nil {
			return models.ActuatorState{}, s.fail(op, err)
		}
	}

	return s.ActuatorState(ctx)
}
