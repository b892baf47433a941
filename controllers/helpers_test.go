package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ReyCannavaro/urbangrow/models"
	"github.com/ReyCannavaro/urbangrow/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	store  *store.Store
	db     *gorm.DB
	hub    *Hub
}

func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, store.EnsureSchema(context.Background(), db))

	s := store.New(store.Static{Handle: db}, store.WithClock(steppingClock()))
	hub := NewHub(zap.NewNop())
	h := NewController(s, hub, nil, zap.NewNop())
	return &testEnv{
		router: NewRouter(h, RouterOptions{Hub: hub}, zap.NewNop()),
		store:  s,
		db:     db,
		hub:    hub,
	}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			json.NewEncoder(&buf).Encode(b)
		}
	}
	r, _ := http.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, r)
	return rec
}

func (e *testEnv) count(t *testing.T) int64 {
	var n int64
	require.NoError(t, e.db.Model(&models.SensorReading{}).Count(&n).Error)
	return n
}

type readingBody struct {
	Temperature float64   `json:"temperature"`
	PH          float64   `json:"ph"`
	LDRValue    int       `json:"ldr_value"`
	Timestamp   time.Time `json:"timestamp"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
