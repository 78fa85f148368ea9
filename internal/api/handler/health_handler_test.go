package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDBChecker struct {
	err error
}

func (f *fakeDBChecker) HealthCheck(_ context.Context) error {
	return f.err
}

type fakeBrokerChecker struct {
	connected bool
}

func (f *fakeBrokerChecker) IsConnected() bool {
	return f.connected
}

func performHealthCheck(t *testing.T, db DBChecker, broker BrokerChecker) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHealthHandler(&Dependencies{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		DB:     db,
		Broker: broker,
	})

	r := gin.New()
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         DBChecker
		broker     BrokerChecker
		wantStatus int
		wantBody   string
	}{
		{
			name:       "all dependencies healthy",
			db:         &fakeDBChecker{},
			broker:     &fakeBrokerChecker{connected: true},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
		{
			name:       "database down",
			db:         &fakeDBChecker{err: errors.New("connection refused")},
			broker:     &fakeBrokerChecker{connected: true},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
		},
		{
			name:       "broker disconnected",
			db:         &fakeDBChecker{},
			broker:     &fakeBrokerChecker{connected: false},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
		},
		{
			name:       "no dependencies wired",
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := performHealthCheck(t, tt.db, tt.broker)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}

func TestHealthHandler_ChecksPerDependency(t *testing.T) {
	_, body := performHealthCheck(t,
		&fakeDBChecker{err: errors.New("connection refused")},
		&fakeBrokerChecker{connected: true},
	)

	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unhealthy", checks["database"])
	assert.Equal(t, "healthy", checks["rabbitmq"])
}
