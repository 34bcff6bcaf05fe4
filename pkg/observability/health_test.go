package observability

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness(t *testing.T) {
	checker := NewHealthChecker(nil, nil)

	recorder := httptest.NewRecorder()
	checker.Liveness(recorder, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestReadiness(t *testing.T) {
	t.Run("healthy dependencies", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing()

		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		checker := NewHealthChecker(db, client)
		recorder := httptest.NewRecorder()
		checker.Readiness(recorder, httptest.NewRequest("GET", "/readyz", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)

		var status HealthStatus
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&status))
		assert.Equal(t, StatusHealthy, status.Status)
		assert.Contains(t, status.Dependencies, "database")
		assert.Contains(t, status.Dependencies, "redis")
	})

	t.Run("unhealthy database reports 503", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		checker := NewHealthChecker(db, nil)
		recorder := httptest.NewRecorder()
		checker.Readiness(recorder, httptest.NewRequest("GET", "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

		var status HealthStatus
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&status))
		assert.Equal(t, StatusUnhealthy, status.Status)
	})

	t.Run("no dependencies is healthy", func(t *testing.T) {
		checker := NewHealthChecker(nil, nil)
		recorder := httptest.NewRecorder()
		checker.Readiness(recorder, httptest.NewRequest("GET", "/readyz", nil))

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
