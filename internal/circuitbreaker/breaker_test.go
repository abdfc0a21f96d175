package circuitbreaker

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"toolgate/internal/common/errors"
	"toolgate/internal/common/logging"
)

func TestGoBreakerAdapter(t *testing.T) {
	logger := logging.GetGlobalLogger()

	t.Run("basic operation", func(t *testing.T) {
		cb := NewGoBreaker("test-basic", Config{
			MaxFailures:           2,
			Timeout:               100 * time.Millisecond,
			MaxConcurrentRequests: 1,
		}, logger)

		assert.Equal(t, StateClosed, cb.State())
		assert.NoError(t, cb.Execute(func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, "test-basic", cb.Name())
	})

	t.Run("circuit opens after failures", func(t *testing.T) {
		cb := NewGoBreaker("test-failures", Config{
			MaxFailures:           3,
			Timeout:               time.Minute,
			MaxConcurrentRequests: 1,
		}, logger)

		for i := 0; i < 3; i++ {
			err := cb.Execute(func() error { return stderrors.New("redis down") })
			require.Error(t, err)
			assert.Contains(t, err.Error(), "redis down")
		}

		assert.Equal(t, StateOpen, cb.State())

		called := false
		err := cb.Execute(func() error {
			called = true
			return nil
		})
		assert.False(t, called)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeConnection))
		assert.Contains(t, err.Error(), "is open")
	})

	t.Run("half-open after timeout", func(t *testing.T) {
		cb := NewGoBreaker("test-recovery", Config{
			MaxFailures:           1,
			Timeout:               20 * time.Millisecond,
			MaxConcurrentRequests: 1,
		}, logger)

		_ = cb.Execute(func() error { return stderrors.New("boom") })
		assert.Equal(t, StateOpen, cb.State())

		time.Sleep(40 * time.Millisecond)
		assert.Equal(t, StateHalfOpen, cb.State())

		assert.NoError(t, cb.Execute(func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("validation errors do not trip", func(t *testing.T) {
		cb := NewGoBreaker("test-validation", Config{
			MaxFailures:           1,
			Timeout:               time.Minute,
			MaxConcurrentRequests: 1,
		}, logger)

		for i := 0; i < 3; i++ {
			_ = cb.Execute(func() error { return errors.ValidationError("bad key") })
		}
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("invalid config uses defaults", func(t *testing.T) {
		cb := NewGoBreaker("test-invalid", Config{}, nil)
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("stats", func(t *testing.T) {
		cb := NewGoBreaker("test-stats", DefaultConfig(), logger)
		_ = cb.Execute(func() error { return nil })
		_ = cb.Execute(func() error { return stderrors.New("x") })

		stats := cb.Stats()
		assert.Equal(t, "test-stats", stats.Name)
		assert.Equal(t, "closed", stats.State)
		assert.Equal(t, 1, stats.Successes)
		assert.Equal(t, 1, stats.Failures)
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{Timeout: time.Second, MaxConcurrentRequests: 1}.Validate())
	assert.Error(t, Config{MaxFailures: 1, MaxConcurrentRequests: 1}.Validate())
	assert.Error(t, Config{MaxFailures: 1, Timeout: time.Second}.Validate())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
