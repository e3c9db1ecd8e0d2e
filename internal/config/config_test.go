package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	required := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "database_url",
			env:  map[string]string{"DATABASE_URL": ""},
			want: "missing DATABASE_URL",
		},
		{
			name: "jwt_secret",
			env:  map[string]string{"DATABASE_URL": "postgres://localhost:5432/db", "JWT_SECRET": ""},
			want: "missing JWT_SECRET",
		},
		{
			name: "rabbit_url_in_prod",
			env: map[string]string{
				"APP_ENV":      "prod",
				"DATABASE_URL": "postgres://localhost",
				"JWT_SECRET":   "secret",
				"RABBIT_URL":   "",
			},
			want: "missing RABBIT_URL",
		},
	}
	for _, tc := range required {
		t.Run("should_require_"+tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, tc.want)
		})
	}

	t.Run("should_apply_defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/db")
		t.Setenv("JWT_SECRET", "super-secret")
		t.Setenv("APP_ENV", "dev")
		for _, k := range []string{"RABBIT_EXCHANGE", "SCHEDULER_TIMEZONE", "ALARM_REMINDER_HOUR", "SCHEDULER_ENABLED"} {
			t.Setenv(k, "")
		}

		cfg, err := Load()
		assert.NoError(t, err)
		if assert.NotNil(t, cfg) {
			assert.Equal(t, "dev", cfg.AppEnv)
			assert.Equal(t, "discovery.events", cfg.RabbitExchange)
			assert.Equal(t, "push.requested", cfg.RabbitPushRoutingKey)
			assert.True(t, cfg.SchedulerEnabled)
			assert.Equal(t, "Asia/Seoul", cfg.Location.String())
			assert.Equal(t, 9, cfg.AlarmReminderHour)
			assert.Equal(t, 7*24*time.Hour, cfg.AlarmDedupTTL)
		}
	})
}

func TestLoad_Scheduling(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "dev")

	t.Run("should_reject_unknown_timezone", func(t *testing.T) {
		t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")
		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.ErrorContains(t, err, "SCHEDULER_TIMEZONE")
	})

	t.Run("should_reject_out_of_range_reminder_hour", func(t *testing.T) {
		t.Setenv("ALARM_REMINDER_HOUR", "24")
		cfg, err := Load()
		assert.Nil(t, cfg)
		assert.ErrorContains(t, err, "ALARM_REMINDER_HOUR")
	})

	t.Run("should_read_overrides", func(t *testing.T) {
		t.Setenv("SCHEDULER_TIMEZONE", "UTC")
		t.Setenv("SCHEDULER_ENABLED", "false")
		t.Setenv("SCHEDULER_RECOVERY_LOOKBACK", "72h")
		t.Setenv("PUSH_RATE_PER_SEC", "2.5")

		cfg, err := Load()
		assert.NoError(t, err)
		assert.False(t, cfg.SchedulerEnabled)
		assert.Equal(t, time.UTC, cfg.Location)
		assert.Equal(t, 72*time.Hour, cfg.RecoveryLookback)
		assert.Equal(t, 2.5, cfg.PushRatePerSec)
	})
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "  value_with_spaces  ")
	t.Setenv("TEST_DUR", "5s")
	t.Setenv("TEST_BAD_DUR", "invalid")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_BAD_BOOL", "maybe")
	t.Setenv("TEST_FLOAT", "0.5")

	assert.Equal(t, "value_with_spaces", getEnv("TEST_STR", "default"))
	assert.Equal(t, "default", getEnv("TEST_UNSET", "default"))

	assert.Equal(t, 5*time.Second, getDuration("TEST_DUR", 10*time.Second))
	assert.Equal(t, 10*time.Second, getDuration("TEST_BAD_DUR", 10*time.Second))

	assert.Equal(t, 42, getIntEnv("TEST_INT", 1))
	assert.Equal(t, 1, getIntEnv("TEST_STR", 1))

	assert.False(t, getBoolEnv("TEST_BOOL", true))
	assert.True(t, getBoolEnv("TEST_BAD_BOOL", true))

	assert.Equal(t, 0.5, getFloatEnv("TEST_FLOAT", 1))
	assert.Equal(t, 1.0, getFloatEnv("TEST_UNSET", 1))
}
