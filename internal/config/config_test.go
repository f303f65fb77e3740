package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "proximity", cfg.Mongo.Database)
	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.Equal(t, 10, cfg.App.ShutdownTimeoutSeconds)
	assert.Equal(t, 10000.0, cfg.Near.RadiusMeters)
	assert.Equal(t, 25, cfg.Seed.Count)
	assert.Equal(t, "3.91,51.01", cfg.Seed.Centers)
	assert.Equal(t, "proximity-service", cfg.Logger.ServiceName)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ProductionDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	// A caller-supplied radius is a development convenience; production
	// deployments must pin the configured constant.
	assert.False(t, cfg.Near.AllowCustomRadius)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("MONGO_DB", "proximity_staging")
	t.Setenv("NEAR_RADIUS_METERS", "5000")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "proximity_staging", cfg.Mongo.Database)
	assert.Equal(t, 5000.0, cfg.Near.RadiusMeters)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Mongo.URI = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Near.RadiusMeters = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Seed.Count = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Seed.Centers = "not-a-pair"
	assert.Error(t, cfg.Validate())
}

func TestParseCenters(t *testing.T) {
	tests := []struct {
		name    string
		centers string
		want    [][]float64
		wantErr bool
	}{
		{
			name:    "single pair",
			centers: "3.91,51.01",
			want:    [][]float64{{3.91, 51.01}},
		},
		{
			name:    "multiple pairs",
			centers: "3.91,51.01;4.35,50.85",
			want:    [][]float64{{3.91, 51.01}, {4.35, 50.85}},
		},
		{
			name:    "whitespace tolerated",
			centers: " 3.91 , 51.01 ; 4.35 , 50.85 ",
			want:    [][]float64{{3.91, 51.01}, {4.35, 50.85}},
		},
		{
			name:    "empty",
			centers: "",
			wantErr: true,
		},
		{
			name:    "missing latitude",
			centers: "3.91",
			wantErr: true,
		},
		{
			name:    "garbage longitude",
			centers: "east,51.01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := SeedConfig{Centers: tt.centers}
			got, err := sc.ParseCenters()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
