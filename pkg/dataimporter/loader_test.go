package dataimporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/railconnect/railconnect/pkg/config"
	"github.com/railconnect/railconnect/pkg/dataimporter/formats/datameet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDatameet(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		datameet.StationsFile: `{"features":[{"properties":{"code":"NDLS","name":"New Delhi","state":"Delhi"}},{"properties":{"code":"KOTA","name":"Kota Jn","state":"Rajasthan"}}]}`,
		datameet.TrainsFile:   `{"features":[{"properties":{"number":"12952","name":"Mumbai Rajdhani"}}]}`,
		datameet.SchedulesFile: `[{"id":1,"train_number":"12952","station_code":"NDLS","arrival":"None","departure":"16:55:00","day":1,"distance":0},
			{"id":2,"train_number":"12952","station_code":"KOTA","arrival":"21:35:00","departure":"21:40:00","day":1,"distance":465}]`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestNewLoaderDatameet(t *testing.T) {
	loader := NewLoader(config.TimetableConfig{Format: "datameet", Path: writeDatameet(t)})

	snapshot, err := loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.StationCount())
	assert.Len(t, snapshot.Runs(), 1)
	assert.NotEmpty(t, snapshot.Version())
}

func TestNewLoaderMissingPath(t *testing.T) {
	loader := NewLoader(config.TimetableConfig{Format: "gtfs", Path: filepath.Join(t.TempDir(), "missing.zip")})

	_, err := loader.Load(context.Background())
	assert.Error(t, err)
}

func TestParseSourceUnknownFormat(t *testing.T) {
	_, err := ParseSource("cif", "somewhere")
	assert.ErrorContains(t, err, "cif")
}
