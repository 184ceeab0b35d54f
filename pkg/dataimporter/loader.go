package dataimporter

import (
	"context"
	"fmt"
	"os"

	"github.com/railconnect/railconnect/pkg/config"
	"github.com/railconnect/railconnect/pkg/database"
	"github.com/railconnect/railconnect/pkg/dataimporter/formats"
	"github.com/railconnect/railconnect/pkg/dataimporter/formats/datameet"
	"github.com/railconnect/railconnect/pkg/dataimporter/formats/gtfs"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/rs/zerolog/log"
)

// ParseSource reads a file based timetable source
func ParseSource(format string, path string) (formats.Format, error) {
	switch format {
	case formats.FormatDatameet:
		return datameet.ParseDirectory(os.DirFS(path))
	case formats.FormatGTFS:
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		schedule := &gtfs.Schedule{}
		if err := schedule.ParseFile(file); err != nil {
			return nil, fmt.Errorf("parsing gtfs %s: %w", path, err)
		}
		return schedule, nil
	default:
		return nil, fmt.Errorf("unsupported timetable format %q", format)
	}
}

// BuildSnapshot converts a parsed source into a validated snapshot
func BuildSnapshot(source formats.Format) (*timetable.Snapshot, error) {
	stations, runs, err := source.Timetable()
	if err != nil {
		return nil, err
	}
	return timetable.NewSnapshot(stations, runs)
}

// NewLoader returns the loader for the configured timetable source. The
// mongodb format expects database.Connect to have been called.
func NewLoader(timetableConfig config.TimetableConfig) timetable.Loader {
	if timetableConfig.Format == formats.FormatMongoDB {
		return timetable.LoaderFunc(func(ctx context.Context) (*timetable.Snapshot, error) {
			return LoadFromMongo(ctx, database.MongoGlobalInstance.Database)
		})
	}

	return timetable.LoaderFunc(func(ctx context.Context) (*timetable.Snapshot, error) {
		log.Info().Str("format", timetableConfig.Format).Str("path", timetableConfig.Path).Msg("Loading timetable")

		source, err := ParseSource(timetableConfig.Format, timetableConfig.Path)
		if err != nil {
			return nil, err
		}
		return BuildSnapshot(source)
	})
}

// OpenStore connects to MongoDB when the source needs it and loads the first
// snapshot. A timetable that fails validation is returned as an error.
func OpenStore(ctx context.Context, timetableConfig config.TimetableConfig) (*timetable.Store, timetable.Loader, error) {
	if timetableConfig.Format == formats.FormatMongoDB {
		if err := database.Connect(ctx); err != nil {
			return nil, nil, err
		}
	}

	loader := NewLoader(timetableConfig)
	store := timetable.NewStore(nil)
	if err := store.Reload(ctx, loader); err != nil {
		return nil, nil, fmt.Errorf("loading timetable: %w", err)
	}

	return store, loader, nil
}
