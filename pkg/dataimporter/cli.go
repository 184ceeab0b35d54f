package dataimporter

import (
	"context"
	"time"

	"github.com/railconnect/railconnect/pkg/database"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	sourceFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "format",
			Usage:    "Timetable source format (datameet or gtfs)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "path",
			Usage:    "Directory of datameet JSON files or a GTFS zip",
			Required: true,
		},
	}

	return &cli.Command{
		Name:  "timetable",
		Usage: "Import and check timetable datasets",
		Subcommands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Parse a timetable dataset and store it in MongoDB",
				Flags: sourceFlags,
				Action: func(c *cli.Context) error {
					startTime := time.Now()

					snapshot, err := parseSnapshot(c.String("format"), c.String("path"))
					if err != nil {
						return err
					}

					ctx := context.Background()
					if err := database.Connect(ctx); err != nil {
						return err
					}

					if err := WriteSnapshot(ctx, database.MongoGlobalInstance.Database, snapshot); err != nil {
						return err
					}

					log.Info().Msgf("Import took %s", time.Since(startTime).String())

					return nil
				},
			},
			{
				Name:  "check",
				Usage: "Parse and validate a timetable dataset without storing it",
				Flags: sourceFlags,
				Action: func(c *cli.Context) error {
					snapshot, err := parseSnapshot(c.String("format"), c.String("path"))
					if err != nil {
						return err
					}

					for _, station := range snapshot.BusiestStations(10) {
						log.Info().
							Str("station", station.Code).
							Str("name", station.Name).
							Int("runs", snapshot.CallingRuns(station.Code)).
							Msg("Busy station")
					}

					return nil
				},
			},
		},
	}
}

func parseSnapshot(format string, path string) (*timetable.Snapshot, error) {
	source, err := ParseSource(format, path)
	if err != nil {
		return nil, err
	}

	snapshot, err := BuildSnapshot(source)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("version", snapshot.Version()).
		Int("stations", snapshot.StationCount()).
		Int("runs", len(snapshot.Runs())).
		Msg("Timetable is valid")

	return snapshot, nil
}
