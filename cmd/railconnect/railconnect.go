package main

import (
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/natefinch/lumberjack"
	"github.com/railconnect/railconnect/pkg/api"
	"github.com/railconnect/railconnect/pkg/dataimporter"
	"github.com/railconnect/railconnect/pkg/journeygraph"
	"github.com/railconnect/railconnect/pkg/precompute"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func setupLogging() {
	var writers []io.Writer

	if os.Getenv("RAILCONNECT_LOG_FORMAT") != "JSON" {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, os.Stdout)
	}

	if logFile := os.Getenv("RAILCONNECT_LOG_FILE"); logFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	if os.Getenv("RAILCONNECT_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}
}

func main() {
	// A missing .env file is normal outside development
	envErr := godotenv.Load()

	setupLogging()

	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("Failed to read .env file")
	}

	app := &cli.App{
		Name:        "railconnect",
		Description: "Connecting train route search for Indian Railways timetables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to a YAML configuration file",
				EnvVars: []string{"RAILCONNECT_CONFIG"},
			},
		},

		Commands: []*cli.Command{
			api.RegisterCLI(),
			dataimporter.RegisterCLI(),
			precompute.RegisterCLI(),
			journeygraph.RegisterCLI(),
			searchCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
