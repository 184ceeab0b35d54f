package precompute

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/railconnect/railconnect/pkg/config"
	"github.com/railconnect/railconnect/pkg/consumer"
	"github.com/railconnect/railconnect/pkg/dataimporter"
	"github.com/railconnect/railconnect/pkg/redis_client"
	"github.com/railconnect/railconnect/pkg/routecache"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/timetable"
	"github.com/railconnect/railconnect/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "precompute",
		Usage: "Warm the route cache for busy station pairs",
		Subcommands: []*cli.Command{
			{
				Name:  "enqueue",
				Usage: "Queue searches between the busiest stations",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "stations",
						Value: 20,
						Usage: "number of busiest stations to pair up",
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "first travel date as YYYY-MM-DD, tomorrow when empty",
					},
					&cli.StringFlag{
						Name:  "horizon",
						Value: "P1D",
						Usage: "ISO 8601 duration of travel dates to cover",
					},
					&cli.StringFlag{
						Name:  "criteria",
						Value: string(routesearch.Fastest),
					},
					&cli.StringFlag{
						Name:  "switches",
						Usage: "switch counts to search, the configured default when empty",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					from, err := startDate(c.String("date"), time.Now())
					if err != nil {
						return err
					}
					dates, err := Dates(from, c.String("horizon"))
					if err != nil {
						return err
					}

					ctx := c.Context
					store, _, err := dataimporter.OpenStore(ctx, cfg.Timetable)
					if err != nil {
						return err
					}
					if err := redis_client.Connect(ctx); err != nil {
						return err
					}

					queue, err := redis_client.QueueConnection.OpenQueue(QueueName)
					if err != nil {
						return err
					}

					jobs := Plan(store.Snapshot(), c.Int("stations"), dates, c.String("criteria"), c.String("switches"))
					if err := Enqueue(queue, jobs); err != nil {
						return err
					}

					log.Info().Int("jobs", len(jobs)).Int("dates", len(dates)).Msg("Queued precompute jobs")

					return nil
				},
			},
			{
				Name:  "run",
				Usage: "Consume queued searches and store the results",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "consumers",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Value: 20,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Value: 4,
						Usage: "searches run at once within a batch",
					},
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: ":3333",
						Usage: "listen target for queue stats and health, empty to disable",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()

					store, loader, err := dataimporter.OpenStore(ctx, cfg.Timetable)
					if err != nil {
						return err
					}
					go store.Refresh(ctx, loader, cfg.Timetable.RefreshInterval)

					if err := redis_client.Connect(ctx); err != nil {
						return err
					}
					routeCache, err := routecache.New(redis_client.Client, cfg.Cache.Expiration)
					if err != nil {
						return err
					}

					warmer := &Warmer{
						Source:      store,
						Engine:      routesearch.NewEngine(store, cfg.SearchOptions()),
						Cache:       routeCache,
						Concurrency: c.Int("concurrency"),
					}

					redisConsumer := &consumer.RedisConsumer{
						QueueName:       QueueName,
						NumberConsumers: c.Int("consumers"),
						BatchSize:       c.Int("batch-size"),
						Timeout:         5 * time.Second,
						Consumer:        warmer,
					}
					if _, err := redisConsumer.Start(redis_client.QueueConnection); err != nil {
						return err
					}
					go consumer.RunCleaner(ctx, redis_client.QueueConnection, 5*time.Minute)

					if listen := c.String("stats-listen"); listen != "" {
						health := consumer.NewHealthHandler(func(ctx context.Context) error {
							return redis_client.Client.Ping(ctx).Err()
						})
						go func() {
							if err := consumer.ServeStats(listen, QueueName, redis_client.QueueConnection, health); err != nil && !errors.Is(err, http.ErrServerClosed) {
								log.Error().Err(err).Msg("Stats server stopped")
							}
						}()
					}

					<-ctx.Done()
					log.Info().Msg("Stopping precompute consumers")
					<-redis_client.QueueConnection.StopAllConsuming()

					return nil
				},
			},
		},
	}
}

func startDate(value string, now time.Time) (time.Time, error) {
	if value != "" {
		return util.ParseDate(value)
	}
	return util.ShiftDate("P1D", timetable.StartOfDay(now))
}
