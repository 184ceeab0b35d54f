package api

import (
	"context"

	"github.com/railconnect/railconnect/pkg/config"
	"github.com/railconnect/railconnect/pkg/dataimporter"
	"github.com/railconnect/railconnect/pkg/redis_client"
	"github.com/railconnect/railconnect/pkg/routecache"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the route search web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					ctx, cancel := context.WithCancel(c.Context)
					defer cancel()

					store, loader, err := dataimporter.OpenStore(ctx, cfg.Timetable)
					if err != nil {
						return err
					}
					go store.Refresh(ctx, loader, cfg.Timetable.RefreshInterval)

					server := &Server{
						Store:  store,
						Engine: routesearch.NewEngine(store, cfg.SearchOptions()),
					}

					if cfg.Cache.Enabled {
						if err := redis_client.Connect(ctx); err != nil {
							return err
						}
						if server.RouteCache, err = routecache.New(redis_client.Client, cfg.Cache.Expiration); err != nil {
							return err
						}
					}

					log.Info().Str("listen", c.String("listen")).Bool("cache", cfg.Cache.Enabled).Msg("Starting web api")

					return server.Listen(c.String("listen"))
				},
			},
		},
	}
}
