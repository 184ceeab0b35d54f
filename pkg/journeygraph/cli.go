package journeygraph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/railconnect/railconnect/pkg/config"
	"github.com/railconnect/railconnect/pkg/dataimporter"
	"github.com/railconnect/railconnect/pkg/util"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "Export the rail network to Neo4j",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write stations and consecutive calls of the loaded timetable",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Value: 1000,
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "delete existing Station nodes before exporting",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					ctx := c.Context
					store, _, err := dataimporter.OpenStore(ctx, cfg.Timetable)
					if err != nil {
						return err
					}

					env := util.Env(util.GetEnvironmentVariables())
					driver, err := neo4j.NewDriverWithContext(
						env.String("NEO4J_URL", "neo4j://localhost"),
						neo4j.BasicAuth(env.String("NEO4J_USERNAME", "neo4j"), env.String("NEO4J_PASSWORD", ""), ""))
					if err != nil {
						return err
					}
					defer driver.Close(ctx)

					if err := driver.VerifyConnectivity(ctx); err != nil {
						return err
					}

					session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: env.String("NEO4J_DATABASE", "neo4j")})
					defer session.Close(ctx)

					exporter := &Exporter{
						Writer:    NewSessionWriter(session),
						BatchSize: c.Int("batch-size"),
						Clear:     c.Bool("clear"),
					}
					return exporter.Export(ctx, store.Snapshot())
				},
			},
		},
	}
}
