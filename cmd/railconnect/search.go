package main

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/railconnect/railconnect/pkg/config"
	"github.com/railconnect/railconnect/pkg/dataimporter"
	"github.com/railconnect/railconnect/pkg/routeformat"
	"github.com/railconnect/railconnect/pkg/routesearch"
	"github.com/railconnect/railconnect/pkg/util"
	"github.com/urfave/cli/v2"
)

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Run one route search against the configured timetable and print the response",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Required: true},
			&cli.StringFlag{Name: "destination", Required: true},
			&cli.StringFlag{Name: "date", Required: true, Usage: "travel date as YYYY-MM-DD"},
			&cli.StringFlag{Name: "criteria", Value: string(routesearch.Fastest)},
			&cli.StringFlag{Name: "switches", Usage: "comma separated switch counts or all"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}

			date, err := util.ParseDate(c.String("date"))
			if err != nil {
				return err
			}
			criterion, err := routesearch.ParseCriterion(c.String("criteria"))
			if err != nil {
				return err
			}
			options := cfg.SearchOptions()
			switches, err := routesearch.ParseSwitches(c.String("switches"), options.DefaultSwitches)
			if err != nil {
				return err
			}

			store, _, err := dataimporter.OpenStore(c.Context, cfg.Timetable)
			if err != nil {
				return err
			}

			result, err := routesearch.NewEngine(store, options).Search(c.Context, routesearch.Request{
				Origin:      c.String("source"),
				Destination: c.String("destination"),
				Date:        date,
				Criterion:   criterion,
				Switches:    switches,
			})
			if err != nil {
				return err
			}

			response, err := routeformat.Format(result)
			if err != nil {
				return err
			}

			fmt.Printf("%# v\n", pretty.Formatter(response))

			return nil
		},
	}
}
