package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	st := &state{out: out}

	return &cli.App{
		Name:  "stationctl",
		Usage: "Query and export fuel-station reports from the station API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Optional .env file to load before reading the environment",
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Station API base URL",
				EnvVars: []string{"STATION_API_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "token-file",
				Usage:   "Where the access and refresh tokens are stored",
				EnvVars: []string{"TOKEN_FILE"},
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "Zone used to read the calendar day of each record",
				EnvVars: []string{"TIMEZONE"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log at debug level",
			},
		},
		Before: st.init,
		After:  st.close,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and store the token pair",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Account email",
						Required: true,
						EnvVars:  []string{"STATION_EMAIL"},
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Required: true,
						EnvVars:  []string{"STATION_PASSWORD"},
					},
				},
				Action: st.login,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored tokens",
				Action: st.logout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the signed-in account and token expiry",
				Action: st.whoami,
			},
			{
				Name:      "export",
				Usage:     "Export a filtered, sorted dataset as CSV or XLSX",
				ArgsUsage: "<sales|trucks|stock>",
				Flags: append(filterFlags(),
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Field to sort by",
					},
					&cli.BoolFlag{
						Name:  "desc",
						Usage: "Sort descending",
					},
					&cli.BoolFlag{
						Name:  "xlsx",
						Usage: "Write an Excel workbook instead of CSV",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output path (defaults to the generated file name)",
					},
				),
				Action: st.export,
			},
			{
				Name:  "kpi",
				Usage: "Show progress of a sales metric against its targets",
				Flags: append(filterFlags(),
					&cli.StringFlag{
						Name:  "metric",
						Usage: "Metric key, e.g. net_sales",
					},
				),
				Action: st.kpi,
			},
			{
				Name:   "branches",
				Usage:  "List the branches present in this year's sales",
				Flags:  filterFlags(),
				Action: st.branches,
			},
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "branch", Usage: "Branch name"},
		&cli.StringFlag{Name: "year", Usage: "Four-digit year"},
		&cli.StringFlag{Name: "month", Usage: "Month, 1-12"},
		&cli.StringFlag{Name: "day", Usage: "Day of month"},
		&cli.StringFlag{Name: "search", Usage: "Case-insensitive text search"},
	}
}
