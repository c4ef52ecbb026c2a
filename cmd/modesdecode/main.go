// modesdecode is the ingest daemon and decode tool for Mode S / ADS-B
// frames. `ingest` runs the full pipeline: receiver feeds in, decoded
// reports out to NATS, ClickHouse/PostgreSQL and a live websocket.
// `decode` is the offline tool: frames in, a table out.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/jetwatch/modes/lib/logging"
	"github.com/jetwatch/modes/lib/setup"
)

const (
	flagConfig     = "config"
	flagNatsURL    = "nats"
	flagHTTPAddr   = "http-addr"
	flagStore      = "store"
	flagStrictAddr = "strict-address-check"
)

func main() {
	app := &cli.App{
		Name:  "modesdecode",
		Usage: "Decode Mode S / ADS-B 1090MHz downlink frames",
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Run the ingest pipeline: sources in, reports out",
				Action: runIngest,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Usage:   "Path to a config file (yaml). Defaults to ./modesdecode.yaml if present",
						EnvVars: []string{"CONFIG"},
					},
					&cli.StringFlag{
						Name:    flagNatsURL,
						Usage:   "NATS server to publish decoded reports to, e.g. nats://localhost:4222",
						EnvVars: []string{"NATS"},
					},
					&cli.StringFlag{
						Name:    flagHTTPAddr,
						Usage:   "Address to serve /metrics, /aircraft.geojson and /live on",
						Value:   ":8080",
						EnvVars: []string{"HTTP_ADDR"},
					},
					&cli.BoolFlag{
						Name:    flagStore,
						Usage:   "Persist reports to ClickHouse/PostgreSQL (connection settings from config)",
						EnvVars: []string{"STORE"},
					},
					&cli.BoolFlag{
						Name:    flagStrictAddr,
						Usage:   "Reject address-parity frames whose address was not recently confirmed by a clean squitter",
						EnvVars: []string{"STRICT_ADDRESS_CHECK"},
					},
				},
			},
			{
				Name:      "decode",
				Usage:     "Decode frames given as hex arguments (or stdin with -) and print a table",
				ArgsUsage: "[hex frame...]",
				Action:    runDecode,
			},
		},
	}

	setup.IncludeSourceFlags(app)
	logging.IncludeVerbosityFlags(app)
	app.Before = func(c *cli.Context) error {
		logging.ConfigureForCli()
		logging.SetLoggingLevel(c)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("finished with an error")
	}
}

// loadConfig layers the optional config file and MODES_* environment
// variables under the CLI flags. Flags win; file and env fill gaps.
func loadConfig(c *cli.Context) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("modes")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("clickhouse.host", "localhost")
	v.SetDefault("clickhouse.port", 9000)
	v.SetDefault("clickhouse.database", "modes")
	v.SetDefault("clickhouse.user", "default")
	v.SetDefault("clickhouse.password", "")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.database", "modes_state")
	v.SetDefault("postgres.user", "modes")
	v.SetDefault("postgres.password", "modes")

	if cfgFile := c.String(flagConfig); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("modesdecode")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/modesdecode")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}
	return v, nil
}
