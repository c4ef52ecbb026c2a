// examplefinder trawls receiver feeds or capture files for frames
// matching a shape under investigation (a specific aircraft, downlink
// format or type code) and prints them in AVR form, ready to paste into
// a test fixture.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/jetwatch/modes/lib/example_finder"
	"github.com/jetwatch/modes/lib/logging"
	"github.com/jetwatch/modes/lib/setup"
	"github.com/jetwatch/modes/lib/source"
)

const (
	flagIcao     = "icao"
	flagDF       = "df"
	flagTypeCode = "type-code"
	flagLocating = "locations"
)

func main() {
	app := &cli.App{
		Name:  "examplefinder",
		Usage: "Find example frames matching a given shape in a feed or capture",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  flagIcao,
				Usage: "Only output frames from this hex transponder address (repeatable)",
			},
			&cli.IntSliceFlag{
				Name:  flagDF,
				Usage: "Only output frames with this downlink format (repeatable)",
			},
			&cli.IntSliceFlag{
				Name:  flagTypeCode,
				Usage: "Only output DF17/18 frames with this type code (repeatable)",
			},
			&cli.BoolFlag{
				Name:  flagLocating,
				Usage: "Shortcut: all position-bearing DF17 frames",
			},
		},
		Action: run,
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

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []example_finder.Option
	for _, icao := range c.StringSlice(flagIcao) {
		opts = append(opts, example_finder.WithPlaneIcaoStr(icao))
	}
	for _, df := range c.IntSlice(flagDF) {
		opts = append(opts, example_finder.WithDownlinkFormatType(byte(df)))
	}
	for _, tc := range c.IntSlice(flagTypeCode) {
		opts = append(opts, example_finder.WithDF17MessageType(byte(tc)))
	}
	if c.Bool(flagLocating) {
		opts = append(opts, example_finder.WithDF17MessageTypeLocation())
	}
	filter := example_finder.NewFilter(opts...)

	producers, err := setup.HandleSourceFlags(c)
	if err != nil {
		return err
	}
	if len(producers) == 0 {
		return fmt.Errorf("no sources configured, use --fetch/--listen/--file")
	}

	for _, p := range producers {
		p := p
		go func() {
			if err := p.Run(ctx); err != nil {
				log.Error().Err(err).Msg("source stopped")
			}
		}()
		go drain(ctx, p, filter)
	}

	<-ctx.Done()
	return nil
}

func drain(ctx context.Context, p *source.Producer, filter *example_finder.Filter) {
	for ev := range p.Listen() {
		if ctx.Err() != nil {
			return
		}
		ev := ev
		if frame := filter.Handle(&ev); frame != nil {
			fmt.Printf("*%s;\n", frame.HexMessage())
		}
	}
}
