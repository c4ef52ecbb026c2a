package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/jetwatch/modes/lib/report"
	"github.com/jetwatch/modes/lib/tracker/mode_s"
)

// runDecode is the offline one-shot: each argument is a hex frame (a
// single "-" reads frames line by line from stdin), decoded statelessly
// and printed as a table.
func runDecode(c *cli.Context) error {
	inputs := c.Args().Slice()
	if len(inputs) == 0 {
		return fmt.Errorf("no frames given; pass hex frames as arguments or - for stdin")
	}
	if len(inputs) == 1 && inputs[0] == "-" {
		inputs = inputs[:0]
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := scanner.Text(); line != "" {
				inputs = append(inputs, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ICAO", "DF", "Type", "Callsign", "Squawk", "Alt ft", "Speed kt", "Heading", "Error"})
	table.SetBorder(false)

	for _, in := range inputs {
		row := decodeRow(in)
		table.Append(row)
	}
	table.Render()
	return nil
}

func decodeRow(hexFrame string) []string {
	f, err := mode_s.ParseHex(hexFrame, false)
	if err != nil {
		return []string{"", "", "", "", "", "", "", "", err.Error()}
	}
	v, err := mode_s.Decode(f, mode_s.VersionHint{})
	if err != nil {
		icao := f.ICAO24()
		return []string{report.IcaoString(icao), fmt.Sprintf("%d", f.DownlinkFormat()), "", "", "", "", "", "", err.Error()}
	}

	r := report.FromVariant(v, f, "", 0, 0, nil)
	return []string{
		r.Icao,
		fmt.Sprintf("%d", f.DownlinkFormat()),
		r.Type,
		strOrEmpty(r.Callsign),
		squawkOrEmpty(r.Squawk),
		i32OrEmpty(r.AltFeet),
		f64OrEmpty(r.SpeedKts),
		f64OrEmpty(r.Heading),
		"",
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func squawkOrEmpty(s *uint16) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%04d", *s)
}

func i32OrEmpty(v *int32) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}

func f64OrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *v)
}
