package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sweeney/ir-remote/internal/action"
	"github.com/sweeney/ir-remote/internal/config"
	"github.com/sweeney/ir-remote/internal/nec"
)

func profileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{Name: "tick", Value: nec.DefaultProfile.Tick, Usage: "Elapsed-time counter period"},
		&cli.DurationFlag{Name: "bit-threshold", Value: nec.DefaultProfile.BitOne, Usage: "Shortest gap read as logic 1"},
		&cli.DurationFlag{Name: "frame-start", Value: nec.DefaultProfile.FrameStart, Usage: "Shortest gap read as a frame start marker"},
	}
}

func profileFromFlags(c *cli.Context) (nec.Profile, error) {
	p := nec.Profile{
		Tick:       c.Duration("tick"),
		BitOne:     c.Duration("bit-threshold"),
		FrameStart: c.Duration("frame-start"),
	}
	return p, p.Validate()
}

// tableFromFlags returns the table from --config, or the default table.
func tableFromFlags(c *cli.Context) (action.Table, error) {
	path := c.String("config")
	if path == "" {
		return action.DefaultTable(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg.Table()
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode a sequence of elapsed-tick gaps into NEC frames",
		ArgsUsage: "<ticks...>",
		Flags: append(profileFlags(),
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file for the command table"},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("decode: at least one tick count is required", 2)
			}
			profile, err := profileFromFlags(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			table, err := tableFromFlags(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			gaps := make([]uint32, 0, c.NArg())
			for _, arg := range c.Args().Slice() {
				for _, field := range strings.Fields(arg) {
					v, err := strconv.ParseUint(field, 10, 32)
					if err != nil {
						return cli.Exit(fmt.Sprintf("decode: bad tick count %q", field), 2)
					}
					gaps = append(gaps, uint32(v))
				}
			}

			frames := 0
			dec := nec.NewDecoder(profile, nil, nec.DispatcherFunc(func(cmd nec.Command) {
				frames++
				a, ok := table.Lookup(cmd)
				name := "NONE"
				if ok {
					name = string(a)
				}
				fmt.Fprintf(c.App.Writer, "%s %s conforms=%t\n", cmd, name, cmd.Conforms())
			}))
			for _, g := range gaps {
				dec.Edge(g)
			}

			if frames == 0 {
				fmt.Fprintf(c.App.Writer, "no complete frame (phase %s, pulse %d)\n", dec.Phase(), dec.PulseIndex())
			}
			return nil
		},
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Print the elapsed-tick gaps a decoder observes for a command",
		ArgsUsage: "<command>",
		Flags:     profileFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("encode: exactly one 8-digit hex command is required", 2)
			}
			profile, err := profileFromFlags(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			cmd, err := nec.ParseCommand(c.Args().First())
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			gaps := nec.Encode(cmd, profile)
			fields := make([]string, len(gaps))
			for i, g := range gaps {
				fields[i] = strconv.FormatUint(uint64(g), 10)
			}
			fmt.Fprintln(c.App.Writer, strings.Join(fields, " "))
			return nil
		},
	}
}

func tableCommand() *cli.Command {
	return &cli.Command{
		Name:  "table",
		Usage: "Print the command table",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file for the command table"},
		},
		Action: func(c *cli.Context) error {
			table, err := tableFromFlags(c)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			for _, k := range table.Keys() {
				a := table[k]
				fmt.Fprintf(c.App.Writer, "%s %-5s pattern=%08b\n", k, a, a.Pattern())
			}
			return nil
		},
	}
}
