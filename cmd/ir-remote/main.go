// Command ir-remote decodes NEC infrared remote frames from a GPIO line,
// lights one of four direction LEDs per recognized button and publishes the
// action to MQTT.
//
// Usage:
//
//	ir-remote run [options]
//	ir-remote decode <ticks...>
//	ir-remote encode <command>
//	ir-remote table
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		// exitErrHandler already exited for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:           "ir-remote",
		Usage:          "NEC infrared remote decoder for Raspberry Pi GPIO",
		Version:        version,
		Writer:         stdout,
		ErrWriter:      stderr,
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			runCommand(),
			decodeCommand(),
			encodeCommand(),
			tableCommand(),
		},
	}
}

// exitErrHandler prints the error and exits, preserving cli.Exit codes.
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(c.App.ErrWriter, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(c.App.ErrWriter, "Error: %v\n", err)
	os.Exit(1)
}
