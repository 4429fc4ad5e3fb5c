package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/aivm-run/aivm/version"
)

func main() {
	app := &cli.Command{
		Name:  "aivmc",
		Usage: "AiVM bytecode runner, step debugger, and disassembler",
		Commands: []*cli.Command{
			runCommand,
			replCommand,
			disasmCommand,
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "version",
				Usage: "print aivmc's version and exit",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("version") {
				fmt.Println(version.Version())
				return nil
			}
			return cli.ShowAppHelp(cmd)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "aivmc: %v\n", err)
		os.Exit(1)
	}
}
