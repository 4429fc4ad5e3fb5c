package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

var disasmCommand = &cli.Command{
	Name:      "disasm",
	Usage:     "print an AiBC1 program's instructions mnemonically",
	ArgsUsage: "<file.aibc>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("usage: aivmc disasm <file.aibc>")
		}
		prog, err := loadProgram(path)
		if err != nil {
			return err
		}
		for i, inst := range prog.Instructions {
			fmt.Printf("%4d  %s\n", i, inst)
		}
		return nil
	},
}
