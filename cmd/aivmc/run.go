package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/aivm-run/aivm/hostsys"
	"github.com/aivm-run/aivm/program"
	"github.com/aivm-run/aivm/vm"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "load and execute an AiBC1 program to completion",
	ArgsUsage: "<file.aibc>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("usage: aivmc run <file.aibc>")
		}

		prog, err := loadProgram(path)
		if err != nil {
			return err
		}

		machine := vm.New(prog, vm.DefaultLimits(), nil)
		env := hostsys.NewEnv(machine.ResolveString, machine.InternString, machine.Heap)
		machine.Bindings = env.Bindings()

		machine.Run()

		switch machine.Status() {
		case vm.StatusHalted:
			if top, ok := machine.StackTop(); ok {
				fmt.Println(top.GoString())
			}
			return nil
		case vm.StatusError:
			e := machine.Err()
			fmt.Fprintln(os.Stderr, e.Error())
			os.Exit(1)
		}
		return nil
	},
}

func loadProgram(path string) (*program.Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	prog := &program.Program{}
	res := program.LoadAiBC1(raw, prog, program.DefaultLimits())
	if res.Status != program.StatusOK {
		return nil, fmt.Errorf("decoding %s: %s at offset %d", path, res.Status, res.ErrorOffset)
	}
	return prog, nil
}
