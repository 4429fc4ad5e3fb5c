package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/urfave/cli/v3"

	"github.com/aivm-run/aivm/hostsys"
	"github.com/aivm-run/aivm/vm"
)

var replCommand = &cli.Command{
	Name:      "repl",
	Usage:     "step an AiBC1 program one instruction at a time",
	ArgsUsage: "<file.aibc>",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("usage: aivmc repl <file.aibc>")
		}
		prog, err := loadProgram(path)
		if err != nil {
			return err
		}

		machine := vm.New(prog, vm.DefaultLimits(), nil)
		env := hostsys.NewEnv(machine.ResolveString, machine.InternString, machine.Heap)
		machine.Bindings = env.Bindings()

		rl, err := readline.New("aivmc> ")
		if err != nil {
			return fmt.Errorf("starting repl: %w", err)
		}
		defer rl.Close()

		fmt.Println("aivmc step debugger: step, run, stack, status, quit")
		for {
			line, err := rl.Readline()
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}

			switch strings.TrimSpace(line) {
			case "step", "s", "":
				machine.Step()
				printState(machine)
			case "run", "r":
				machine.Run()
				printState(machine)
			case "stack":
				printStack(machine)
			case "status":
				fmt.Println(machine.Status())
			case "quit", "q", "exit":
				return nil
			default:
				fmt.Println("unknown command")
			}
		}
	},
}

func printState(m *vm.VirtualMachine) {
	fmt.Printf("ip=%d status=%s stack_depth=%d\n", m.IP(), m.Status(), m.StackDepth())
	if m.Status() == vm.StatusError {
		fmt.Println(m.Err().Error())
	}
}

func printStack(m *vm.VirtualMachine) {
	fmt.Println("depth:", m.StackDepth())
	if top, ok := m.StackTop(); ok {
		fmt.Println("top:", top.GoString())
	}
}
