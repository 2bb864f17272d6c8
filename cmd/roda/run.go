package main

import (
	"github.com/spf13/cobra"

	"github.com/kritixilithos/roda/pkg/driver"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <program.yaml|program.json> [args...]",
		Short: "Load a program and call its main function",
		Long: `Loads a serialized program, runs its pre blocks, binds its functions and
records, runs its post blocks and finally calls main with the remaining
arguments as strings. Standard input and output are the program's streams.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := driver.LoadProgram(args[0])
			if err != nil {
				return err
			}
			interp, err := opts.newInterpreter(cmd)
			if err != nil {
				return err
			}
			defer interp.Shutdown()
			return interp.Interpret(prog, args[1:])
		},
	}
}

func newExecCmd(opts *rootOptions) *cobra.Command {
	var preload string
	cmd := &cobra.Command{
		Use:   "exec <statement.yaml|statement.json>",
		Short: "Evaluate a single statement in the global scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmt, err := driver.LoadStatement(args[0])
			if err != nil {
				return err
			}
			interp, err := opts.newInterpreter(cmd)
			if err != nil {
				return err
			}
			defer interp.Shutdown()
			if preload != "" {
				prog, err := driver.LoadProgram(preload)
				if err != nil {
					return err
				}
				if err := interp.Load(prog, nil); err != nil {
					return err
				}
			}
			return interp.ExecStatement(stmt)
		},
	}
	cmd.Flags().StringVar(&preload, "load", "", "program whose functions and records are loaded first")
	return cmd
}
