package main

import (
	"fmt"
	"os"

	"github.com/kritixilithos/roda/pkg/interpreter"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, interpreter.DescribeError(err))
		os.Exit(1)
	}
}
