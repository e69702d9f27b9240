package main

import (
	"fmt"
	"os"

	"github.com/phuslu/log"

	"github.com/openbandi/grantdocs/internal/cli"
)

func main() {
	log.DefaultLogger = log.Logger{
		Level:  log.InfoLevel,
		Writer: &log.ConsoleWriter{ColorOutput: true},
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
