// Command checklength verifies that time courses share one grid and number
// of timepoints before they are averaged.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/KyungWonPark/StateSpace/internal/cli"
	"github.com/KyungWonPark/StateSpace/internal/statespace"
	log "github.com/sirupsen/logrus"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s time courses or globs...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	paths, err := cli.Inputs(flag.Args())
	if err != nil {
		log.Fatalf("Failed to expand inputs: %v", err)
	}

	n, err := statespace.CheckLength(paths)
	if err != nil {
		log.Fatalf("Time courses differ: %v", err)
	}
	fmt.Printf("%d time courses, %d timepoints each\n", len(paths), n)
}
