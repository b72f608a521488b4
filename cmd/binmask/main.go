// Command binmask builds a binary mask from the reference gradient maps,
// optionally intersected with the task maps, and saves it to the resource
// mask directory.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/KyungWonPark/StateSpace/internal/cli"
	"github.com/KyungWonPark/StateSpace/internal/errs"
	"github.com/KyungWonPark/StateSpace/internal/statespace"
	log "github.com/sirupsen/logrus"
)

func main() {
	fs := flag.NewFlagSet("binmask", flag.ExitOnError)
	flags := cli.Register(fs, "")
	method := fs.String("from", statespace.GradOnly, "Mask source: grad_only or all_maps")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] [task maps or globs, for -from all_maps]\n", os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	runner, opts, err := flags.Runner(fs)
	if err != nil {
		log.Fatalf("Failed to set up: %v", err)
	}

	paths, err := cli.Inputs(fs.Args())
	if err != nil {
		log.Fatalf("Failed to expand inputs: %v", err)
	}

	written, err := runner.BinMask(*method, opts, paths)
	var ce *errs.ConsistencyError
	switch {
	case errors.As(err, &ce):
		fmt.Printf("Wrote %s\n", written)
		log.Fatalf("Reference maps do not share one mask: %v", err)
	case err != nil:
		log.Fatalf("Failed to build mask: %v", err)
	}
	fmt.Printf("Wrote %s\n", written)
}
