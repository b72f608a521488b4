// Command grouptimecourse averages subject time courses into a group time
// course and scores every timepoint against the reference gradient maps.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/KyungWonPark/StateSpace/internal/cli"
	"github.com/KyungWonPark/StateSpace/internal/volume"
	log "github.com/sirupsen/logrus"
)

func main() {
	fs := flag.NewFlagSet("grouptimecourse", flag.ExitOnError)
	flags := cli.Register(fs, "gradientmask_all")
	saveAverage := fs.String("save-average", "", "Also write the group average time course to this NIfTI file")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] subject time courses or globs...\n", os.Args[0])
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	runner, opts, err := flags.Runner(fs)
	if err != nil {
		log.Fatalf("Failed to set up: %v", err)
	}

	paths, err := cli.Inputs(fs.Args())
	if err != nil {
		log.Fatalf("Failed to expand inputs: %v", err)
	}

	fmt.Printf("Averaging %d subject time courses...\n", len(paths))
	res, err := runner.CorrGroupTimeCourse(opts, paths)
	if err != nil {
		log.Fatalf("Failed to score the group time course: %v", err)
	}
	cli.Report(res)

	if *saveAverage != "" && res.Average != nil {
		written, err := volume.Save(res.Average, *saveAverage)
		if err != nil {
			log.Fatalf("Failed to save the group average: %v", err)
		}
		fmt.Printf("Wrote %s\n", written)
	}
}
