package main

import (
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/KyungWonPark/StateSpace/internal/io"
	log "github.com/sirupsen/logrus"
)

func main() {
	workers := flag.Int("workers", runtime.NumCPU(), "Rows formatted in parallel")
	reverse := flag.Bool("reverse", false, "Convert a csv matrix back to npy")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("Usage: npy2csv [-workers n] [-reverse] file")
	}
	fileName := flag.Arg(0)

	if *reverse {
		matrix, err := io.CSVtoMat64(fileName)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", fileName, err)
		}
		fmt.Println("Reading csv file complete")

		out := strings.TrimSuffix(fileName, ".csv") + ".npy"
		if err := io.Mat64toNpy(out, matrix); err != nil {
			log.Fatalf("Failed to write %s: %v", out, err)
		}
		fmt.Printf("Wrote %s\n", out)
		return
	}

	matrix, err := io.NpytoMat64(fileName)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", fileName, err)
	}
	fmt.Println("Reading npy file complete")

	if err := io.Mat64toCSV(fileName+".csv", matrix, *workers); err != nil {
		log.Fatalf("Failed to write %s.csv: %v", fileName, err)
	}
	fmt.Printf("Wrote %s.csv\n", fileName)
}
