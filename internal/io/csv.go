// Package io writes and reads the score tables and matrices produced by the
// StateSpace tools.
package io

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/KyungWonPark/StateSpace/internal/score"
	"github.com/gocarina/gocsv"
	"github.com/gonum/matrix/mat64"
)

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// WriteWide saves a wide score table: the index level columns followed by one
// column per reference map.
func WriteWide(path string, w *score.Wide, delimiter rune) error {
	f, err := create(path)
	if err != nil {
		return fmt.Errorf("[Error] WriteWide: Failed to open: %s: %v", path, err)
	}
	defer f.Close()

	csvWriter := csv.NewWriter(f)
	csvWriter.Comma = delimiter

	if err := csvWriter.Write(w.Header()); err != nil {
		return fmt.Errorf("[Error] WriteWide: %v", err)
	}
	if err := csvWriter.WriteAll(w.Records()); err != nil {
		return fmt.Errorf("[Error] WriteWide: %v", err)
	}

	return f.Close()
}

// WriteLong saves long-form score rows.
func WriteLong(path string, rows []score.LongRow, delimiter rune) error {
	f, err := create(path)
	if err != nil {
		return fmt.Errorf("[Error] WriteLong: Failed to open: %s: %v", path, err)
	}
	defer f.Close()

	csvWriter := csv.NewWriter(f)
	csvWriter.Comma = delimiter

	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("[Error] WriteLong: %v", err)
	}

	return f.Close()
}

// ReadLong loads rows written by WriteLong.
func ReadLong(path string, delimiter rune) ([]score.LongRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[Error] ReadLong: Failed to open: %s: %v", path, err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.Comma = delimiter

	var rows []score.LongRow
	if err := gocsv.UnmarshalCSV(csvReader, &rows); err != nil {
		return nil, fmt.Errorf("[Error] ReadLong: %v", err)
	}

	return rows, nil
}

// LongToWide reads a long table and writes it back pivoted to wide form. The
// index levels are the identity columns that hold a value in any row.
func LongToWide(in, out string, delimiter rune) (*score.Wide, error) {
	rows, err := ReadLong(in, delimiter)
	if err != nil {
		return nil, err
	}
	w, err := score.Pivot(rows, score.UsedLevels(rows))
	if err != nil {
		return nil, fmt.Errorf("[Error] LongToWide: %s: %w", in, err)
	}
	if err := WriteWide(out, w, delimiter); err != nil {
		return nil, err
	}
	return w, nil
}

// Mat64toCSV saves Mat64 as a csv file
func Mat64toCSV(path string, matrix *mat64.Dense, workers int) error {
	f, err := create(path)
	if err != nil {
		return fmt.Errorf("[Error] Mat64toCSV: Failed to open: %s: %v", path, err)
	}
	defer f.Close()

	if workers < 1 {
		workers = 1
	}

	rows, _ := matrix.Dims()
	parsed := make([]string, workers)

	for row := 0; row < rows; row += workers {
		var wg sync.WaitGroup
		jobMark := workers

		if row+workers >= rows {
			jobMark = rows - row
		}

		wg.Add(jobMark)
		for offset := 0; offset < jobMark; offset++ {
			go parseLine(matrix, parsed, offset, row, &wg)
		}
		wg.Wait()

		for i := 0; i < jobMark; i++ {
			if _, err := fmt.Fprintf(f, "%s\n", parsed[i]); err != nil {
				return fmt.Errorf("[Error] Mat64toCSV: %v", err)
			}
		}
	}

	return f.Close()
}

func parseLine(matrix *mat64.Dense, parsed []string, offset int, row int, wg *sync.WaitGroup) {
	defer wg.Done()

	_, cols := matrix.Dims()

	fields := make([]string, cols)
	for i := 0; i < cols; i++ {
		fields[i] = strconv.FormatFloat(matrix.At(row+offset, i), 'g', -1, 64)
	}
	parsed[offset] = strings.Join(fields, ", ")
}

// CSVtoMat64 reads a file written by Mat64toCSV.
func CSVtoMat64(path string) (*mat64.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[Error] CSVtoMat64: Failed to open file: %v", err)
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.TrimLeadingSpace = true
	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("[Error] CSVtoMat64: Failed to parse CSV file: %v", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("[Error] CSVtoMat64: %s is empty", path)
	}

	matrix := mat64.NewDense(len(records), len(records[0]), nil)
	for r, rec := range records {
		for c, field := range rec {
			value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("[Error] CSVtoMat64: Failed to parse: %v", err)
			}
			matrix.Set(r, c, value)
		}
	}

	return matrix, nil
}
