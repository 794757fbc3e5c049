package report

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"wyniki/internal/pool"
	"wyniki/pkg/logger"
)

// ErrNoInput is returned when the input directory holds no XML documents
var ErrNoInput = errors.New("no XML files found")

// FileResult describes how one document was converted
type FileResult struct {
	File     string
	Rows     int
	Err      error
	Duration time.Duration
}

// Result summarizes a conversion run
type Result struct {
	InputDir   string
	OutputFile string
	Files      []FileResult
	Rows       int
	// Extracted holds the rows in output order
	Extracted []Row
	// Written is false when no rows were extracted and no file was created
	Written bool
}

// Failed returns the number of documents that could not be parsed
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Converter collates every XML document in a directory into one CSV file
type Converter struct {
	parser  *Parser
	workers int
	logger  logger.Logger
}

// NewConverter creates a converter parsing with the given number of workers
func NewConverter(workers int, log logger.Logger) *Converter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Converter{
		parser:  NewParser(),
		workers: workers,
		logger:  log.WithField("component", "report"),
	}
}

// Convert parses inputDir/*.xml in filename order and writes the rows to
// outputFile. Documents that fail to parse are logged and skipped.
func (c *Converter) Convert(ctx context.Context, inputDir, outputFile string) (*Result, error) {
	result := &Result{InputDir: inputDir, OutputFile: outputFile}

	info, err := os.Stat(inputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return result, fmt.Errorf("directory %s does not exist", inputDir)
		}
		return result, fmt.Errorf("failed to read %s: %w", inputDir, err)
	}
	if !info.IsDir() {
		return result, fmt.Errorf("%s is not a directory", inputDir)
	}

	files, err := filepath.Glob(filepath.Join(inputDir, "*.xml"))
	if err != nil {
		return result, fmt.Errorf("failed to list %s: %w", inputDir, err)
	}
	if len(files) == 0 {
		return result, fmt.Errorf("%w in %s", ErrNoInput, inputDir)
	}
	sort.Strings(files)

	c.logger.InfoWithFields("Converting XML results", map[string]interface{}{
		"files":   len(files),
		"workers": c.workers,
	})

	parsed := pool.Map(ctx, c.workers, files, func(_ context.Context, path string) ([]Row, error) {
		return c.parser.ParseFile(path)
	}, c.logger)

	var rows []Row
	for _, p := range parsed {
		fr := FileResult{File: filepath.Base(p.Job.Input), Rows: len(p.Value), Err: p.Err, Duration: p.Duration}
		result.Files = append(result.Files, fr)
		if p.Err != nil {
			c.logger.WithError(p.Err).WarnWithFields("Error processing file", map[string]interface{}{"file": fr.File})
			continue
		}
		c.logger.DebugWithFields("Extracted parameters", map[string]interface{}{"file": fr.File, "rows": fr.Rows})
		rows = append(rows, p.Value...)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Rows = len(rows)
	result.Extracted = rows
	if len(rows) == 0 {
		c.logger.Warn("No data extracted from XML files")
		return result, nil
	}

	if err := writeFile(outputFile, rows); err != nil {
		return result, err
	}
	result.Written = true

	c.logger.InfoWithFields("Report written", map[string]interface{}{
		"file":   outputFile,
		"rows":   len(rows),
		"failed": result.Failed(),
	})
	return result, nil
}

// WriteCSV writes the header and rows with CRLF line endings
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeFile(path string, rows []Row) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := WriteCSV(tmp, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}
