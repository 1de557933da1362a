// Package importer loads tabular result files as documents for indexing.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/researchatlas/atlas/internal/document"
)

// ErrDataDirNotFound is returned when the CSV directory does not exist.
var ErrDataDirNotFound = errors.New("data directory not found")

// LoadCSVDir loads every *.csv file in dir, in lexical file order.
// Empty and header-only files contribute no documents.
func LoadCSVDir(dir string) ([]document.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDataDirNotFound, dir)
		}
		return nil, fmt.Errorf("reading data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("listing CSV files: %w", err)
	}
	sort.Strings(paths)

	var docs []document.Document
	for _, path := range paths {
		fileDocs, err := LoadCSVFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// LoadCSVFile loads one CSV file, one document per data row.
func LoadCSVFile(path string) ([]document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	docs, err := ParseCSV(f, path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return docs, nil
}

// ParseCSV turns CSV rows into documents whose content is one "header: value" line per column.
// Metadata holds the source name and the 0-based row number. Short rows get empty values;
// cells beyond the header are dropped.
func ParseCSV(r io.Reader, source string) ([]document.Document, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	base := filepath.Base(source)
	var docs []document.Document
	for row := 0; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", row, err)
		}

		docs = append(docs, document.Document{
			ID:      base + "#" + strconv.Itoa(row),
			Content: rowContent(header, record),
			Metadata: map[string]string{
				document.MetaSource: source,
				document.MetaRow:    strconv.Itoa(row),
			},
		})
	}
	return docs, nil
}

func rowContent(header, record []string) string {
	lines := make([]string, len(header))
	for i, name := range header {
		value := ""
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		lines[i] = name + ": " + value
	}
	return strings.Join(lines, "\n")
}
