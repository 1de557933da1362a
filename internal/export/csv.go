// Package export writes ranking results to CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/researchatlas/atlas/internal/ranking"
)

// FetchDateLayout is the timestamp format of the fetch_date column.
const FetchDateLayout = "2006-01-02 15:04:05"

// SubfieldTopicsFileName returns the per-subfield topic file name.
func SubfieldTopicsFileName(subfieldID string) string {
	return "topics_subfield_" + subfieldID + ".csv"
}

// CombinedFileName returns the name of the file holding every topic of every subfield.
func CombinedFileName(country string) string {
	return "subfield_topics_" + strings.ToLower(country) + ".csv"
}

// SubfieldsFileName returns the name of the subfield ranking file.
func SubfieldsFileName(country string) string {
	return "subfields_" + strings.ToLower(country) + ".csv"
}

// WorksCountColumn returns the country-specific works count column name, e.g. us_works_count.
func WorksCountColumn(country string) string {
	return strings.ToLower(country) + "_works_count"
}

// CSVWriter writes topic rankings into a directory.
type CSVWriter struct {
	dir     string
	country string
}

// NewCSVWriter creates a writer for dir. The country code names the works count column and combined files.
func NewCSVWriter(dir, country string) *CSVWriter {
	return &CSVWriter{dir: dir, country: country}
}

// WriteSummary describes the files produced by one Write.
type WriteSummary struct {
	Dir          string   `json:"dir"`
	Files        []string `json:"files"`
	FetchDate    string   `json:"fetch_date"`
	Subfields    int      `json:"subfields"`
	TopicRows    int      `json:"topic_rows"`
	SkippedEmpty []string `json:"skipped_empty,omitempty"`
}

// AverageTopics returns the mean number of topics per written subfield.
func (s *WriteSummary) AverageTopics() float64 {
	if s.Subfields == 0 {
		return 0
	}
	return float64(s.TopicRows) / float64(s.Subfields)
}

// Write persists the successful part of a ranking:
//   - topics_subfield_<id>.csv for every subfield that has topics
//   - subfield_topics_<cc>.csv with every topic and its subfield_id
//   - subfields_<cc>.csv with the subfield ranking
//
// Files are written in that order and existing files are overwritten. On error the files
// already written stay in place and the error names the file that failed.
func (w *CSVWriter) Write(r *ranking.TopicRanking, fetchedAt time.Time) (*WriteSummary, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	fetchDate := fetchedAt.Format(FetchDateLayout)
	countCol := WorksCountColumn(w.country)
	summary := &WriteSummary{Dir: w.dir, FetchDate: fetchDate}

	successful := r.Successful()
	for _, st := range successful {
		summary.Subfields++
		if len(st.Topics) == 0 {
			summary.SkippedEmpty = append(summary.SkippedEmpty, st.Subfield.ID)
			continue
		}

		rows := make([][]string, len(st.Topics))
		for i, t := range st.Topics {
			rows[i] = []string{t.ID, t.Name, t.Field, t.Subfield, strconv.Itoa(t.WorksCount), fetchDate}
		}
		name := SubfieldTopicsFileName(st.Subfield.ID)
		header := []string{"id", "name", "field", "subfield", countCol, "fetch_date"}
		if err := w.writeFile(name, header, rows); err != nil {
			return summary, fmt.Errorf("writing topics for subfield %s: %w", st.Subfield.ID, err)
		}
		summary.Files = append(summary.Files, name)
		summary.TopicRows += len(rows)
	}

	combined := r.Combined()
	if len(combined) > 0 {
		rows := make([][]string, len(combined))
		for i, t := range combined {
			rows[i] = []string{t.ID, t.Name, t.Field, t.Subfield, strconv.Itoa(t.WorksCount), t.SubfieldID, fetchDate}
		}
		name := CombinedFileName(w.country)
		header := []string{"id", "name", "field", "subfield", countCol, "subfield_id", "fetch_date"}
		if err := w.writeFile(name, header, rows); err != nil {
			return summary, fmt.Errorf("writing combined topics: %w", err)
		}
		summary.Files = append(summary.Files, name)
	}

	if len(successful) > 0 {
		rows := make([][]string, len(successful))
		for i, st := range successful {
			rows[i] = []string{st.Subfield.ID, st.Subfield.Name, strconv.Itoa(st.Subfield.WorksCount), fetchDate}
		}
		name := SubfieldsFileName(w.country)
		if err := w.writeFile(name, []string{"id", "name", countCol, "fetch_date"}, rows); err != nil {
			return summary, fmt.Errorf("writing subfield ranking: %w", err)
		}
		summary.Files = append(summary.Files, name)
	}

	return summary, nil
}

func (w *CSVWriter) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	// Write next to the target and rename, so readers never see a partial file.
	f, err := os.CreateTemp(w.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	tmp := f.Name()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
