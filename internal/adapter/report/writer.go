// Package report writes the per-point spreadsheets, the rollup of earliest
// breakup dates, and the per-group review tables.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/couchcryptid/breakup-etl/internal/domain"
)

var pointHeader = []string{"day", "average", "roadway_status", "message", "note"}

var reviewHeader = table.Row{"Day", "Average", "Status", "Message"}

// Writer is a file sink rooted at one output directory.
type Writer struct {
	dir        string
	rollupPath string
	logger     *slog.Logger
}

// NewWriter creates a Writer. A relative rollupFile is placed inside dir.
func NewWriter(dir, rollupFile string, logger *slog.Logger) *Writer {
	if !filepath.IsAbs(rollupFile) {
		rollupFile = filepath.Join(dir, rollupFile)
	}
	return &Writer{dir: dir, rollupPath: rollupFile, logger: logger}
}

// PointFileName is the spreadsheet name for a point created on day.
func PointFileName(p domain.Point, created time.Time) string {
	return fmt.Sprintf("%.3f_%.3f_%s.csv", p.Lat, p.Lon, created.Format(time.DateOnly))
}

// ReviewFileName is the review table name for a group. Only the last path
// element of the id is used so the file stays inside the output directory.
func ReviewFileName(groupID string) string {
	name := filepath.Base(filepath.Clean("/" + groupID))
	if name == string(filepath.Separator) || name == "." {
		name = "_"
	}
	return name + ".txt"
}

// LoadPoint writes the reduced series of one point. The note column of the
// first three rows carries the creation date, the coordinates, and the label.
func (w *Writer) LoadPoint(_ context.Context, out domain.PointOutput) error {
	notes := []string{
		"created " + out.CreatedAt.Format(time.DateOnly),
		"lat_lon " + out.Point.Coordinates(),
		out.Point.Label(),
	}

	rows := [][]string{pointHeader}
	for i, r := range out.Result.Reduced() {
		note := ""
		if i < len(notes) {
			note = notes[i]
		}
		rows = append(rows, []string{
			r.Date.Format(time.DateOnly),
			formatTemp(r.Average),
			string(r.Status),
			r.Message,
			note,
		})
	}

	path := filepath.Join(w.dir, PointFileName(out.Point, out.CreatedAt))
	if err := writeCSV(path, rows); err != nil {
		return err
	}
	w.logger.Debug("point spreadsheet written", "path", path, "days", len(rows)-1)
	return nil
}

// LoadRollup writes the earliest breakup row of every broken-up group and a
// review table for every group.
func (w *Writer) LoadRollup(_ context.Context, runID string, entries []domain.RollupEntry) error {
	rows := [][]string{rollupHeader(entries)}
	for _, e := range entries {
		if !e.BrokenUp {
			continue
		}
		rows = append(rows, []string{
			e.GroupID,
			e.Breakup.Date.Format(time.DateOnly),
			strconv.FormatFloat(e.Breakup.Average, 'f', 2, 64),
			e.Point.Code,
			e.Point.Measure,
			strconv.FormatFloat(e.Point.Lat, 'f', -1, 64),
			strconv.FormatFloat(e.Point.Lon, 'f', -1, 64),
		})
	}
	if err := writeCSV(w.rollupPath, rows); err != nil {
		return err
	}

	for _, e := range entries {
		path := filepath.Join(w.dir, ReviewFileName(e.GroupID))
		if err := os.WriteFile(path, []byte(RenderReview(e)+"\n"), 0o644); err != nil {
			return fmt.Errorf("write review table %s: %w", path, err)
		}
	}

	w.logger.Info("rollup written",
		"run_id", runID,
		"path", w.rollupPath,
		"groups", len(entries),
		"broken_up", len(rows)-1,
	)
	return nil
}

// RenderReview formats the review days of one group as a text table.
func RenderReview(e domain.RollupEntry) string {
	tw := table.NewWriter()
	title := fmt.Sprintf("%s  id %s: not broken up, last %d days", e.Point.Label(), e.GroupID, len(e.Review))
	if e.BrokenUp {
		title = fmt.Sprintf("%s  id %s: breakup %s", e.Point.Label(), e.GroupID, e.Breakup.Date.Format(time.DateOnly))
	}
	tw.SetTitle(title)
	tw.AppendHeader(reviewHeader)
	for _, r := range e.Review {
		tw.AppendRow(table.Row{r.Date.Format(time.DateOnly), formatTemp(r.Average), string(r.Status), r.Message})
	}
	tw.SetStyle(table.StyleLight)
	return tw.Render()
}

func rollupHeader(entries []domain.RollupEntry) []string {
	if len(entries) > 0 && entries[0].Point.Mode == domain.ModeSegment {
		return []string{"id", "day", "average", "SegCode", "Measure", "lat", "lon"}
	}
	return []string{"id", "day", "average", "ROUTE", "MILEPOINTER", "LAT", "LON"}
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
