package encodingstats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"movcompress/internal/services"
)

// Report compares a finished encode with its source.
type Report struct {
	InputPath   string
	OutputPath  string
	InputBytes  int64
	OutputBytes int64
	Elapsed     time.Duration
}

// ReductionPercent returns how much smaller out is than in, in percent.
// Negative values mean the output grew. A non-positive input size yields 0.
func ReductionPercent(in, out int64) float64 {
	if in <= 0 {
		return 0
	}
	return 100 * (1 - float64(out)/float64(in))
}

// ReductionPercent returns the size reduction of the report.
func (r Report) ReductionPercent() float64 {
	return ReductionPercent(r.InputBytes, r.OutputBytes)
}

// Collect stats both files. A missing output is an internal inconsistency
// after a successful encode and is reported with services.ErrStats.
func Collect(inputPath, outputPath string, elapsed time.Duration) (Report, error) {
	report := Report{InputPath: inputPath, OutputPath: outputPath, Elapsed: elapsed}

	in, err := os.Stat(inputPath)
	if err != nil {
		return Report{}, services.Wrap(services.ErrStats, "reporting stats", "stat input", "", err)
	}
	out, err := os.Stat(outputPath)
	if err != nil {
		msg := ""
		if errors.Is(err, os.ErrNotExist) {
			msg = "encoder reported success but the output file is missing"
		}
		return Report{}, services.Wrap(services.ErrStats, "reporting stats", "stat output", msg, err)
	}
	if out.IsDir() {
		return Report{}, services.Wrap(services.ErrStats, "reporting stats", "stat output", outputPath+" is a directory", nil)
	}
	report.InputBytes = in.Size()
	report.OutputBytes = out.Size()
	return report, nil
}

// Render writes the report as a table.
func Render(w io.Writer, r Report) error {
	printer := message.NewPrinter(language.English)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Compression complete")
	tw.AppendRows([]table.Row{
		{"Input size", humanSize(r.InputBytes), printer.Sprintf("%d bytes", r.InputBytes)},
		{"Output size", humanSize(r.OutputBytes), printer.Sprintf("%d bytes", r.OutputBytes)},
		{"Size reduction", formatReduction(r.ReductionPercent()), ""},
		{"Time taken", r.Elapsed.Round(100 * time.Millisecond).String(), ""},
		{"Output", r.OutputPath, ""},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

func humanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func formatReduction(pct float64) string {
	if pct < 0 {
		return fmt.Sprintf("%.1f%% (output is larger)", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}
