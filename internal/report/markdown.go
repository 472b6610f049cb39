// Package report renders run summaries of grid builds and scans.
package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/signalsfoundry/skygrid/model"
)

// Summary describes one grid build or full scan.
type Summary struct {
	GridType    string
	MetricType  string
	Source      string // sky-region string or grid file
	Points      int    // sky points
	Templates   int    // full-scan points; 0 when only the sky grid was built
	DFreq       float64
	DF1dot      float64
	Steps       model.PulsarSpins
	Bands       model.PulsarSpins
	BuildTime   time.Duration
	GeneratedAt time.Time
}

// WriteMarkdown writes s as a GitHub-flavoured markdown document.
func WriteMarkdown(w io.Writer, s Summary) error {
	md := markdown.NewMarkdown(w)

	md.H1("Sky Grid Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Grid Type", s.GridType},
			{"Metric", s.MetricType},
			{"Source", "`" + s.Source + "`"},
			{"Sky Points", strconv.Itoa(s.Points)},
			{"Build Time", s.BuildTime.String()},
			{"Generated", s.GeneratedAt.UTC().Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	md.H2("Spacings")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Quantity", "Value"},
		Rows: [][]string{
			{"dFreq", formatFloat(s.DFreq)},
			{"df1dot", formatFloat(s.DF1dot)},
		},
	})
	md.PlainText("")

	if s.Templates > 0 {
		writeSpins(md, s)
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by skygrid*")

	return md.Build()
}

func writeSpins(md *markdown.Markdown, s Summary) {
	md.H2("Spin Counters")
	md.PlainText("")
	rows := make([][]string, 0, model.MaxSpins+1)
	for k := 0; k < model.MaxSpins; k++ {
		rows = append(rows, []string{
			spinName(k),
			formatFloat(s.Steps[k]),
			formatFloat(s.Bands[k]),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Order", "Step", "Band"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("**Total templates:** %d", s.Templates)
	md.PlainText("")
}

func spinName(k int) string {
	if k == 0 {
		return "f0"
	}
	return "f" + strconv.Itoa(k) + "dot"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
