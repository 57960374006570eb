package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/aevon-lab/tokenledger/internal/core/stats"
	"github.com/aevon-lab/tokenledger/internal/projection"
	"github.com/aevon-lab/tokenledger/internal/retention"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// usdDisplayPlaces is the rounding applied when printing money. Stored and
// computed amounts keep full precision.
const usdDisplayPlaces = 2

const timestampLayout = "2006-01-02 15:04"

// Reporter renders query and compaction results to w in one of the
// supported formats.
type Reporter struct {
	format string
	w      io.Writer
}

// New returns a reporter writing format to w. Unknown formats render as a
// table.
func New(format string, w io.Writer) *Reporter {
	return &Reporter{format: format, w: w}
}

func (r *Reporter) printLine(a ...interface{}) {
	_, _ = fmt.Fprintln(r.w, a...)
}

// PrintStats renders a query result.
func (r *Reporter) PrintStats(res *projection.Result) {
	if r.format == FormatJSON {
		r.printJSON(res)
		return
	}

	r.printSummary(res.Summary)
	if len(res.Summary.Cost.ModelBreakdown) > 0 {
		r.printModels(res.Summary.Cost.ModelBreakdown)
	}
	if len(res.Details) > 0 {
		r.printDetails(res.Details)
	}
}

// PrintCompaction renders the outcome of one compaction pass.
func (r *Reporter) PrintCompaction(rep retention.Report) {
	if r.format == FormatJSON {
		r.printJSON(rep)
		return
	}

	t := r.newTable("COMPACTION")
	t.AppendHeader(table.Row{"Step", "Count"})
	t.AppendRows([]table.Row{
		{"Kept in recent", humanize.Comma(int64(rep.KeptRecent))},
		{"Events to daily", humanize.Comma(int64(rep.EventsToDaily))},
		{"Events to monthly", humanize.Comma(int64(rep.EventsToMonth))},
		{"Days rolled into months", humanize.Comma(int64(rep.DaysRolledUp))},
		{"Months pruned", humanize.Comma(int64(rep.MonthsPruned))},
		{"Events pruned", humanize.Comma(rep.EventsPruned)},
		{"Unreadable timestamps", humanize.Comma(int64(rep.BadTimestamps))},
	})
	t.AppendFooter(table.Row{"Compacted at", rep.CompactedAt.Format(timestampLayout)})
	r.render(t)
}

// PrintEvent renders one recorded event.
func (r *Reporter) PrintEvent(e *stats.Event) {
	if r.format == FormatJSON {
		r.printJSON(e)
		return
	}

	t := r.newTable("RECORDED")
	t.AppendRows([]table.Row{
		{"Path", e.Path},
		{"Original", tokens(e.OriginalSize, e.Estimated)},
		{"Compressed", humanize.Comma(e.CompressedSize)},
		{"Saved", fmt.Sprintf("%s (%.1f%%)", humanize.Comma(e.SavedAmount), e.SavingsPercent)},
		{"Model", modelOrDash(e.Model)},
		{"Cost saved", eventCost(e)},
	})
	r.render(t)
}

func (r *Reporter) printSummary(s projection.Summary) {
	t := r.newTable("TOKEN SAVINGS: " + s.PeriodLabel)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Compressions", humanize.Comma(s.TotalCompressions)},
		{"Original tokens", humanize.Comma(s.TotalOriginalSize)},
		{"Compressed tokens", humanize.Comma(s.TotalCompressedSize)},
		{"Tokens saved", humanize.Comma(s.TotalSaved)},
		{"Average ratio", fmt.Sprintf("%.3f", s.AverageRatio)},
		{"Average savings", fmt.Sprintf("%.1f%%", s.AverageSavingsPercent)},
		{"Cost saved", USD(s.Cost.TotalCostSavingsUSD)},
		{"Avg cost per compression", USD(s.Cost.AverageCostPerCompression)},
		{"Records with cost", humanize.Comma(s.Cost.RecordsWithCost)},
		{"Records without cost", humanize.Comma(s.Cost.RecordsWithoutCost)},
	})
	r.render(t)
}

func (r *Reporter) printModels(models []projection.ModelCost) {
	t := r.newTable("BY MODEL")
	t.AppendHeader(table.Row{"Model", "Compressions", "Tokens Saved", "Cost Saved"})
	for _, m := range models {
		t.AppendRow(table.Row{
			m.ModelName,
			humanize.Comma(m.Compressions),
			humanize.Comma(m.TokensSaved),
			USD(m.CostSavingsUSD),
		})
	}
	r.render(t)
}

func (r *Reporter) printDetails(events []stats.Event) {
	t := r.newTable("RECENT COMPRESSIONS")
	t.AppendHeader(table.Row{"When", "Path", "Level", "Original", "Compressed", "Saved", "Cost"})
	for i := range events {
		e := &events[i]
		t.AppendRow(table.Row{
			e.Timestamp.Local().Format(timestampLayout),
			e.Path,
			e.Level,
			tokens(e.OriginalSize, e.Estimated),
			humanize.Comma(e.CompressedSize),
			humanize.Comma(e.SavedAmount),
			eventCost(e),
		})
	}
	r.render(t)
}

func (r *Reporter) newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)

	t.Style().Title.Align = text.AlignCenter
	t.Style().Format.Header = text.FormatDefault

	return t
}

func (r *Reporter) render(t table.Writer) {
	if r.format == FormatMarkdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}
	r.printLine()
}

func (r *Reporter) printJSON(v interface{}) {
	encoder := json.NewEncoder(r.w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		slog.Error("[Report] encoding json output", "error", err)
	}
}

// USD formats an amount for display, e.g. "$1.23".
func USD(d decimal.Decimal) string {
	return "$" + d.StringFixed(usdDisplayPlaces)
}

func tokens(n int64, estimated bool) string {
	s := humanize.Comma(n)
	if estimated {
		return "~" + s
	}
	return s
}

func eventCost(e *stats.Event) string {
	if !e.HasCost() {
		return "-"
	}
	return USD(*e.CostSavingsUSD)
}

func modelOrDash(model string) string {
	if model == "" {
		return "-"
	}
	return model
}

