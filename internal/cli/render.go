package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/okian/seirsim/internal/domain/model"
	"github.com/okian/seirsim/internal/domain/simulation"
	"github.com/okian/seirsim/internal/domain/types"
)

var summaryHeader = []string{
	"scenario", "policy", "peak_critical", "peak_critical_day",
	"peak_infectious", "peak_infectious_day", "cumulative_infected", "intervention_days", "error",
}

var seriesHeader = []string{
	"scenario", "day", "date", "s", "e", "i", "r",
	"critical_occupancy", "effective_transmission", "seasonal", "intervention", "engaged",
}

// summaryRow flattens an outcome; failed scenarios keep only their error.
func summaryRow(o types.Outcome) []string {
	if o.Summary == nil {
		msg := ""
		if o.Error != nil {
			msg = o.Error.Code + ": " + o.Error.Message
		}
		return []string{o.Name, "", "", "", "", "", "", "", msg}
	}
	s := o.Summary
	pol := ""
	if o.Series != nil {
		pol = string(o.Series.Policy())
	}
	return []string{
		o.Name, pol,
		formatFloat(s.PeakCritical), strconv.Itoa(s.PeakCriticalDay),
		formatFloat(s.PeakInfectious), strconv.Itoa(s.PeakInfectiousDay),
		formatFloat(s.CumulativeInfected), strconv.Itoa(s.InterventionDays), "",
	}
}

// WriteSummary renders one line per outcome in the given format.
func WriteSummary(w io.Writer, format string, outcomes []types.Outcome) error {
	switch format {
	case FormatJSON:
		type row struct {
			Name    string               `json:"name"`
			Summary *simulation.Summary  `json:"summary,omitempty"`
			Error   *types.ErrorResponse `json:"error,omitempty"`
		}
		rows := make([]row, len(outcomes))
		for i, o := range outcomes {
			rows[i] = row{Name: o.Name, Summary: o.Summary, Error: o.Error}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(summaryHeader); err != nil {
			return err
		}
		for _, o := range outcomes {
			if err := cw.Write(summaryRow(o)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		writeTabbed(tw, summaryHeader)
		for _, o := range outcomes {
			writeTabbed(tw, summaryRow(o))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
}

func writeTabbed(w io.Writer, cols []string) {
	for i, c := range cols {
		if i > 0 {
			_, _ = io.WriteString(w, "\t")
		}
		_, _ = io.WriteString(w, c)
	}
	_, _ = io.WriteString(w, "\n")
}

// WriteSeries writes the full series of every successful outcome, as CSV
// with a scenario column or as the JSON outcomes.
func WriteSeries(w io.Writer, format string, outcomes []types.Outcome) error {
	if format != FormatCSV {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(seriesHeader); err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Series == nil {
			continue
		}
		var werr error
		o.Series.Each(func(s simulation.Snapshot) bool {
			date := ""
			if !s.Date.IsZero() {
				date = s.Date.Format(model.DateLayout)
			}
			werr = cw.Write([]string{
				o.Name, strconv.Itoa(s.Day), date,
				formatFloat(s.S), formatFloat(s.E), formatFloat(s.I), formatFloat(s.R),
				formatFloat(s.CriticalOccupancy), formatFloat(s.EffectiveTransmission),
				formatFloat(s.Seasonal), formatFloat(s.Intervention), strconv.FormatBool(s.Engaged),
			})
			return werr == nil
		})
		if werr != nil {
			return werr
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 8, 64)
}
