// Package report renders dice distributions as text tables or YAML.
package report

import (
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dicedist/internal/dice"
	"github.com/cory-johannsen/dicedist/internal/dist"
)

// Row is one outcome of a report.
type Row struct {
	Outcome     []int   `yaml:"outcome,flow"`
	Weight      string  `yaml:"weight"`      // exact decimal integer
	Probability string  `yaml:"probability"` // exact reduced fraction, e.g. "1/18"
	Approx      float64 `yaml:"approx"`
}

// Report is a rendered distribution for one pool.
type Report struct {
	Pool     string `yaml:"pool"`
	Ordered  bool   `yaml:"ordered"`
	Outcomes int    `yaml:"outcomes"`
	Total    string `yaml:"total"`
	Rows     []Row  `yaml:"rows"`
}

// FromDistribution builds a Report for d, which was built from pool.
//
// Postcondition: len(Rows) == d.Len(), rows in d's value order.
func FromDistribution(pool dice.Pool, ordered bool, d *dist.Distribution) Report {
	total := d.Total()
	r := Report{
		Pool:     pool.String(),
		Ordered:  ordered,
		Outcomes: d.Len(),
		Total:    total.String(),
		Rows:     make([]Row, 0, d.Len()),
	}
	for v, w := range d.All() {
		p := new(big.Rat).SetFrac(w, total)
		approx, _ := p.Float64()
		r.Rows = append(r.Rows, Row{
			Outcome:     []int(v),
			Weight:      w.String(),
			Probability: p.RatString(),
			Approx:      approx,
		})
	}
	return r
}

// WriteTable writes r as an aligned text table with a one-line header.
func WriteTable(w io.Writer, r Report) error {
	kind := "unordered"
	if r.Ordered {
		kind = "ordered"
	}
	if _, err := fmt.Fprintf(w, "%s (%s): %d outcomes, total weight %s\n", r.Pool, kind, r.Outcomes, r.Total); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "outcome\tweight\tprobability\t\t")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.6f\t\n", dist.Tuple(row.Outcome), row.Weight, row.Probability, row.Approx)
	}
	return tw.Flush()
}

// WriteYAML writes r as a YAML document.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// Write renders r in format, "table" or "yaml".
func Write(w io.Writer, format string, r Report) error {
	switch format {
	case "table":
		return WriteTable(w, r)
	case "yaml":
		return WriteYAML(w, r)
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}
