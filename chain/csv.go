package chain

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions maps CSV column positions to quote fields. The defaults cover
// the standard layout: underlying_symbol, underlying_price, option_type,
// expiration, quote_date, strike, bid, ask in columns 0..7. Optional
// columns are disabled with a negative index.
type CSVOptions struct {
	UnderlyingSymbol int
	UnderlyingPrice  int
	OptionType       int
	Expiration       int
	QuoteDate        int
	Strike           int
	Bid              int
	Ask              int
	Volume           int
	Delta            int

	// Optional expiration window; zero bounds are open.
	StartDate time.Time
	EndDate   time.Time

	// HasHeader skips the first record.
	HasHeader bool
}

// DefaultCSVOptions returns the standard positional mapping.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		UnderlyingSymbol: 0,
		UnderlyingPrice:  1,
		OptionType:       2,
		Expiration:       3,
		QuoteDate:        4,
		Strike:           5,
		Bid:              6,
		Ask:              7,
		Volume:           -1,
		Delta:            -1,
		HasHeader:        true,
	}
}

// FromCSV loads an option chain from a CSV file using the default column
// mapping.
func FromCSV(path string) (Table, error) {
	return FromCSVWith(path, DefaultCSVOptions())
}

// FromCSVWith loads an option chain with an explicit column mapping.
// Malformed rows are an error rather than silently dropped.
func FromCSVWith(path string, opts CSVOptions) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain data: %w", err)
	}
	defer f.Close()

	table, err := readCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

func readCSV(r io.Reader, opts CSVOptions) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var table Table
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && opts.HasHeader {
			continue
		}

		q, err := parseQuote(rec, opts)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !opts.StartDate.IsZero() && q.Expiration.Before(opts.StartDate) {
			continue
		}
		if !opts.EndDate.IsZero() && q.Expiration.After(opts.EndDate) {
			continue
		}
		table = append(table, q)
	}
	return table, nil
}

func parseQuote(rec []string, opts CSVOptions) (Quote, error) {
	var q Quote
	var err error

	if q.UnderlyingSymbol, err = field(rec, opts.UnderlyingSymbol, "underlying_symbol"); err != nil {
		return q, err
	}
	if q.OptionType, err = field(rec, opts.OptionType, "option_type"); err != nil {
		return q, err
	}
	q.OptionType = strings.ToLower(strings.TrimSpace(q.OptionType))
	if !q.IsCall() && !q.IsPut() {
		return q, fmt.Errorf("invalid option_type %q", q.OptionType)
	}

	if q.UnderlyingPrice, err = floatField(rec, opts.UnderlyingPrice, "underlying_price"); err != nil {
		return q, err
	}
	if q.Strike, err = floatField(rec, opts.Strike, "strike"); err != nil {
		return q, err
	}
	if q.Bid, err = floatField(rec, opts.Bid, "bid"); err != nil {
		return q, err
	}
	if q.Ask, err = floatField(rec, opts.Ask, "ask"); err != nil {
		return q, err
	}
	if q.Expiration, err = dateField(rec, opts.Expiration, "expiration"); err != nil {
		return q, err
	}
	if q.QuoteDate, err = dateField(rec, opts.QuoteDate, "quote_date"); err != nil {
		return q, err
	}

	if opts.Volume >= 0 {
		v, err := floatField(rec, opts.Volume, "volume")
		if err != nil {
			return q, err
		}
		q.Volume = int64(v)
	}
	if opts.Delta >= 0 {
		if q.Delta, err = floatField(rec, opts.Delta, "delta"); err != nil {
			return q, err
		}
	}

	if q.Bid < 0 || q.Ask < 0 {
		return q, fmt.Errorf("negative bid/ask (%v/%v)", q.Bid, q.Ask)
	}
	if q.Ask < q.Bid {
		return q, fmt.Errorf("ask %v below bid %v", q.Ask, q.Bid)
	}
	if q.Strike <= 0 {
		return q, fmt.Errorf("non-positive strike %v", q.Strike)
	}
	if q.Expiration.Before(q.QuoteDate) {
		return q, fmt.Errorf("expiration %s before quote date %s",
			q.Expiration.Format("2006-01-02"), q.QuoteDate.Format("2006-01-02"))
	}
	return q, nil
}

func field(rec []string, idx int, name string) (string, error) {
	if idx < 0 || idx >= len(rec) {
		return "", fmt.Errorf("missing %s column (index %d)", name, idx)
	}
	v := strings.TrimSpace(rec[idx])
	if v == "" {
		return "", fmt.Errorf("empty %s", name)
	}
	return v, nil
}

func floatField(rec []string, idx int, name string) (float64, error) {
	s, err := field(rec, idx, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return v, nil
}

// dateField accepts the formats seen in common chain exports.
var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006"}

func dateField(rec []string, idx int, name string) (time.Time, error) {
	s, err := field(rec, idx, name)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s date %q", name, s)
}
