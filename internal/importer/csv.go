// Package importer loads bookings in bulk from CSV exports.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wolfman30/arcticflow-dispatch/internal/bookings"
	"github.com/wolfman30/arcticflow-dispatch/pkg/logging"
)

// ErrMissingFields marks rows skipped for lacking required columns.
var ErrMissingFields = errors.New("importer: missing required fields")

const defaultDescription = "CSV Import"

// Row is one parsed CSV record.
type Row struct {
	Line        int
	Name        string
	Phone       string
	Email       string
	ServiceType string
	Address     string
	Suburb      string
	Date        string
	Time        string
	Note        string
}

// Valid requires a name, a phone or email, a full address and a date and time.
func (r Row) Valid() bool {
	return r.Name != "" && (r.Phone != "" || r.Email != "") &&
		r.Address != "" && r.Suburb != "" && r.Date != "" && r.Time != ""
}

// Candidate maps the row onto a booking request.
func (r Row) Candidate() bookings.Candidate {
	service := r.ServiceType
	if service == "" {
		service = bookings.DefaultServiceType
	}
	desc := r.Note
	if desc == "" {
		desc = defaultDescription
	}
	return bookings.Candidate{
		Name:              r.Name,
		Phone:             r.Phone,
		Email:             r.Email,
		ServiceType:       service,
		Description:       desc,
		Address:           r.Address,
		Suburb:            r.Suburb,
		PreferredDateTime: r.Date + " " + r.Time,
	}
}

// column setters keyed by the header fragment they match.
var columns = []struct {
	fragment string
	set      func(*Row, string)
}{
	{"name", func(r *Row, v string) { r.Name = v }},
	{"phone", func(r *Row, v string) { r.Phone = v }},
	{"email", func(r *Row, v string) { r.Email = v }},
	{"service", func(r *Row, v string) { r.ServiceType = v }},
	{"address", func(r *Row, v string) { r.Address = v }},
	{"suburb", func(r *Row, v string) { r.Suburb = v }},
	{"date", func(r *Row, v string) { r.Date = v }},
	{"time", func(r *Row, v string) { r.Time = v }},
	{"note", func(r *Row, v string) { r.Note = v }},
}

// Parse reads a header row and then one booking per line. Headers match by
// case-insensitive substring, so "Customer Name" fills Name.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("importer: read header: %w", err)
	}
	setters := make([][]func(*Row, string), len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, col := range columns {
			if strings.Contains(h, col.fragment) {
				setters[i] = append(setters[i], col.set)
			}
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("importer: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		row := Row{Line: line}
		for i, value := range record {
			if i >= len(setters) {
				break
			}
			for _, set := range setters[i] {
				set(&row, strings.TrimSpace(value))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Creator is the ledger operation an import drives.
type Creator interface {
	Create(ctx context.Context, c bookings.Candidate) (*bookings.Booking, bool, error)
}

// Outcome records what happened to one row.
type Outcome struct {
	Line      int
	Name      string
	BookingID string
	Created   bool
	Err       error
}

// Report summarises an import run.
type Report struct {
	Outcomes   []Outcome
	Created    int
	Duplicates int
	Skipped    int
	Failed     int
}

// Importer pushes parsed rows through the ledger.
type Importer struct {
	ledger Creator
	logger *logging.Logger
}

func New(ledger Creator, logger *logging.Logger) *Importer {
	if ledger == nil {
		panic("importer: ledger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Importer{ledger: ledger, logger: logger}
}

// Import creates a booking per valid row. Re-importing the same file is
// harmless because the ledger suppresses duplicates.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	rows, err := Parse(r)
	if err != nil {
		return Report{}, err
	}
	var rep Report
	for _, row := range rows {
		out := Outcome{Line: row.Line, Name: row.Name}
		if !row.Valid() {
			out.Err = ErrMissingFields
			rep.Skipped++
			rep.Outcomes = append(rep.Outcomes, out)
			continue
		}
		b, created, err := im.ledger.Create(ctx, row.Candidate())
		switch {
		case err != nil:
			out.Err = err
			rep.Failed++
			im.logger.Warn("csv row rejected", "line", row.Line, "error", err)
		case created:
			out.BookingID, out.Created = b.ID, true
			rep.Created++
		default:
			out.BookingID = b.ID
			rep.Duplicates++
		}
		rep.Outcomes = append(rep.Outcomes, out)
	}
	im.logger.Info("csv import finished", "created", rep.Created, "duplicates", rep.Duplicates, "skipped", rep.Skipped, "failed", rep.Failed)
	return rep, nil
}
