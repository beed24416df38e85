package availability

import (
	"fmt"
	"strings"
)

// Digest is the availability grid injected into AI directives.
type Digest struct {
	Days []Day `json:"days"`
}

type Day struct {
	Date  string `json:"date"`
	Cells []Cell `json:"cells"`
}

type Cell struct {
	Time         string `json:"time"`
	Repair       int    `json:"repair"`
	Installation int    `json:"installation"`
}

// Empty reports whether nobody is free in the cell.
func (c Cell) Empty() bool {
	return c.Repair == 0 && c.Installation == 0
}

// String renders the compact text form, one line per day, omitting cells
// where nobody is free:
//
//	Availability (AEST 09:00-17:00):
//	2025-05-20: [09:00: 1R 1I] [11:00: 1R 0I]
func (d Digest) String() string {
	var b strings.Builder
	b.WriteString("Availability (AEST 09:00-17:00):\n")
	for _, day := range d.Days {
		b.WriteString(day.Date)
		b.WriteString(": ")
		for _, cell := range day.Cells {
			if cell.Empty() {
				continue
			}
			fmt.Fprintf(&b, "[%s: %dR %dI] ", cell.Time, cell.Repair, cell.Installation)
		}
		b.WriteString("\n")
	}
	return b.String()
}
