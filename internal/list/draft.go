package list

import (
	"regexp"
	"strconv"
	"strings"

	"grocify/internal/catalog"
)

// Draft is the structured form of one free-text composer line. It is never
// persisted as-is; AddDraft turns it into item writes.
type Draft struct {
	Name     string
	Quantity float64
	Unit     string // empty means absent
	Section  string
}

// The three shorthand notations, tried in order. First match wins; the
// ordering is the tie-break policy, not an accident.
var (
	reQtyTimes     = regexp.MustCompile(`(?i)^(\d+)\s*(x|×)\s*(.+)$`)
	reQtyUnitFirst = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*([A-Za-z]+)\s+(.+)$`)
	reQtyUnitLast  = regexp.MustCompile(`(?i)^(.+?)\s+(\d+(?:\.\d+)?)\s*([A-Za-z]+)$`)
)

// ParseDraft converts one line of free text into a Draft. Parsing is total:
// every input yields either nil (blank input) or a fully populated Draft.
//
//	"3x bananen"  → qty 3, name "bananen"
//	"500g pasta"  → qty 500, unit "g", name "pasta"
//	"pasta 500g"  → qty 500, unit "g", name "pasta"
//	"melk"        → qty 1, name "melk"
func ParseDraft(raw string) *Draft {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if m := reQtyTimes.FindStringSubmatch(s); m != nil {
		qty, _ := strconv.ParseFloat(m[1], 64)
		return finalizeDraft(Draft{Name: m[3], Quantity: qty})
	}

	if m := reQtyUnitFirst.FindStringSubmatch(s); m != nil {
		qty, _ := strconv.ParseFloat(m[1], 64)
		return finalizeDraft(Draft{Name: m[3], Quantity: qty, Unit: m[2]})
	}

	if m := reQtyUnitLast.FindStringSubmatch(s); m != nil {
		qty, _ := strconv.ParseFloat(m[2], 64)
		return finalizeDraft(Draft{Name: m[1], Quantity: qty, Unit: m[3]})
	}

	return finalizeDraft(Draft{Name: s, Quantity: 1})
}

func finalizeDraft(d Draft) *Draft {
	d.Name = strings.TrimSpace(d.Name)
	if d.Quantity <= 0 {
		d.Quantity = 1
	}
	d.Unit = strings.TrimSpace(d.Unit)
	d.Section = catalog.InferSection(d.Name)
	return &d
}
