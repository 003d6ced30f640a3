package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// Period is one quarterly collection wave.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// Label returns the period label used in the consolidated table, e.g. "1T2021".
func (p Period) Label() string {
	return fmt.Sprintf("%dT%d", p.Quarter, p.Year)
}

// FileName returns the raw microdata file name, e.g. "PNADC_012021.txt".
func (p Period) FileName() string {
	return fmt.Sprintf("PNADC_%02d%d.txt", p.Quarter, p.Year)
}

// Before orders periods chronologically.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Quarter < o.Quarter
}

func (p Period) String() string {
	return p.Label()
}

var (
	labelPattern   = regexp.MustCompile(`^([1-4])T(\d{4})$`)
	yearQPattern   = regexp.MustCompile(`^(\d{4})[-_ ]?[QT]?([1-4])$`)
	fileTagPattern = regexp.MustCompile(`^0([1-4])(\d{4})$`)
)

// ParsePeriod accepts "1T2021", "2021Q1", "2021T1", "2021-1" and the raw
// file tag "012021".
func ParsePeriod(s string) (Period, error) {
	token := strings.ToUpper(strings.TrimSpace(s))
	var year, quarter string
	switch {
	case labelPattern.MatchString(token):
		m := labelPattern.FindStringSubmatch(token)
		quarter, year = m[1], m[2]
	case fileTagPattern.MatchString(token):
		m := fileTagPattern.FindStringSubmatch(token)
		quarter, year = m[1], m[2]
	case yearQPattern.MatchString(token):
		m := yearQPattern.FindStringSubmatch(token)
		year, quarter = m[1], m[2]
	default:
		return Period{}, fmt.Errorf("%w: %q", types.ErrInvalidPeriod, s)
	}
	y, _ := strconv.Atoi(year)
	q, _ := strconv.Atoi(quarter)
	return Period{Year: y, Quarter: q}, nil
}

// ParsePeriods parses a list of period identifiers keeping their order.
func ParsePeriods(tokens []string) ([]Period, error) {
	periods := make([]Period, 0, len(tokens))
	for _, t := range tokens {
		if strings.TrimSpace(t) == "" {
			continue
		}
		p, err := ParsePeriod(t)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

// QuartersOf expands a year and a list of quarters into periods.
func QuartersOf(year int, quarters []int) ([]Period, error) {
	periods := make([]Period, 0, len(quarters))
	for _, q := range quarters {
		if q < 1 || q > 4 {
			return nil, fmt.Errorf("%w: quarter %d", types.ErrInvalidPeriod, q)
		}
		periods = append(periods, Period{Year: year, Quarter: q})
	}
	return periods, nil
}
