package entity

// Cohort identifies one of the three worker categories.
type Cohort string

const (
	CohortTotal        Cohort = "total"
	CohortEmployer     Cohort = "employer"
	CohortSelfEmployed Cohort = "self_employed"
)

// Cohorts lists the cohorts in output order.
var Cohorts = []Cohort{CohortTotal, CohortEmployer, CohortSelfEmployed}

// CohortAggregate holds the weighted totals of one cohort in one sector.
type CohortAggregate struct {
	CountWeighted  float64 `json:"count_weighted"`
	IncomeWeighted float64 `json:"income_weighted"`
	MeanIncome     Value   `json:"mean_income"`
}

// SectorAggregate is one row of the consolidated table.
type SectorAggregate struct {
	SectorCode   string          `json:"sector_code"`
	PeriodLabel  string          `json:"period_label"`
	Total        CohortAggregate `json:"total"`
	Employer     CohortAggregate `json:"employer"`
	SelfEmployed CohortAggregate `json:"self_employed"`
}

// Of returns the aggregate for the given cohort.
func (s SectorAggregate) Of(c Cohort) CohortAggregate {
	switch c {
	case CohortEmployer:
		return s.Employer
	case CohortSelfEmployed:
		return s.SelfEmployed
	default:
		return s.Total
	}
}

// PeriodSkip records a period that produced no rows.
type PeriodSkip struct {
	Period Period `json:"period"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// PeriodSummary reports what one period contributed to the table.
type PeriodSummary struct {
	Period  Period `json:"period"`
	Source  string `json:"source"`
	Decoded int    `json:"decoded"`
	Kept    int    `json:"kept"`
	Workers int    `json:"workers"`
	Sectors int    `json:"sectors"`
	Skipped bool   `json:"skipped"`
}

// ConsolidatedTable is the output of a pipeline run. Rows follow the requested
// period order, sectors sorted inside each period.
type ConsolidatedTable struct {
	Rows      []SectorAggregate `json:"rows"`
	Skipped   []PeriodSkip      `json:"-"`
	Summaries []PeriodSummary   `json:"-"`
}

// Columns returns the header of the tabular exports.
func Columns() []string {
	return []string{
		"sector_code",
		"period_label",
		"total_count_weighted",
		"total_income_weighted",
		"total_mean_income",
		"employer_count_weighted",
		"employer_income_weighted",
		"employer_mean_income",
		"self_employed_count_weighted",
		"self_employed_income_weighted",
		"self_employed_mean_income",
	}
}
