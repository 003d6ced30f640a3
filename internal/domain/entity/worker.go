package entity

// CohortFlags marks the worker categories a record belongs to. The total
// cohort has no flag: every worker with a sector belongs to it.
type CohortFlags struct {
	Employer     bool
	SelfEmployed bool
}

// Worker is a transformed record: the only view of a person the aggregator
// sees. Flags are computed once by the transformer.
type Worker struct {
	Sector string
	Weight Value
	Income Value
	Flags  CohortFlags
}
