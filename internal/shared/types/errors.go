package types

import "errors"

var (
	ErrEncoding          = errors.New("layout file could not be decoded with any candidate encoding")
	ErrFormat            = errors.New("malformed input")
	ErrMissingSourceFile = errors.New("raw data file for period not found")
	ErrNoData            = errors.New("no data produced: every period was empty or missing")
	ErrCohortConflict    = errors.New("record flagged both employer and self-employed")
	ErrNoPeriods         = errors.New("no periods selected. Use --periods or --year/--quarters")
	ErrInvalidPeriod     = errors.New("invalid period identifier")
	ErrLayoutOverlap     = errors.New("layout has overlapping fields")
	ErrProfileNotFound   = errors.New("AWS profile not found in AWS configuration")
)
