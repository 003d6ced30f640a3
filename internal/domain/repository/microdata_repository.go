package repository

import (
	"context"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
)

// DecodeOptions controls how one period file is decoded.
type DecodeOptions struct {
	SourceRoot    string
	Region        int
	RegionField   string
	WeightFields  []string
	MissingTokens []string
}

// MicrodataRepository decodes the raw fixed-width file of a period.
// A missing or unreadable file yields an empty Dataset whose Status says why,
// never an error.
type MicrodataRepository interface {
	Decode(ctx context.Context, layout entity.Layout, period entity.Period, opts DecodeOptions) (*entity.Dataset, error)
}
