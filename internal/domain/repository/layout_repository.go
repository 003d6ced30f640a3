package repository

import (
	"io"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
)

// LayoutRepository loads the column layout of the fixed-width microdata.
type LayoutRepository interface {
	LoadLayout(path string, encodings []string) (entity.Layout, error)
	ParseLayout(r io.Reader, encodings []string) (entity.Layout, error)
}
