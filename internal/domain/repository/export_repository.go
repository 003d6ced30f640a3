package repository

import (
	"github.com/diillson/pnad-income-go/internal/domain/entity"
)

// ExportRepository persists the consolidated table.
type ExportRepository interface {
	ExportToCSV(table *entity.ConsolidatedTable, filename string, outputDir string) (string, error)
	ExportToJSON(table *entity.ConsolidatedTable, filename string, outputDir string) (string, error)
	ExportToPDF(table *entity.ConsolidatedTable, filename string, outputDir string, region int) (string, error)

	ImportFromCSV(path string) (*entity.ConsolidatedTable, error)
}

// TableStore keeps the consolidated table in a queryable database.
type TableStore interface {
	SaveTable(table *entity.ConsolidatedTable, path string) (string, error)
	LoadTable(path string) (*entity.ConsolidatedTable, error)
}
