package export

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
)

// reportEpoch fixa as datas do documento para que o PDF seja reprodutível.
var reportEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ExportToPDF gera um relatório com uma página por período: uma tabela com as
// três coortes de cada setor.
func (r *ExportRepositoryImpl) ExportToPDF(table *entity.ConsolidatedTable, filename, outputDir string, region int) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(reportEpoch)
	pdf.SetModificationDate(reportEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetTitle("Labor income by sector", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{0, 102, 204}
	headerTextColor := [3]int{255, 255, 255}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("PNAD Contínua | UF %d", region)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	for _, group := range groupByPeriod(table.Rows) {
		pdf.AddPage()

		// Cabeçalho
		pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
		pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 12, tr(fmt.Sprintf("  Labor income by sector: %s", group.label)), "", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Region (UF): %d   Sectors: %d", region, len(group.rows))), "", 1, "L", true, 0, "")
		pdf.Ln(6)

		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.SetFont("Arial", "B", 8)
		for _, col := range pdfColumns {
			pdf.CellFormat(col.width, 7, tr(col.title), "B", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range group.rows {
			cells := pdfCells(row)
			for i, col := range pdfColumns {
				align := "R"
				if i == 0 {
					align = "L"
				}
				pdf.CellFormat(col.width, 6, tr(cells[i]), "B", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if len(table.Skipped) > 0 {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(192, 0, 0)
		pdf.Cell(0, 8, "Skipped periods")
		pdf.Ln(10)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		for _, skip := range table.Skipped {
			pdf.MultiCell(0, 5, tr(fmt.Sprintf("%s: %s", skip.Period.Label(), skip.Reason)), "", "L", false)
		}
	}

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// pdfColumns cobre as nove métricas: contagem, renda e média de cada coorte.
var pdfColumns = []struct {
	title string
	width float64
}{
	{"Sector", 22},
	{"Total count", 26}, {"Total income", 32}, {"Total mean", 24},
	{"Employer count", 26}, {"Employer income", 32}, {"Employer mean", 24},
	{"Self-emp. count", 26}, {"Self-emp. income", 32}, {"Self-emp. mean", 24},
}

func pdfCells(row entity.SectorAggregate) []string {
	cells := []string{row.SectorCode}
	for _, c := range entity.Cohorts {
		agg := row.Of(c)
		cells = append(cells, money(agg.CountWeighted), money(agg.IncomeWeighted), mean(agg.MeanIncome))
	}
	return cells
}

type periodGroup struct {
	label string
	rows  []entity.SectorAggregate
}

// groupByPeriod agrupa linhas consecutivas do mesmo período mantendo a ordem.
func groupByPeriod(rows []entity.SectorAggregate) []periodGroup {
	var groups []periodGroup
	for _, row := range rows {
		if n := len(groups); n > 0 && groups[n-1].label == row.PeriodLabel {
			groups[n-1].rows = append(groups[n-1].rows, row)
			continue
		}
		groups = append(groups, periodGroup{label: row.PeriodLabel, rows: []entity.SectorAggregate{row}})
	}
	return groups
}

func money(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func mean(v entity.Value) string {
	if !v.Valid {
		return "-"
	}
	return money(v.Float)
}
