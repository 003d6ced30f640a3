package usecase

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// InspectTable lê de volta uma tabela consolidada (CSV ou banco SQLite .db),
// filtra pelo ano (0 mantém todos) e exibe um cohort por período e setor.
func (uc *PipelineUseCase) InspectTable(path string, year int, cohort entity.Cohort) (*entity.ConsolidatedTable, error) {
	table, err := uc.loadTable(path)
	if err != nil {
		return nil, err
	}

	type keyed struct {
		period entity.Period
		row    entity.SectorAggregate
	}
	var kept []keyed
	for _, row := range table.Rows {
		period, err := entity.ParsePeriod(row.PeriodLabel)
		if err != nil {
			uc.console.LogWarning("Ignoring row with invalid period label %q", row.PeriodLabel)
			continue
		}
		if year != 0 && period.Year != year {
			continue
		}
		kept = append(kept, keyed{period: period, row: row})
	}
	if len(kept) == 0 {
		return nil, types.ErrNoData
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].period.Before(kept[j].period)
	})

	out := &entity.ConsolidatedTable{Rows: make([]entity.SectorAggregate, len(kept))}
	for i, k := range kept {
		out.Rows[i] = k.row
	}
	recomputeSelfEmployedMean(out.Rows)

	uc.displayCohort(out, cohort)
	uc.console.DisplayTrendBars(
		fmt.Sprintf("Mean income (%s)", cohort),
		cohortTrend(out.Rows, cohort),
	)
	return out, nil
}

// loadTable escolhe a origem pela extensão do arquivo.
func (uc *PipelineUseCase) loadTable(path string) (*entity.ConsolidatedTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		if uc.tableStore == nil {
			return nil, errors.New("no table store configured")
		}
		return uc.tableStore.LoadTable(path)
	default:
		return uc.exportRepo.ImportFromCSV(path)
	}
}

// cohortTrend calcula a renda média do cohort por período somando todos os
// setores. Períodos sem peso ficam com zero.
func cohortTrend(rows []entity.SectorAggregate, cohort entity.Cohort) []types.TrendPoint {
	var (
		points []types.TrendPoint
		count  float64
		income float64
	)
	flush := func(label string) {
		points = append(points, types.TrendPoint{
			Label: label,
			Value: entity.SafeRatio(income, count).OrZero(),
		})
		count, income = 0, 0
	}
	for i, row := range rows {
		agg := row.Of(cohort)
		count += agg.CountWeighted
		income += agg.IncomeWeighted
		if i == len(rows)-1 || rows[i+1].PeriodLabel != row.PeriodLabel {
			flush(row.PeriodLabel)
		}
	}
	return points
}

// recomputeSelfEmployedMean preenche a renda média dos conta própria quando a
// coluna veio inteiramente vazia.
func recomputeSelfEmployedMean(rows []entity.SectorAggregate) {
	for _, row := range rows {
		if row.SelfEmployed.MeanIncome.Valid {
			return
		}
	}
	for i := range rows {
		se := &rows[i].SelfEmployed
		se.MeanIncome = entity.SafeRatio(se.IncomeWeighted, se.CountWeighted)
	}
}

func (uc *PipelineUseCase) displayCohort(table *entity.ConsolidatedTable, cohort entity.Cohort) {
	t := uc.console.CreateTable()
	t.AddColumn("Period")
	t.AddColumn("Sector")
	t.AddColumn("Weighted count")
	t.AddColumn("Weighted income")
	t.AddColumn("Mean income")

	for _, row := range table.Rows {
		agg := row.Of(cohort)
		mean := "-"
		if agg.MeanIncome.Valid {
			mean = strconv.FormatFloat(agg.MeanIncome.Float, 'f', 2, 64)
		}
		t.AddRow(
			pterm.FgMagenta.Sprint(row.PeriodLabel),
			row.SectorCode,
			strconv.FormatFloat(agg.CountWeighted, 'f', 2, 64),
			strconv.FormatFloat(agg.IncomeWeighted, 'f', 2, 64),
			mean,
		)
	}

	uc.console.Printf("\n%s\n", pterm.FgYellow.Sprintf("Cohort: %s", cohort))
	uc.console.Print(t.Render())
}

// DescribeLayout carrega um layout, lista seus campos e, se pedido, falha
// quando houver campos sobrepostos.
func (uc *PipelineUseCase) DescribeLayout(path string, encodings []string, checkOverlap bool) (entity.Layout, error) {
	if len(encodings) == 0 {
		encodings = entity.DefaultLayoutEncodings
	}
	layout, err := uc.layoutRepo.LoadLayout(path, encodings)
	if err != nil {
		return entity.Layout{}, err
	}

	t := uc.console.CreateTable()
	t.AddColumn("#")
	t.AddColumn("Name")
	t.AddColumn("Start")
	t.AddColumn("Width")
	t.AddColumn("Type")
	for i, f := range layout.Fields {
		kind := "numeric"
		if f.IsText {
			kind = "text"
		}
		t.AddRow(fmt.Sprintf("%d", i+1), f.Name, fmt.Sprintf("%d", f.Start), fmt.Sprintf("%d", f.Width), kind)
	}
	uc.console.Print(t.Render())
	uc.console.LogInfo("%d field(s) in %s", layout.Len(), path)

	if !checkOverlap {
		return layout, nil
	}
	overlaps := layout.Overlaps()
	if len(overlaps) == 0 {
		uc.console.LogSuccess("No overlapping fields")
		return layout, nil
	}
	for _, o := range overlaps {
		uc.console.LogWarning("%s", o.String())
	}
	return layout, fmt.Errorf("%w: %d pair(s)", types.ErrLayoutOverlap, len(overlaps))
}
