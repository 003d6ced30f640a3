package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/domain/repository"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// ExportToCSV grava a tabela consolidada. A saída depende apenas da tabela:
// duas exportações da mesma tabela geram arquivos idênticos.
func (r *ExportRepositoryImpl) ExportToCSV(table *entity.ConsolidatedTable, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, table); err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error closing CSV file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// WriteCSV escreve o cabeçalho e uma linha por setor e período.
func WriteCSV(w io.Writer, table *entity.ConsolidatedTable) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(entity.Columns()); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, row := range table.Rows {
		if err := writer.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("error writing CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("error flushing CSV data: %w", err)
	}
	return nil
}

func csvRecord(row entity.SectorAggregate) []string {
	record := []string{row.SectorCode, row.PeriodLabel}
	for _, c := range entity.Cohorts {
		agg := row.Of(c)
		record = append(record,
			formatFloat(agg.CountWeighted),
			formatFloat(agg.IncomeWeighted),
			agg.MeanIncome.String(),
		)
	}
	return record
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ExportToJSON grava a tabela consolidada em JSON indentado; médias ausentes
// viram null.
func (r *ExportRepositoryImpl) ExportToJSON(table *entity.ConsolidatedTable, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(table); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error closing JSON file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// ImportFromCSV lê de volta uma tabela exportada por ExportToCSV. As colunas
// são localizadas pelo cabeçalho; colunas de média ausentes ficam vazias.
func (r *ExportRepositoryImpl) ImportFromCSV(path string) (*entity.ConsolidatedTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer file.Close()

	return ReadCSV(bufio.NewReader(file))
}

// ReadCSV decodifica uma tabela consolidada em CSV.
func ReadCSV(rd io.Reader) (*entity.ConsolidatedTable, error) {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty CSV", types.ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, required := range []string{"sector_code", "period_label"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", types.ErrFormat, required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	value := func(rec []string, name string) (entity.Value, error) {
		raw := field(rec, name)
		if raw == "" {
			return entity.Missing(), nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return entity.Value{}, fmt.Errorf("%w: column %s: %q", types.ErrFormat, name, raw)
		}
		return entity.Num(f), nil
	}

	table := &entity.ConsolidatedTable{}
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("error reading CSV line %d: %w", line, err)
		}

		row := entity.SectorAggregate{
			SectorCode:  field(rec, "sector_code"),
			PeriodLabel: field(rec, "period_label"),
		}
		for _, c := range entity.Cohorts {
			count, err := value(rec, string(c)+"_count_weighted")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			income, err := value(rec, string(c)+"_income_weighted")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			mean, err := value(rec, string(c)+"_mean_income")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			agg := entity.CohortAggregate{
				CountWeighted:  count.OrZero(),
				IncomeWeighted: income.OrZero(),
				MeanIncome:     mean,
			}
			switch c {
			case entity.CohortEmployer:
				row.Employer = agg
			case entity.CohortSelfEmployed:
				row.SelfEmployed = agg
			default:
				row.Total = agg
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// generateFilename monta o caminho de saída sem carimbo de data, para que
// execuções repetidas produzam os mesmos arquivos.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s", base, ext)), nil
}
