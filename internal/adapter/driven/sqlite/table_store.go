package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/domain/repository"
)

// TableStoreImpl keeps consolidated tables in a SQLite file, one row per
// sector and period.
type TableStoreImpl struct{}

// NewTableStore creates a SQLite backed TableStore.
func NewTableStore() repository.TableStore {
	return &TableStoreImpl{}
}

func open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite aceita um único escritor.
	conn.SetMaxOpenConns(1)

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func migrate(conn *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sector_income (
			ord INTEGER PRIMARY KEY,
			sector_code TEXT NOT NULL,
			period_label TEXT NOT NULL,
			total_count_weighted REAL NOT NULL,
			total_income_weighted REAL NOT NULL,
			total_mean_income REAL,
			employer_count_weighted REAL NOT NULL,
			employer_income_weighted REAL NOT NULL,
			employer_mean_income REAL,
			self_employed_count_weighted REAL NOT NULL,
			self_employed_income_weighted REAL NOT NULL,
			self_employed_mean_income REAL
		)`,
		`CREATE TABLE IF NOT EXISTS skipped_period (
			period_label TEXT PRIMARY KEY,
			reason TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sector_income_period ON sector_income(period_label)`,
	}
	for _, m := range migrations {
		if _, err := conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// SaveTable replaces the stored table with the given one.
func (s *TableStoreImpl) SaveTable(table *entity.ConsolidatedTable, path string) (string, error) {
	conn, err := open(path)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	tx, err := conn.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM sector_income`, `DELETE FROM skipped_period`} {
		if _, err := tx.Exec(stmt); err != nil {
			return "", fmt.Errorf("clear table: %w", err)
		}
	}

	insert, err := tx.Prepare(`INSERT INTO sector_income (
		ord, sector_code, period_label,
		total_count_weighted, total_income_weighted, total_mean_income,
		employer_count_weighted, employer_income_weighted, employer_mean_income,
		self_employed_count_weighted, self_employed_income_weighted, self_employed_mean_income
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for i, row := range table.Rows {
		if _, err := insert.Exec(
			i, row.SectorCode, row.PeriodLabel,
			row.Total.CountWeighted, row.Total.IncomeWeighted, nullable(row.Total.MeanIncome),
			row.Employer.CountWeighted, row.Employer.IncomeWeighted, nullable(row.Employer.MeanIncome),
			row.SelfEmployed.CountWeighted, row.SelfEmployed.IncomeWeighted, nullable(row.SelfEmployed.MeanIncome),
		); err != nil {
			return "", fmt.Errorf("insert sector %s (%s): %w", row.SectorCode, row.PeriodLabel, err)
		}
	}

	for _, skip := range table.Skipped {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO skipped_period (period_label, reason) VALUES (?, ?)`,
			skip.Period.Label(), skip.Reason); err != nil {
			return "", fmt.Errorf("insert skipped period: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return filepath.Abs(path)
}

// LoadTable reads the rows back in the order they were saved.
func (s *TableStoreImpl) LoadTable(path string) (*entity.ConsolidatedTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn, err := open(path)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.Query(`SELECT sector_code, period_label,
		total_count_weighted, total_income_weighted, total_mean_income,
		employer_count_weighted, employer_income_weighted, employer_mean_income,
		self_employed_count_weighted, self_employed_income_weighted, self_employed_mean_income
		FROM sector_income ORDER BY ord`)
	if err != nil {
		return nil, fmt.Errorf("query sector_income: %w", err)
	}
	defer rows.Close()

	table := &entity.ConsolidatedTable{}
	for rows.Next() {
		var (
			row                        entity.SectorAggregate
			totalMean, empMean, seMean sql.NullFloat64
		)
		if err := rows.Scan(
			&row.SectorCode, &row.PeriodLabel,
			&row.Total.CountWeighted, &row.Total.IncomeWeighted, &totalMean,
			&row.Employer.CountWeighted, &row.Employer.IncomeWeighted, &empMean,
			&row.SelfEmployed.CountWeighted, &row.SelfEmployed.IncomeWeighted, &seMean,
		); err != nil {
			return nil, fmt.Errorf("scan sector_income: %w", err)
		}
		row.Total.MeanIncome = fromNullable(totalMean)
		row.Employer.MeanIncome = fromNullable(empMean)
		row.SelfEmployed.MeanIncome = fromNullable(seMean)
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

func nullable(v entity.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Float, Valid: v.Valid}
}

func fromNullable(n sql.NullFloat64) entity.Value {
	if !n.Valid {
		return entity.Missing()
	}
	return entity.Num(n.Float64)
}
