package usecase

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

func runConfig(periods ...entity.Period) entity.RunConfig {
	cfg := entity.DefaultRunConfig()
	cfg.SourceRoot = "/data/pnad"
	cfg.Periods = periods
	cfg.Dir = "/tmp/out"
	return cfg
}

var (
	q1 = entity.Period{Year: 2021, Quarter: 1}
	q2 = entity.Period{Year: 2021, Quarter: 2}
	q3 = entity.Period{Year: 2021, Quarter: 3}
	q4 = entity.Period{Year: 2021, Quarter: 4}
)

func TestRun_EndToEndScenario(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(scenarioRows()...)

	table, err := fx.uc.Run(context.Background(), runConfig(q1))
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	a, b := table.Rows[0], table.Rows[1]
	assert.Equal(t, "A", a.SectorCode)
	assert.Equal(t, "1T2021", a.PeriodLabel)
	assert.Equal(t, 30.0, a.Total.CountWeighted)
	assert.Equal(t, 5000.0, a.Total.IncomeWeighted)
	assert.InDelta(t, 166.67, a.Total.MeanIncome.Float, 0.005)

	assert.Equal(t, "B", b.SectorCode)
	assert.Equal(t, 10.0, b.Total.CountWeighted)
	assert.Equal(t, 5000.0, b.Total.IncomeWeighted)
	assert.Equal(t, entity.Num(500), b.Total.MeanIncome)

	require.Len(t, table.Summaries, 1)
	assert.Equal(t, 5, table.Summaries[0].Kept)
	assert.Equal(t, 2, table.Summaries[0].Sectors)
	assert.Empty(t, table.Skipped)
	assert.EqualValues(t, 1, fx.console.progress.Load())
}

func TestRun_MissingFileIsSkipped(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(scenarioRows()...)

	table, err := fx.uc.Run(context.Background(), runConfig(q1, q2))
	require.NoError(t, err)

	for _, r := range table.Rows {
		assert.Equal(t, "1T2021", r.PeriodLabel)
	}
	require.Len(t, table.Skipped, 1)
	skip := table.Skipped[0]
	assert.Equal(t, q2, skip.Period)
	assert.ErrorIs(t, skip.Err, types.ErrMissingSourceFile)
	assert.Contains(t, skip.Reason, "PNADC_022021.txt")
	require.Len(t, fx.console.warnings, 1)
	assert.Contains(t, fx.console.warnings[0], "2T2021")
}

func TestRun_AllMissingIsNoData(t *testing.T) {
	fx := newFixture()

	table, err := fx.uc.Run(context.Background(), runConfig(q1, q2))
	require.ErrorIs(t, err, types.ErrNoData)
	require.NotNil(t, table)
	assert.Empty(t, table.Rows)
	assert.Len(t, table.Skipped, 2)
}

func TestRun_EmptyRegionIsSkipped(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset()
	fx.micro.datasets[q2.Label()] = makeDataset(row{sector: "", weight: f(1)})
	fx.micro.datasets[q3.Label()] = makeDataset(scenarioRows()...)

	table, err := fx.uc.Run(context.Background(), runConfig(q1, q2, q3))
	require.NoError(t, err)
	require.Len(t, table.Skipped, 2)
	assert.Contains(t, table.Skipped[0].Reason, "no records for region 26")
	assert.Contains(t, table.Skipped[1].Reason, "sector code")
	assert.NoError(t, table.Skipped[0].Err)
}

func TestRun_FatalErrorsStopTheRun(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(scenarioRows()...)
	fx.micro.errs[q2.Label()] = errors.New("read failure")

	_, err := fx.uc.Run(context.Background(), runConfig(q1, q2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period 2T2021")
}

func TestRun_CohortConflictIsFatal(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(row{sector: "A", weight: f(1), position: f(5), subtype: f(1)})

	cfg := runConfig(q1)
	cfg.Variables.SelfEmployedCode = cfg.Variables.EmployerCode

	_, err := fx.uc.Run(context.Background(), cfg)
	require.ErrorIs(t, err, types.ErrCohortConflict)
}

func TestRun_LayoutErrorIsFatal(t *testing.T) {
	fx := newFixture()
	fx.layout.err = types.ErrEncoding

	_, err := fx.uc.Run(context.Background(), runConfig(q1))
	require.ErrorIs(t, err, types.ErrEncoding)
	assert.Zero(t, fx.micro.calls.Load())
}

func TestRun_NoPeriods(t *testing.T) {
	fx := newFixture()
	_, err := fx.uc.Run(context.Background(), runConfig())
	require.ErrorIs(t, err, types.ErrNoPeriods)
}

func TestRun_ParallelKeepsPeriodOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture()
	for i, p := range []entity.Period{q1, q2, q3, q4} {
		fx.micro.datasets[p.Label()] = makeDataset(row{sector: "S", weight: f(float64(i + 1)), primary: f(100)})
	}
	// O primeiro período só termina depois dos outros.
	release := make(chan struct{})
	fx.micro.block = map[string]chan struct{}{q1.Label(): release}
	go func() {
		for fx.console.progress.Load() < 3 {
			runtime.Gosched()
		}
		close(release)
	}()

	cfg := runConfig(q1, q2, q3, q4)
	cfg.Workers = 4

	table, err := fx.uc.Run(context.Background(), cfg)
	require.NoError(t, err)

	var labels []string
	for _, r := range table.Rows {
		labels = append(labels, r.PeriodLabel)
	}
	assert.Equal(t, []string{"1T2021", "2T2021", "3T2021", "4T2021"}, labels)
	assert.EqualValues(t, 4, fx.console.progress.Load())

	sequential := cfg
	sequential.Workers = 1
	fx.micro.block = nil
	seqTable, err := fx.uc.Run(context.Background(), sequential)
	require.NoError(t, err)
	assert.Equal(t, seqTable.Rows, table.Rows)
}

func TestRun_ParallelFatalErrorCancelsSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(scenarioRows()...)
	fx.micro.errs[q2.Label()] = errors.New("boom")
	// q3 fica bloqueado até o contexto do grupo ser cancelado.
	fx.micro.block = map[string]chan struct{}{q3.Label(): make(chan struct{})}

	cfg := runConfig(q1, q2, q3)
	cfg.Workers = 3

	_, err := fx.uc.Run(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRun_CancelledContext(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(scenarioRows()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.uc.Run(ctx, runConfig(q1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunPipeline_ExportsAndPublishes(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(scenarioRows()...)

	args := &types.CLIArgs{
		Periods:    []string{"1T2021"},
		Dir:        "/tmp/out",
		ReportName: "income",
		ReportType: []string{"csv", "json", "sqlite", "xlsx"},
		S3Bucket:   "pnad-reports",
		S3Prefix:   "2021/",
	}
	require.NoError(t, fx.uc.RunPipeline(context.Background(), args))

	assert.Equal(t, []string{"/tmp/out/income.csv", "/tmp/out/income.json"}, fx.export.exported)
	assert.Equal(t, []string{"/tmp/out/income.db"}, fx.store.saved)
	assert.Equal(t, "pnad-reports", fx.publisher.target.Bucket)
	assert.Equal(t, []string{
		"s3://pnad-reports/2021/income.csv",
		"s3://pnad-reports/2021/income.json",
		"s3://pnad-reports/2021/income.db",
	}, fx.publisher.published)
	assert.Len(t, fx.console.warnings, 1, "unknown report type is reported")
}

func TestRunPipeline_NoDataWritesNothing(t *testing.T) {
	fx := newFixture()

	err := fx.uc.RunPipeline(context.Background(), &types.CLIArgs{
		Periods: []string{"1T2021"},
		Dir:     "/tmp/out",
	})
	require.ErrorIs(t, err, types.ErrNoData)
	assert.Empty(t, fx.export.exported)
	assert.Empty(t, fx.publisher.published)
}

func TestRunPipeline_ExportFailureIsReturned(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(scenarioRows()...)
	fx.export.failOn["csv"] = errors.New("disk full")

	err := fx.uc.RunPipeline(context.Background(), &types.CLIArgs{
		Periods:    []string{"1T2021"},
		Dir:        "/tmp/out",
		ReportType: []string{"csv", "json"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, []string{"/tmp/out/consolidated_income_by_sector.json"}, fx.export.exported)
	require.Len(t, fx.console.errors, 1)
}

func TestRunPipeline_UnknownAWSProfile(t *testing.T) {
	fx := newFixture()
	fx.micro.datasets[q1.Label()] = makeDataset(scenarioRows()...)

	err := fx.uc.RunPipeline(context.Background(), &types.CLIArgs{
		Periods:    []string{"1T2021"},
		Dir:        "/tmp/out",
		ReportType: []string{"csv"},
		S3Bucket:   "pnad-reports",
		AWSProfile: "ghost",
	})
	require.ErrorIs(t, err, types.ErrProfileNotFound)
	assert.Empty(t, fx.publisher.published)
	assert.Len(t, fx.export.exported, 1)
}
