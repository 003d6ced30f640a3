package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/domain/repository"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// PipelineUseCase runs the decode, transform and aggregate pipeline over a
// list of survey periods and persists the consolidated table.
type PipelineUseCase struct {
	layoutRepo  repository.LayoutRepository
	microRepo   repository.MicrodataRepository
	exportRepo  repository.ExportRepository
	tableStore  repository.TableStore
	publishRepo repository.PublishRepository
	configRepo  repository.ConfigRepository
	console     types.ConsoleInterface
}

// NewPipelineUseCase creates a new pipeline use case.
func NewPipelineUseCase(
	layoutRepo repository.LayoutRepository,
	microRepo repository.MicrodataRepository,
	exportRepo repository.ExportRepository,
	tableStore repository.TableStore,
	publishRepo repository.PublishRepository,
	configRepo repository.ConfigRepository,
	console types.ConsoleInterface,
) *PipelineUseCase {
	return &PipelineUseCase{
		layoutRepo:  layoutRepo,
		microRepo:   microRepo,
		exportRepo:  exportRepo,
		tableStore:  tableStore,
		publishRepo: publishRepo,
		configRepo:  configRepo,
		console:     console,
	}
}

// periodResult é o resultado de um período; cada período tem seu próprio slot.
type periodResult struct {
	rows    []entity.SectorAggregate
	summary entity.PeriodSummary
	skip    *entity.PeriodSkip
}

// Run processa os períodos configurados e devolve a tabela consolidada.
// Returns the (possibly empty) table together with ErrNoData when no period
// produced rows.
func (uc *PipelineUseCase) Run(ctx context.Context, cfg entity.RunConfig) (*entity.ConsolidatedTable, error) {
	if len(cfg.Periods) == 0 {
		return nil, types.ErrNoPeriods
	}

	layout, err := uc.layoutRepo.LoadLayout(layoutPath(cfg), cfg.LayoutEncodings)
	if err != nil {
		return nil, fmt.Errorf("loading layout: %w", err)
	}

	results := make([]periodResult, len(cfg.Periods))
	progress := uc.console.ProgressWithTotal(len(cfg.Periods))

	if cfg.Workers <= 1 {
		for i, period := range cfg.Periods {
			if err := ctx.Err(); err != nil {
				progress.Stop()
				return nil, err
			}
			res, err := uc.processPeriod(ctx, layout, cfg.Variables, period, cfg)
			if err != nil {
				progress.Stop()
				return nil, err
			}
			results[i] = res
			progress.Increment()
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Workers)
		for i, period := range cfg.Periods {
			i, period := i, period
			g.Go(func() error {
				res, err := uc.processPeriod(gctx, layout.Clone(), cfg.Variables.Clone(), period, cfg)
				if err != nil {
					return err
				}
				results[i] = res
				progress.Increment()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			progress.Stop()
			return nil, err
		}
	}
	progress.Stop()

	table := &entity.ConsolidatedTable{}
	for _, res := range results {
		table.Summaries = append(table.Summaries, res.summary)
		if res.skip != nil {
			uc.console.LogWarning("Skipping period %s: %s", res.skip.Period.Label(), res.skip.Reason)
			table.Skipped = append(table.Skipped, *res.skip)
			continue
		}
		table.Rows = append(table.Rows, res.rows...)
	}

	if len(table.Rows) == 0 {
		return table, types.ErrNoData
	}
	return table, nil
}

// processPeriod decodifica, transforma e agrega um único período.
func (uc *PipelineUseCase) processPeriod(
	ctx context.Context,
	layout entity.Layout,
	vars entity.SurveyVariables,
	period entity.Period,
	cfg entity.RunConfig,
) (periodResult, error) {
	ds, err := uc.microRepo.Decode(ctx, layout, period, repository.DecodeOptions{
		SourceRoot:    cfg.SourceRoot,
		Region:        cfg.Region,
		RegionField:   vars.RegionField,
		WeightFields:  vars.WeightFields,
		MissingTokens: cfg.MissingTokens,
	})
	if err != nil {
		return periodResult{}, fmt.Errorf("period %s: %w", period.Label(), err)
	}

	res := periodResult{summary: entity.PeriodSummary{
		Period:  period,
		Source:  ds.Source,
		Decoded: ds.Decoded,
		Kept:    ds.Len(),
	}}

	skip := func(reason string, cause error) (periodResult, error) {
		res.summary.Skipped = true
		res.skip = &entity.PeriodSkip{Period: period, Reason: reason, Err: cause}
		return res, nil
	}

	switch ds.Status {
	case entity.SourceMissing:
		return skip(fmt.Sprintf("source file not found: %s", ds.Source),
			fmt.Errorf("%w: %s", types.ErrMissingSourceFile, ds.Source))
	case entity.SourceUnreadable:
		return skip(fmt.Sprintf("source file unreadable: %s", ds.Source),
			fmt.Errorf("%w: %s", types.ErrMissingSourceFile, ds.Source))
	}
	if ds.Empty() {
		return skip(fmt.Sprintf("no records for region %d", cfg.Region), nil)
	}

	workers, err := TransformDataset(ds, vars)
	if err != nil {
		return periodResult{}, fmt.Errorf("period %s: %w", period.Label(), err)
	}
	res.summary.Workers = len(workers)

	rows := AggregateWorkers(workers)
	if len(rows) == 0 {
		return skip("no records with a sector code", nil)
	}
	label := period.Label()
	for i := range rows {
		rows[i].PeriodLabel = label
	}
	res.rows = rows
	res.summary.Sectors = len(rows)
	return res, nil
}

// layoutPath resolve o arquivo de layout relativo ao diretório dos microdados
// quando ele não existe no caminho informado.
func layoutPath(cfg entity.RunConfig) string {
	if cfg.SourceRoot == "" || filepath.IsAbs(cfg.LayoutFile) {
		return cfg.LayoutFile
	}
	if _, err := os.Stat(cfg.LayoutFile); err == nil {
		return cfg.LayoutFile
	}
	return filepath.Join(cfg.SourceRoot, cfg.LayoutFile)
}

// RunPipeline executa a funcionalidade principal: processa os períodos,
// exibe o resumo, exporta os relatórios e publica no S3 se configurado.
func (uc *PipelineUseCase) RunPipeline(ctx context.Context, args *types.CLIArgs) error {
	cfg, err := uc.ResolveRunConfig(args)
	if err != nil {
		return err
	}

	uc.console.LogInfo("Processing %d period(s) for region %d", len(cfg.Periods), cfg.Region)

	table, err := uc.Run(ctx, cfg)
	if table != nil {
		uc.displaySummary(table)
	}
	if err != nil {
		return err
	}

	paths, exportErr := uc.persist(table, cfg)

	if cfg.S3Bucket != "" && len(paths) > 0 {
		if err := uc.publish(ctx, cfg, paths); err != nil {
			uc.console.LogError("Failed to publish reports: %s", err)
			if exportErr == nil {
				exportErr = err
			}
		}
	}

	return exportErr
}

// persist grava a tabela em cada formato solicitado. Falhas são registradas
// e a primeira é devolvida depois que todos os formatos foram tentados.
func (uc *PipelineUseCase) persist(table *entity.ConsolidatedTable, cfg entity.RunConfig) ([]string, error) {
	var (
		paths    []string
		firstErr error
	)
	record := func(kind string, path string, err error) {
		if err != nil {
			uc.console.LogError("Failed to export to %s: %s", kind, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("export %s: %w", kind, err)
			}
			return
		}
		uc.console.LogSuccess("Successfully exported to %s: %s", kind, path)
		paths = append(paths, path)
	}

	for _, reportType := range cfg.ReportTypes {
		switch reportType {
		case "csv":
			path, err := uc.exportRepo.ExportToCSV(table, cfg.ReportName, cfg.Dir)
			record("CSV", path, err)
		case "json":
			path, err := uc.exportRepo.ExportToJSON(table, cfg.ReportName, cfg.Dir)
			record("JSON", path, err)
		case "pdf":
			path, err := uc.exportRepo.ExportToPDF(table, cfg.ReportName, cfg.Dir, cfg.Region)
			record("PDF", path, err)
		case "sqlite":
			if uc.tableStore == nil {
				record("SQLite", "", errors.New("no table store configured"))
				continue
			}
			path, err := uc.tableStore.SaveTable(table, filepath.Join(cfg.Dir, cfg.ReportName+".db"))
			record("SQLite", path, err)
		default:
			uc.console.LogWarning("Unknown report type '%s' ignored", reportType)
		}
	}
	return paths, firstErr
}

func (uc *PipelineUseCase) publish(ctx context.Context, cfg entity.RunConfig, paths []string) error {
	if uc.publishRepo == nil {
		return errors.New("no publisher configured")
	}
	target := repository.PublishTarget{
		Bucket:  cfg.S3Bucket,
		Prefix:  cfg.S3Prefix,
		Profile: cfg.S3Profile,
		Region:  cfg.S3Region,
	}
	if target.Profile != "" && !slices.Contains(uc.publishRepo.GetProfiles(), target.Profile) {
		return fmt.Errorf("%w: %s", types.ErrProfileNotFound, target.Profile)
	}

	accountID, err := uc.publishRepo.GetAccountID(ctx, target)
	if err != nil {
		accountID = "Unknown"
	}
	uc.console.LogInfo("Publishing %d report(s) to s3://%s (account %s)", len(paths), target.Bucket, accountID)

	uploaded, err := uc.publishRepo.Publish(ctx, target, paths)
	for _, uri := range uploaded {
		uc.console.LogSuccess("Uploaded %s", uri)
	}
	return err
}

// displaySummary mostra o que cada período contribuiu para a tabela.
func (uc *PipelineUseCase) displaySummary(table *entity.ConsolidatedTable) {
	t := uc.console.CreateTable()
	t.AddColumn("Period")
	t.AddColumn("Source")
	t.AddColumn("Decoded")
	t.AddColumn("Kept")
	t.AddColumn("Workers")
	t.AddColumn("Sectors")

	for _, s := range table.Summaries {
		status := pterm.FgGreen.Sprint(s.Period.Label())
		if s.Skipped {
			status = pterm.FgYellow.Sprintf("%s (skipped)", s.Period.Label())
		}
		t.AddRow(
			status,
			filepath.Base(s.Source),
			fmt.Sprintf("%d", s.Decoded),
			fmt.Sprintf("%d", s.Kept),
			fmt.Sprintf("%d", s.Workers),
			fmt.Sprintf("%d", s.Sectors),
		)
	}

	uc.console.Print(t.Render())
	uc.console.LogInfo("Consolidated %d row(s), %d period(s) skipped", len(table.Rows), len(table.Skipped))
}
