package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diillson/pnad-income-go/internal/application/usecase"
	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/shared/types"
	"github.com/diillson/pnad-income-go/pkg/version"
)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd         *cobra.Command
	pipelineUseCase *usecase.PipelineUseCase
	version         string
	quiet           bool
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:           "pnad-income",
		Short:         "Weighted labor income by economic sector from PNAD Contínua microdata",
		Version:       formattedVersion,
		RunE:          app.runCommand,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(`{{printf "PNAD income version: %s\n" .Version}}`)
	rootCmd.PersistentFlags().BoolVar(&app.quiet, "no-banner", false, "Do not print the welcome banner")
	addRunFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Decode, aggregate and export the selected periods",
		RunE:  app.runCommand,
	}
	addRunFlags(runCmd)

	layoutCmd := &cobra.Command{
		Use:   "layout [layout-file]",
		Short: "Parse a SAS input layout and list its fields",
		Args:  cobra.MaximumNArgs(1),
		RunE:  app.layoutCommand,
	}
	layoutCmd.Flags().StringSliceP("encodings", "e", nil, "Candidate encodings, tried in order (default: utf-8,ISO-8859-1,cp1252)")
	layoutCmd.Flags().Bool("check-overlap", false, "Fail when two fields share character positions")

	inspectCmd := &cobra.Command{
		Use:   "inspect <consolidated.csv|consolidated.db>",
		Short: "Read a consolidated CSV or SQLite table back and print one cohort per period and sector",
		Args:  cobra.ExactArgs(1),
		RunE:  app.inspectCommand,
	}
	inspectCmd.Flags().IntP("year", "Y", 0, "Only show periods of this year")
	inspectCmd.Flags().String("cohort", string(entity.CohortTotal), "Cohort to display: total, employer, self_employed")

	rootCmd.AddCommand(runCmd, layoutCmd, inspectCmd)

	app.rootCmd = rootCmd
	return app
}

// addRunFlags registra as flags da execução do pipeline.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	cmd.Flags().StringP("source-root", "s", "", "Directory holding the PNADC_<qq><yyyy>.txt microdata files")
	cmd.Flags().StringP("layout", "l", "", "SAS input layout file (default: layout_pnad.txt, looked up in --source-root)")
	cmd.Flags().StringSliceP("periods", "p", nil, "Periods to process, e.g. 1T2021,2T2021 or 2021Q1")
	cmd.Flags().IntP("year", "Y", 0, "Process the quarters of this year (see --quarters)")
	cmd.Flags().IntSliceP("quarters", "q", nil, "Quarters used with --year (default: 1,2,3,4)")
	cmd.Flags().IntP("region", "u", entity.DefaultRegion, "UF code kept by the region filter")
	cmd.Flags().StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	cmd.Flags().StringP("report-name", "n", "", "Base name for the report files (default: consolidated_income_by_sector)")
	cmd.Flags().StringSliceP("report-type", "y", nil, "Report types: csv, json, pdf, sqlite (default: csv,json)")
	cmd.Flags().IntP("workers", "w", 0, "Number of periods processed in parallel (default: 1)")
	cmd.Flags().String("s3-bucket", "", "Publish the generated reports to this S3 bucket")
	cmd.Flags().String("s3-prefix", "", "Key prefix for the published reports")
	cmd.Flags().String("aws-profile", "", "AWS profile used to publish the reports")
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.rootCmd.ExecuteContext(ctx)
}

// SetArgs substitui os argumentos da linha de comando (usado nos testes).
func (app *CLIApp) SetArgs(args []string) {
	app.rootCmd.SetArgs(args)
}

// parseArgs parses command-line arguments into a CLIArgs struct.
func parseArgs(cmd *cobra.Command) (*types.CLIArgs, error) {
	flags := cmd.Flags()

	configFile, _ := flags.GetString("config-file")
	sourceRoot, _ := flags.GetString("source-root")
	layoutFile, _ := flags.GetString("layout")
	periods, _ := flags.GetStringSlice("periods")
	year, _ := flags.GetInt("year")
	quarters, _ := flags.GetIntSlice("quarters")
	reportName, _ := flags.GetString("report-name")
	reportType, _ := flags.GetStringSlice("report-type")
	dir, _ := flags.GetString("dir")
	workers, _ := flags.GetInt("workers")
	s3Bucket, _ := flags.GetString("s3-bucket")
	s3Prefix, _ := flags.GetString("s3-prefix")
	awsProfile, _ := flags.GetString("aws-profile")

	if len(quarters) > 0 && year == 0 {
		return nil, fmt.Errorf("%w: --quarters requires --year", types.ErrInvalidPeriod)
	}
	if workers < 0 {
		return nil, fmt.Errorf("--workers must be positive, got %d", workers)
	}

	// A região só sobrescreve o arquivo de configuração quando informada.
	var region *int
	if flags.Changed("region") {
		r, _ := flags.GetInt("region")
		region = &r
	}

	return &types.CLIArgs{
		ConfigFile: configFile,
		SourceRoot: sourceRoot,
		LayoutFile: layoutFile,
		Periods:    periods,
		Year:       year,
		Quarters:   quarters,
		Region:     region,
		ReportName: reportName,
		ReportType: reportType,
		Dir:        dir,
		Workers:    workers,
		S3Bucket:   s3Bucket,
		S3Prefix:   s3Prefix,
		AWSProfile: awsProfile,
	}, nil
}

// runCommand é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCommand(cmd *cobra.Command, _ []string) error {
	if !app.quiet {
		displayWelcomeBanner(app.version)
		go checkLatestVersion(app.version)
	}

	cliArgs, err := parseArgs(cmd)
	if err != nil {
		return err
	}

	return app.pipelineUseCase.RunPipeline(cmd.Context(), cliArgs)
}

func (app *CLIApp) layoutCommand(cmd *cobra.Command, args []string) error {
	path := entity.DefaultLayoutFile
	if len(args) == 1 {
		path = args[0]
	}
	encodings, _ := cmd.Flags().GetStringSlice("encodings")
	checkOverlap, _ := cmd.Flags().GetBool("check-overlap")

	_, err := app.pipelineUseCase.DescribeLayout(path, encodings, checkOverlap)
	return err
}

func (app *CLIApp) inspectCommand(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetInt("year")
	cohortName, _ := cmd.Flags().GetString("cohort")

	cohort, err := parseCohort(cohortName)
	if err != nil {
		return err
	}

	_, err = app.pipelineUseCase.InspectTable(args[0], year, cohort)
	return err
}

func parseCohort(name string) (entity.Cohort, error) {
	for _, c := range entity.Cohorts {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown cohort %q (expected total, employer or self_employed)", name)
}

// SetPipelineUseCase sets the pipeline use case for the CLI app.
func (app *CLIApp) SetPipelineUseCase(useCase *usecase.PipelineUseCase) {
	app.pipelineUseCase = useCase
}
