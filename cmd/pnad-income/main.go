package main

import (
	"fmt"
	"os"

	"github.com/diillson/pnad-income-go/internal/adapter/driven/aws"
	"github.com/diillson/pnad-income-go/internal/adapter/driven/config"
	"github.com/diillson/pnad-income-go/internal/adapter/driven/export"
	"github.com/diillson/pnad-income-go/internal/adapter/driven/layout"
	"github.com/diillson/pnad-income-go/internal/adapter/driven/microdata"
	"github.com/diillson/pnad-income-go/internal/adapter/driven/sqlite"
	"github.com/diillson/pnad-income-go/internal/adapter/driving/cli"
	"github.com/diillson/pnad-income-go/internal/application/usecase"
	"github.com/diillson/pnad-income-go/pkg/console"
	"github.com/diillson/pnad-income-go/pkg/version"
)

func main() {
	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version)

	// Inicializa os repositórios
	layoutRepo := layout.NewLayoutRepository()
	microRepo := microdata.NewMicrodataRepository()
	exportRepo := export.NewExportRepository()
	tableStore := sqlite.NewTableStore()
	publishRepo := aws.NewPublishRepository()
	configRepo := config.NewConfigRepository()
	consoleImpl := console.NewConsole()

	// Inicializa o caso de uso
	pipelineUseCase := usecase.NewPipelineUseCase(
		layoutRepo,
		microRepo,
		exportRepo,
		tableStore,
		publishRepo,
		configRepo,
		consoleImpl,
	)

	// Define o caso de uso no aplicativo CLI
	app.SetPipelineUseCase(pipelineUseCase)

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
