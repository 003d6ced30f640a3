package usecase

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// ResolveRunConfig monta a configuração da execução: valores padrão, depois o
// arquivo de configuração (se houver) e por fim as flags da linha de comando.
func (uc *PipelineUseCase) ResolveRunConfig(args *types.CLIArgs) (entity.RunConfig, error) {
	cfg := entity.DefaultRunConfig()

	if args.ConfigFile != "" {
		fileCfg, err := uc.configRepo.LoadConfigFile(args.ConfigFile)
		if err != nil {
			return entity.RunConfig{}, err
		}
		if err := applyConfigFile(&cfg, fileCfg); err != nil {
			return entity.RunConfig{}, err
		}
	}

	if err := applyArgs(&cfg, args); err != nil {
		return entity.RunConfig{}, err
	}

	if len(cfg.Periods) == 0 {
		return entity.RunConfig{}, types.ErrNoPeriods
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return entity.RunConfig{}, err
		}
		cfg.Dir = cwd
	}
	return cfg, nil
}

func applyConfigFile(cfg *entity.RunConfig, fc *types.Config) error {
	if fc.SourceRoot != "" {
		cfg.SourceRoot = fc.SourceRoot
	}
	if fc.LayoutFile != "" {
		cfg.LayoutFile = fc.LayoutFile
	}
	if len(fc.LayoutEncodings) > 0 {
		cfg.LayoutEncodings = fc.LayoutEncodings
	}
	if len(fc.Periods) > 0 {
		periods, err := entity.ParsePeriods(fc.Periods)
		if err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		cfg.Periods = periods
	}
	if fc.Region != 0 {
		cfg.Region = fc.Region
	}
	if fc.Dir != "" {
		cfg.Dir = fc.Dir
	}
	if fc.ReportName != "" {
		cfg.ReportName = fc.ReportName
	}
	if len(fc.ReportType) > 0 {
		cfg.ReportTypes = fc.ReportType
	}
	if fc.Workers > 0 {
		cfg.Workers = fc.Workers
	}
	if fc.MissingTokens != nil {
		cfg.MissingTokens = fc.MissingTokens
	}
	if fc.Variables != nil {
		applyVariables(&cfg.Variables, fc.Variables)
	}
	if fc.S3 != nil {
		cfg.S3Bucket = fc.S3.Bucket
		cfg.S3Prefix = fc.S3.Prefix
		cfg.S3Profile = fc.S3.Profile
		cfg.S3Region = fc.S3.Region
	}
	return nil
}

func applyVariables(v *entity.SurveyVariables, vc *types.VariableConfig) {
	if len(vc.WeightFields) > 0 {
		v.WeightFields = vc.WeightFields
	}
	if vc.PrimaryWeight != "" {
		v.PrimaryWeight = vc.PrimaryWeight
	}
	if vc.RegionField != "" {
		v.RegionField = vc.RegionField
	}
	if vc.SectorField != "" {
		v.SectorField = vc.SectorField
	}
	if vc.PositionField != "" {
		v.PositionField = vc.PositionField
	}
	if vc.EmployerSubtype != "" {
		v.EmployerSubtype = vc.EmployerSubtype
	}
	if len(vc.IncomeFields) > 0 {
		income := make([]entity.IncomeSource, 0, len(vc.IncomeFields))
		for i, pair := range vc.IncomeFields {
			src := entity.IncomeSource{Name: fmt.Sprintf("income_%d", i+1)}
			if len(pair) > 0 {
				src.Fields[0] = pair[0]
			}
			if len(pair) > 1 {
				src.Fields[1] = pair[1]
			}
			income = append(income, src)
		}
		v.Income = income
	}
	if vc.EmployerCode != nil {
		v.EmployerCode = *vc.EmployerCode
	}
	if vc.SelfEmployedCode != nil {
		v.SelfEmployedCode = *vc.SelfEmployedCode
	}
	if vc.EmployerSubtypeCode != nil {
		v.EmployerSubtypeCode = *vc.EmployerSubtypeCode
	}
}

func applyArgs(cfg *entity.RunConfig, args *types.CLIArgs) error {
	if args.SourceRoot != "" {
		cfg.SourceRoot = args.SourceRoot
	}
	if args.LayoutFile != "" {
		cfg.LayoutFile = args.LayoutFile
	}

	switch {
	case len(args.Periods) > 0:
		periods, err := entity.ParsePeriods(args.Periods)
		if err != nil {
			return err
		}
		cfg.Periods = periods
	case args.Year != 0:
		quarters := args.Quarters
		if len(quarters) == 0 {
			quarters = []int{1, 2, 3, 4}
		}
		periods, err := entity.QuartersOf(args.Year, quarters)
		if err != nil {
			return err
		}
		cfg.Periods = periods
	}

	if args.Region != nil {
		cfg.Region = *args.Region
	}
	if args.Dir != "" {
		abs, err := filepath.Abs(args.Dir)
		if err != nil {
			return err
		}
		cfg.Dir = abs
	}
	if args.ReportName != "" {
		cfg.ReportName = args.ReportName
	}
	if len(args.ReportType) > 0 {
		cfg.ReportTypes = args.ReportType
	}
	if args.Workers > 0 {
		cfg.Workers = args.Workers
	}
	if args.S3Bucket != "" {
		cfg.S3Bucket = args.S3Bucket
	}
	if args.S3Prefix != "" {
		cfg.S3Prefix = args.S3Prefix
	}
	if args.AWSProfile != "" {
		cfg.S3Profile = args.AWSProfile
	}
	return nil
}
