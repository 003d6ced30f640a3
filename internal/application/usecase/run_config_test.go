package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

func TestResolveRunConfig_Defaults(t *testing.T) {
	fx := newFixture()

	cfg, err := fx.uc.ResolveRunConfig(&types.CLIArgs{Periods: []string{"1T2021", "2021Q2"}})
	require.NoError(t, err)

	assert.Equal(t, []entity.Period{q1, q2}, cfg.Periods)
	assert.Equal(t, entity.DefaultRegion, cfg.Region)
	assert.Equal(t, entity.DefaultLayoutFile, cfg.LayoutFile)
	assert.Equal(t, entity.DefaultReportName, cfg.ReportName)
	assert.Equal(t, 1, cfg.Workers)
	assert.NotEmpty(t, cfg.Dir)
	assert.Equal(t, entity.DefaultSurveyVariables(), cfg.Variables)
}

func TestResolveRunConfig_NoPeriods(t *testing.T) {
	fx := newFixture()
	_, err := fx.uc.ResolveRunConfig(&types.CLIArgs{})
	require.ErrorIs(t, err, types.ErrNoPeriods)
}

func TestResolveRunConfig_YearShorthand(t *testing.T) {
	fx := newFixture()

	cfg, err := fx.uc.ResolveRunConfig(&types.CLIArgs{Year: 2021})
	require.NoError(t, err)
	assert.Equal(t, []entity.Period{q1, q2, q3, q4}, cfg.Periods)

	cfg, err = fx.uc.ResolveRunConfig(&types.CLIArgs{Year: 2022, Quarters: []int{3}})
	require.NoError(t, err)
	assert.Equal(t, []entity.Period{{Year: 2022, Quarter: 3}}, cfg.Periods)

	_, err = fx.uc.ResolveRunConfig(&types.CLIArgs{Year: 2022, Quarters: []int{5}})
	require.ErrorIs(t, err, types.ErrInvalidPeriod)
}

func TestResolveRunConfig_FlagsOverrideConfigFile(t *testing.T) {
	fx := newFixture()
	employer := 7.0
	fx.config.cfg = &types.Config{
		SourceRoot:    "/srv/pnad",
		Periods:       []string{"3T2020"},
		Region:        35,
		Workers:       2,
		ReportType:    []string{"pdf"},
		MissingTokens: []string{"."},
		Variables: &types.VariableConfig{
			SectorField:  "V4010",
			IncomeFields: [][]string{{"V403312", "V403322"}},
			EmployerCode: &employer,
		},
		S3: &types.S3Config{Bucket: "from-file", Prefix: "pnad/"},
	}

	region := 26
	cfg, err := fx.uc.ResolveRunConfig(&types.CLIArgs{
		ConfigFile: "pnad.toml",
		Region:     &region,
		S3Bucket:   "from-flag",
	})
	require.NoError(t, err)

	assert.Equal(t, "/srv/pnad", cfg.SourceRoot)
	assert.Equal(t, []entity.Period{{Year: 2020, Quarter: 3}}, cfg.Periods)
	assert.Equal(t, 26, cfg.Region)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{"pdf"}, cfg.ReportTypes)
	assert.Equal(t, []string{"."}, cfg.MissingTokens)
	assert.Equal(t, "V4010", cfg.Variables.SectorField)
	assert.Equal(t, 7.0, cfg.Variables.EmployerCode)
	assert.Equal(t, 6.0, cfg.Variables.SelfEmployedCode)
	require.Len(t, cfg.Variables.Income, 1)
	assert.Equal(t, [2]string{"V403312", "V403322"}, cfg.Variables.Income[0].Fields)
	assert.Equal(t, "from-flag", cfg.S3Bucket)
	assert.Equal(t, "pnad/", cfg.S3Prefix)
}

func TestResolveRunConfig_ConfigFileErrors(t *testing.T) {
	fx := newFixture()
	fx.config.err = types.ErrFormat

	_, err := fx.uc.ResolveRunConfig(&types.CLIArgs{ConfigFile: "bad.yaml", Periods: []string{"1T2021"}})
	require.ErrorIs(t, err, types.ErrFormat)

	fx.config.err = nil
	fx.config.cfg = &types.Config{Periods: []string{"2021"}}
	_, err = fx.uc.ResolveRunConfig(&types.CLIArgs{ConfigFile: "bad.yaml"})
	require.ErrorIs(t, err, types.ErrInvalidPeriod)
}
