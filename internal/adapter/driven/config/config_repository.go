package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/domain/repository"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// ReportTypes são os formatos de saída aceitos em report_type.
var ReportTypes = []string{"csv", "json", "pdf", "sqlite"}

type decoder struct {
	format    string
	unmarshal func(data []byte, v interface{}) error
}

var decoders = map[string]decoder{
	".toml": {"TOML", toml.Unmarshal},
	".yaml": {"YAML", yaml.Unmarshal},
	".yml":  {"YAML", yaml.Unmarshal},
	".json": {"JSON", json.Unmarshal},
}

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct{}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{}
}

// LoadConfigFile carrega um arquivo TOML, YAML ou JSON e valida os valores
// que não dependem das flags: períodos, formatos de saída, workers e pares de
// renda.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	dec, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported config file format: %s", types.ErrFormat, ext)
	}

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config types.Config
	if err := dec.unmarshal(fileData, &config); err != nil {
		return nil, fmt.Errorf("error parsing %s file: %w", dec.format, err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return &config, nil
}

func validate(cfg *types.Config) error {
	if _, err := entity.ParsePeriods(cfg.Periods); err != nil {
		return err
	}
	for _, rt := range cfg.ReportType {
		if !slices.Contains(ReportTypes, rt) {
			return fmt.Errorf("%w: unknown report type %q (expected %s)", types.ErrFormat, rt, strings.Join(ReportTypes, ", "))
		}
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", types.ErrFormat, cfg.Workers)
	}
	if cfg.Region < 0 {
		return fmt.Errorf("%w: invalid region %d", types.ErrFormat, cfg.Region)
	}
	if cfg.Variables != nil {
		for i, pair := range cfg.Variables.IncomeFields {
			if len(pair) != 2 {
				return fmt.Errorf("%w: income_fields[%d] must name two fields, got %d", types.ErrFormat, i, len(pair))
			}
		}
	}
	return nil
}
