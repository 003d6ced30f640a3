package types

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	SourceRoot      string          `json:"source_root" yaml:"source_root" toml:"source_root"`
	LayoutFile      string          `json:"layout_file" yaml:"layout_file" toml:"layout_file"`
	LayoutEncodings []string        `json:"layout_encodings" yaml:"layout_encodings" toml:"layout_encodings"`
	Periods         []string        `json:"periods" yaml:"periods" toml:"periods"`
	Region          int             `json:"region" yaml:"region" toml:"region"`
	Dir             string          `json:"dir" yaml:"dir" toml:"dir"`
	ReportName      string          `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType      []string        `json:"report_type" yaml:"report_type" toml:"report_type"`
	Workers         int             `json:"workers" yaml:"workers" toml:"workers"`
	MissingTokens   []string        `json:"missing_tokens" yaml:"missing_tokens" toml:"missing_tokens"`
	Variables       *VariableConfig `json:"variables,omitempty" yaml:"variables,omitempty" toml:"variables,omitempty"`
	S3              *S3Config       `json:"s3,omitempty" yaml:"s3,omitempty" toml:"s3,omitempty"`
}

// VariableConfig overrides the survey variable names and cohort codes.
// Empty fields keep the PNAD defaults.
type VariableConfig struct {
	WeightFields        []string   `json:"weight_fields" yaml:"weight_fields" toml:"weight_fields"`
	PrimaryWeight       string     `json:"primary_weight" yaml:"primary_weight" toml:"primary_weight"`
	RegionField         string     `json:"region_field" yaml:"region_field" toml:"region_field"`
	SectorField         string     `json:"sector_field" yaml:"sector_field" toml:"sector_field"`
	PositionField       string     `json:"position_field" yaml:"position_field" toml:"position_field"`
	EmployerSubtype     string     `json:"employer_subtype_field" yaml:"employer_subtype_field" toml:"employer_subtype_field"`
	IncomeFields        [][]string `json:"income_fields" yaml:"income_fields" toml:"income_fields"`
	EmployerCode        *float64   `json:"employer_code,omitempty" yaml:"employer_code,omitempty" toml:"employer_code,omitempty"`
	SelfEmployedCode    *float64   `json:"self_employed_code,omitempty" yaml:"self_employed_code,omitempty" toml:"self_employed_code,omitempty"`
	EmployerSubtypeCode *float64   `json:"employer_subtype_code,omitempty" yaml:"employer_subtype_code,omitempty" toml:"employer_subtype_code,omitempty"`
}

// S3Config configures publishing of the generated artifacts to a bucket.
type S3Config struct {
	Bucket  string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Prefix  string `json:"prefix" yaml:"prefix" toml:"prefix"`
	Profile string `json:"profile" yaml:"profile" toml:"profile"`
	Region  string `json:"region" yaml:"region" toml:"region"`
}
