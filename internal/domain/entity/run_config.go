package entity

// Default values used when neither flags nor the config file set them.
const (
	DefaultRegion     = 26 // Pernambuco
	DefaultLayoutFile = "layout_pnad.txt"
	DefaultReportName = "consolidated_income_by_sector"
)

// DefaultLayoutEncodings is the order in which layout encodings are tried.
var DefaultLayoutEncodings = []string{"utf-8", "ISO-8859-1", "cp1252"}

// DefaultMissingTokens are the raw tokens decoded as missing.
var DefaultMissingTokens = []string{"", " ", "NA", "NaN"}

// RunConfig is the resolved configuration of one pipeline run.
type RunConfig struct {
	SourceRoot      string
	LayoutFile      string
	LayoutEncodings []string
	Periods         []Period
	Region          int
	MissingTokens   []string
	Variables       SurveyVariables
	Workers         int

	Dir         string
	ReportName  string
	ReportTypes []string

	S3Bucket  string
	S3Prefix  string
	S3Profile string
	S3Region  string
}

// DefaultRunConfig returns a RunConfig with every default filled in.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		LayoutFile:      DefaultLayoutFile,
		LayoutEncodings: append([]string(nil), DefaultLayoutEncodings...),
		Region:          DefaultRegion,
		MissingTokens:   append([]string(nil), DefaultMissingTokens...),
		Variables:       DefaultSurveyVariables(),
		Workers:         1,
		ReportName:      DefaultReportName,
		ReportTypes:     []string{"csv", "json"},
	}
}
