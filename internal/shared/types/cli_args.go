package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile string
	SourceRoot string
	LayoutFile string
	Periods    []string
	Year       int
	Quarters   []int
	Region     *int
	ReportName string
	ReportType []string
	Dir        string
	Workers    int
	S3Bucket   string
	S3Prefix   string
	AWSProfile string
}
