package entity

// IncomeSource is one income component made of two raw sub-fields.
type IncomeSource struct {
	Name   string
	Fields [2]string
}

// SurveyVariables names the microdata variables the pipeline reads and the
// codes that define each cohort.
type SurveyVariables struct {
	WeightFields    []string
	PrimaryWeight   string
	RegionField     string
	SectorField     string
	PositionField   string
	EmployerSubtype string
	Income          []IncomeSource

	EmployerCode        float64
	SelfEmployedCode    float64
	EmployerSubtypeCode float64
}

// DefaultSurveyVariables returns the PNAD Contínua variable names.
func DefaultSurveyVariables() SurveyVariables {
	return SurveyVariables{
		WeightFields:    []string{"V1028", "V1027"},
		PrimaryWeight:   "V1028",
		RegionField:     "UF",
		SectorField:     "V4013",
		PositionField:   "V4012",
		EmployerSubtype: "V40161",
		Income: []IncomeSource{
			{Name: "primary", Fields: [2]string{"V403412", "V403422"}},
			{Name: "secondary", Fields: [2]string{"V405112", "V405122"}},
			{Name: "other", Fields: [2]string{"V405912", "V405922"}},
		},
		EmployerCode:        5,
		SelfEmployedCode:    6,
		EmployerSubtypeCode: 1,
	}
}

// Clone returns a deep copy.
func (v SurveyVariables) Clone() SurveyVariables {
	out := v
	out.WeightFields = append([]string(nil), v.WeightFields...)
	out.Income = append([]IncomeSource(nil), v.Income...)
	return out
}
