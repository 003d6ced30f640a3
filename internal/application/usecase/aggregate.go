package usecase

import (
	"sort"
	"strconv"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
)

// sectorSums acumula as somas ponderadas de um setor.
type sectorSums struct {
	totalCount         float64
	totalIncome        float64
	employerCount      float64
	employerIncome     float64
	selfEmployedCount  float64
	selfEmployedIncome float64
}

func (s *sectorSums) add(w entity.Worker) {
	weight := w.Weight.OrZero()
	weighted := weight * w.Income.OrZero()

	s.totalCount += weight
	s.totalIncome += weighted
	if w.Flags.Employer {
		s.employerCount += weight
		s.employerIncome += weighted
	}
	if w.Flags.SelfEmployed {
		s.selfEmployedCount += weight
		s.selfEmployedIncome += weighted
	}
}

func cohortOf(count, income float64) entity.CohortAggregate {
	return entity.CohortAggregate{
		CountWeighted:  count,
		IncomeWeighted: income,
		MeanIncome:     entity.SafeRatio(income, count),
	}
}

// AggregateWorkers agrupa os trabalhadores por CNAE numa única passada e
// devolve uma linha por setor, ordenada pelo código. O rótulo do período fica
// por conta do chamador.
func AggregateWorkers(workers []entity.Worker) []entity.SectorAggregate {
	sums := make(map[string]*sectorSums)
	for _, w := range workers {
		s, ok := sums[w.Sector]
		if !ok {
			s = &sectorSums{}
			sums[w.Sector] = s
		}
		s.add(w)
	}

	codes := make([]string, 0, len(sums))
	for code := range sums {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return lessSectorCode(codes[i], codes[j])
	})

	rows := make([]entity.SectorAggregate, 0, len(codes))
	for _, code := range codes {
		s := sums[code]
		rows = append(rows, entity.SectorAggregate{
			SectorCode:   code,
			Total:        cohortOf(s.totalCount, s.totalIncome),
			Employer:     cohortOf(s.employerCount, s.employerIncome),
			SelfEmployed: cohortOf(s.selfEmployedCount, s.selfEmployedIncome),
		})
	}
	return rows
}

// lessSectorCode puts numeric codes first, by value, then the others in
// lexicographic order.
func lessSectorCode(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
