package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// column resolves a variable name to its position in the layout once.
type column struct {
	idx int
	ok  bool
}

func resolve(l entity.Layout, name string) column {
	idx, ok := l.Index(name)
	return column{idx: idx, ok: ok}
}

func (c column) num(rec entity.Record) entity.Value {
	if !c.ok || rec[c.idx].IsText {
		return entity.Value{}
	}
	return rec[c.idx].Num
}

// code lê um código categórico. O layout do IBGE declara códigos como V4012
// com "$", então células de texto são convertidas apenas para a comparação.
func (c column) code(rec entity.Record) entity.Value {
	if !c.ok {
		return entity.Value{}
	}
	cell := rec[c.idx]
	if !cell.IsText {
		return cell.Num
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell.Text), 64)
	if err != nil {
		return entity.Value{}
	}
	return entity.Num(v)
}

// TransformDataset calcula a renda do trabalho e as flags de coorte de cada
// registro com código de atividade. Registros sem CNAE ficam de fora.
func TransformDataset(ds *entity.Dataset, vars entity.SurveyVariables) ([]entity.Worker, error) {
	if ds.Empty() {
		return nil, nil
	}
	l := ds.Layout

	sector := resolve(l, vars.SectorField)
	if !sector.ok {
		return nil, nil
	}
	weight := resolve(l, vars.PrimaryWeight)
	position := resolve(l, vars.PositionField)
	subtype := resolve(l, vars.EmployerSubtype)

	income := make([][2]column, len(vars.Income))
	for i, src := range vars.Income {
		income[i] = [2]column{resolve(l, src.Fields[0]), resolve(l, src.Fields[1])}
	}

	workers := make([]entity.Worker, 0, len(ds.Records))
	for i, rec := range ds.Records {
		code, ok := sectorCode(rec[sector.idx])
		if !ok {
			continue
		}

		total := 0.0
		for _, pair := range income {
			total += clampIncome(pair[0].num(rec)) + clampIncome(pair[1].num(rec))
		}

		pos := position.code(rec)
		flags := entity.CohortFlags{
			Employer:     pos.Equals(vars.EmployerCode) && subtype.code(rec).Equals(vars.EmployerSubtypeCode),
			SelfEmployed: pos.Equals(vars.SelfEmployedCode),
		}
		if flags.Employer && flags.SelfEmployed {
			return nil, fmt.Errorf("%w: record %d, sector %s", types.ErrCohortConflict, i+1, code)
		}

		workers = append(workers, entity.Worker{
			Sector: code,
			Weight: weight.num(rec),
			Income: entity.Num(total),
			Flags:  flags,
		})
	}
	return workers, nil
}

// clampIncome descarta valores negativos (códigos de não-rendimento) e trata
// ausência como zero.
func clampIncome(v entity.Value) float64 {
	if !v.Valid || v.Float < 0 {
		return 0
	}
	return v.Float
}

func sectorCode(c entity.Cell) (string, bool) {
	if !c.Present() {
		return "", false
	}
	if c.IsText {
		return c.Text, true
	}
	return strconv.FormatFloat(c.Num.Float, 'f', -1, 64), true
}
