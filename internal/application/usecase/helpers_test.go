package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/domain/repository"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// testFields é o layout mínimo usado pelos testes do pacote.
var testFields = []entity.FieldSpec{
	{Name: "UF", Start: 1, Width: 2},
	{Name: "V1028", Start: 3, Width: 6},
	{Name: "V4013", Start: 9, Width: 5, IsText: true},
	{Name: "V4012", Start: 14, Width: 1},
	{Name: "V40161", Start: 15, Width: 1},
	{Name: "V403412", Start: 16, Width: 6},
	{Name: "V403422", Start: 22, Width: 6},
	{Name: "V405112", Start: 28, Width: 6},
	{Name: "V405122", Start: 34, Width: 6},
	{Name: "V405912", Start: 40, Width: 6},
	{Name: "V405922", Start: 46, Width: 6},
}

func testLayout() entity.Layout {
	return entity.NewLayout(append([]entity.FieldSpec(nil), testFields...))
}

// row descreve um registro em termos das variáveis usadas pelo pipeline.
type row struct {
	sector   string
	weight   *float64
	position *float64
	subtype  *float64
	primary  *float64
	extra    map[string]float64
}

func f(v float64) *float64 { return &v }

func numCell(v *float64) entity.Cell {
	if v == nil {
		return entity.Cell{}
	}
	return entity.Cell{Num: entity.Num(*v)}
}

func makeDataset(rows ...row) *entity.Dataset {
	layout := testLayout()
	ds := &entity.Dataset{
		Layout:       layout,
		WeightFields: []string{"V1028"},
		RegionField:  "UF",
		Status:       entity.SourceOK,
	}
	for _, r := range rows {
		rec := make(entity.Record, layout.Len())
		for i := range rec {
			rec[i] = entity.Cell{IsText: layout.Fields[i].IsText}
		}
		idx := func(name string) int {
			i, _ := layout.Index(name)
			return i
		}
		rec[idx("UF")] = entity.Cell{Num: entity.Num(26)}
		rec[idx("V4013")] = entity.Cell{Text: r.sector, IsText: true}
		rec[idx("V1028")] = numCell(r.weight)
		rec[idx("V4012")] = numCell(r.position)
		rec[idx("V40161")] = numCell(r.subtype)
		rec[idx("V403412")] = numCell(r.primary)
		for name, v := range r.extra {
			rec[idx(name)] = numCell(&v)
		}
		ds.Records = append(ds.Records, rec)
	}
	ds.Decoded = len(ds.Records)
	return ds
}

// scenarioRows são os cinco registros do cenário de ponta a ponta.
func scenarioRows() []row {
	return []row{
		{sector: "A", weight: f(10), primary: f(100)},
		{sector: "A", weight: f(20), primary: f(200)},
		{sector: "A", weight: nil, primary: f(50)},
		{sector: "B", weight: f(5), primary: f(1000)},
		{sector: "B", weight: f(5), primary: f(0)},
	}
}

type fakeConsole struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
	infos    []string
	success  []string
	printed  []string
	progress atomic.Int64
	trends   map[string][]types.TrendPoint
}

func (c *fakeConsole) Print(a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printed = append(c.printed, fmt.Sprint(a...))
}

func (c *fakeConsole) Printf(format string, a ...interface{}) {
	c.Print(fmt.Sprintf(format, a...))
}

func (c *fakeConsole) Println(a ...interface{}) {
	c.Print(fmt.Sprintln(a...))
}

func (c *fakeConsole) LogInfo(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.infos = append(c.infos, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogWarning(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogError(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) LogSuccess(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.success = append(c.success, fmt.Sprintf(format, a...))
}

func (c *fakeConsole) Status(string) types.StatusHandle { return nopStatus{} }

func (c *fakeConsole) ProgressWithTotal(int) types.ProgressHandle { return &fakeProgress{c: c} }

func (c *fakeConsole) CreateTable() types.TableInterface { return &fakeTable{} }

func (c *fakeConsole) DisplayTrendBars(title string, points []types.TrendPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trends == nil {
		c.trends = make(map[string][]types.TrendPoint)
	}
	c.trends[title] = points
}

type nopStatus struct{}

func (nopStatus) Update(string) {}
func (nopStatus) Stop()         {}

type fakeProgress struct{ c *fakeConsole }

func (p *fakeProgress) Increment() { p.c.progress.Add(1) }
func (p *fakeProgress) Stop()      {}

type fakeTable struct {
	columns []string
	rows    [][]interface{}
}

func (t *fakeTable) AddColumn(name string, _ ...interface{}) { t.columns = append(t.columns, name) }
func (t *fakeTable) AddRow(cells ...interface{})             { t.rows = append(t.rows, cells) }
func (t *fakeTable) Render() string                          { return fmt.Sprintf("%d rows", len(t.rows)) }

type fakeLayoutRepo struct {
	layout entity.Layout
	err    error
	path   string
}

func (r *fakeLayoutRepo) LoadLayout(path string, _ []string) (entity.Layout, error) {
	r.path = path
	return r.layout, r.err
}

func (r *fakeLayoutRepo) ParseLayout(_ io.Reader, _ []string) (entity.Layout, error) {
	return r.layout, r.err
}

// fakeMicroRepo devolve datasets prontos por rótulo de período; períodos sem
// entrada se comportam como arquivo ausente.
type fakeMicroRepo struct {
	datasets map[string]*entity.Dataset
	errs     map[string]error
	block    map[string]chan struct{}
	calls    atomic.Int64
}

func (r *fakeMicroRepo) Decode(ctx context.Context, _ entity.Layout, period entity.Period, opts repository.DecodeOptions) (*entity.Dataset, error) {
	r.calls.Add(1)
	label := period.Label()
	if ch, ok := r.block[label]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := r.errs[label]; ok {
		return nil, err
	}
	source := filepath.Join(opts.SourceRoot, period.FileName())
	ds, ok := r.datasets[label]
	if !ok {
		return &entity.Dataset{Layout: testLayout(), Source: source, Status: entity.SourceMissing}, nil
	}
	out := *ds
	out.Source = source
	return &out, nil
}

type fakeExportRepo struct {
	mu       sync.Mutex
	exported []string
	failOn   map[string]error
	imported *entity.ConsolidatedTable
}

func (r *fakeExportRepo) export(kind, filename, dir string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failOn[kind]; err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename+"."+kind)
	r.exported = append(r.exported, path)
	return path, nil
}

func (r *fakeExportRepo) ExportToCSV(_ *entity.ConsolidatedTable, filename, dir string) (string, error) {
	return r.export("csv", filename, dir)
}

func (r *fakeExportRepo) ExportToJSON(_ *entity.ConsolidatedTable, filename, dir string) (string, error) {
	return r.export("json", filename, dir)
}

func (r *fakeExportRepo) ExportToPDF(_ *entity.ConsolidatedTable, filename, dir string, _ int) (string, error) {
	return r.export("pdf", filename, dir)
}

func (r *fakeExportRepo) ImportFromCSV(string) (*entity.ConsolidatedTable, error) {
	if r.imported == nil {
		return nil, types.ErrNoData
	}
	return r.imported, nil
}

type fakeTableStore struct {
	saved  []string
	loaded *entity.ConsolidatedTable
	path   string
}

func (s *fakeTableStore) SaveTable(_ *entity.ConsolidatedTable, path string) (string, error) {
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *fakeTableStore) LoadTable(path string) (*entity.ConsolidatedTable, error) {
	s.path = path
	if s.loaded == nil {
		return nil, types.ErrNoData
	}
	return s.loaded, nil
}

type fakePublisher struct {
	target    repository.PublishTarget
	published []string
}

func (p *fakePublisher) GetProfiles() []string {
	return []string{"default", "reports"}
}

func (p *fakePublisher) GetAccountID(context.Context, repository.PublishTarget) (string, error) {
	return "123456789012", nil
}

func (p *fakePublisher) Publish(_ context.Context, target repository.PublishTarget, paths []string) ([]string, error) {
	p.target = target
	var out []string
	for _, path := range paths {
		uri := "s3://" + target.Bucket + "/" + target.Prefix + filepath.Base(path)
		p.published = append(p.published, uri)
		out = append(out, uri)
	}
	return out, nil
}

type fakeConfigRepo struct {
	cfg *types.Config
	err error
}

func (r *fakeConfigRepo) LoadConfigFile(string) (*types.Config, error) {
	return r.cfg, r.err
}

type fixture struct {
	uc        *PipelineUseCase
	console   *fakeConsole
	layout    *fakeLayoutRepo
	micro     *fakeMicroRepo
	export    *fakeExportRepo
	store     *fakeTableStore
	publisher *fakePublisher
	config    *fakeConfigRepo
}

func newFixture() *fixture {
	fx := &fixture{
		console:   &fakeConsole{},
		layout:    &fakeLayoutRepo{layout: testLayout()},
		micro:     &fakeMicroRepo{datasets: map[string]*entity.Dataset{}, errs: map[string]error{}},
		export:    &fakeExportRepo{failOn: map[string]error{}},
		store:     &fakeTableStore{},
		publisher: &fakePublisher{},
		config:    &fakeConfigRepo{},
	}
	fx.uc = NewPipelineUseCase(fx.layout, fx.micro, fx.export, fx.store, fx.publisher, fx.config, fx.console)
	return fx
}
