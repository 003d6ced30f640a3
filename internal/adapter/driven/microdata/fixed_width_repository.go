package microdata

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/domain/repository"
)

// Algumas extrações do IBGE gravam os pesos como inteiros de ponto fixo com
// oito casas decimais. Quando o máximo de um campo de peso passa do limite,
// todo o campo é dividido pelo divisor. Os dois valores valem apenas para
// essa convenção; outra fonte pode exigir constantes diferentes.
const (
	WeightRescaleThreshold = 1e6
	WeightRescaleDivisor   = 1e8
)

const maxLineSize = 4 * 1024 * 1024

// FixedWidthRepositoryImpl implementa o MicrodataRepository para os arquivos
// de largura fixa da PNAD, sempre em ISO-8859-1.
type FixedWidthRepositoryImpl struct{}

// NewMicrodataRepository cria uma nova implementação do MicrodataRepository.
func NewMicrodataRepository() repository.MicrodataRepository {
	return &FixedWidthRepositoryImpl{}
}

// Decode lê o arquivo do período em SourceRoot. Se o arquivo .txt não existir,
// tenta a versão comprimida .txt.gz.
func (r *FixedWidthRepositoryImpl) Decode(
	ctx context.Context,
	layout entity.Layout,
	period entity.Period,
	opts repository.DecodeOptions,
) (*entity.Dataset, error) {
	path := filepath.Join(opts.SourceRoot, period.FileName())

	src, openedPath, status := openSource(path)
	if status != entity.SourceOK {
		ds := emptyDataset(layout, opts)
		ds.Source = path
		ds.Status = status
		return ds, nil
	}
	defer src.Close()

	ds, err := DecodeReader(ctx, layout, src, opts)
	if err != nil {
		var readErr *sourceReadError
		if errors.As(err, &readErr) {
			ds = emptyDataset(layout, opts)
			ds.Source = openedPath
			ds.Status = entity.SourceUnreadable
			return ds, nil
		}
		return nil, fmt.Errorf("error decoding %s: %w", openedPath, err)
	}
	ds.Source = openedPath
	return ds, nil
}

// openSource abre o arquivo e libera o handle assim que a leitura termina
// (via Close do chamador).
func openSource(path string) (io.ReadCloser, string, entity.SourceStatus) {
	file, err := os.Open(path)
	if err == nil {
		return file, path, entity.SourceOK
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, path, entity.SourceUnreadable
	}

	gzPath := path + ".gz"
	gzFile, err := os.Open(gzPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, path, entity.SourceMissing
		}
		return nil, gzPath, entity.SourceUnreadable
	}
	zr, err := gzip.NewReader(gzFile)
	if err != nil {
		gzFile.Close()
		return nil, gzPath, entity.SourceUnreadable
	}
	return &gzipFile{Reader: zr, file: gzFile}, gzPath, entity.SourceOK
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.file.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}

type sourceReadError struct {
	err error
}

func (e *sourceReadError) Error() string { return "error reading source: " + e.err.Error() }
func (e *sourceReadError) Unwrap() error { return e.err }

func emptyDataset(layout entity.Layout, opts repository.DecodeOptions) *entity.Dataset {
	return &entity.Dataset{
		Layout:       layout,
		WeightFields: opts.WeightFields,
		RegionField:  opts.RegionField,
		Status:       entity.SourceOK,
	}
}

// DecodeReader decodifica linhas de largura fixa conforme o layout, aplica o
// reescalonamento dos pesos sobre o arquivo inteiro e depois o filtro de UF.
func DecodeReader(ctx context.Context, layout entity.Layout, src io.Reader, opts repository.DecodeOptions) (*entity.Dataset, error) {
	ds := emptyDataset(layout, opts)
	missing := newTokenSet(opts.MissingTokens)
	dec := charmap.ISO8859_1.NewDecoder()

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []entity.Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := bytes.TrimRight(scanner.Bytes(), "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		rec := make(entity.Record, layout.Len())
		for i, f := range layout.Fields {
			rec[i] = decodeCell(line, f, missing, dec)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &sourceReadError{err: err}
	}

	ds.Decoded = len(records)
	rescaleWeights(layout, records, opts.WeightFields)
	ds.Records = filterRegion(layout, records, opts.RegionField, opts.Region)
	return ds, nil
}

// decodeCell extrai [start-1, start-1+width) da linha, recortado ao tamanho dela.
func decodeCell(line []byte, f entity.FieldSpec, missing tokenSet, dec *encoding.Decoder) entity.Cell {
	cell := entity.Cell{IsText: f.IsText}

	from := f.Start - 1
	to := f.End()
	if from >= len(line) {
		return cell
	}
	if to > len(line) {
		to = len(line)
	}
	raw := line[from:to]
	token := bytes.TrimSpace(raw)
	if missing.has(raw) || missing.has(token) {
		return cell
	}

	if f.IsText {
		cell.Text = latin1String(token, dec)
		return cell
	}

	v, err := strconv.ParseFloat(string(token), 64)
	if err != nil {
		return cell
	}
	cell.Num = entity.Num(v)
	return cell
}

func latin1String(b []byte, dec *encoding.Decoder) string {
	for _, c := range b {
		if c >= 0x80 {
			out, err := dec.Bytes(b)
			if err != nil {
				return string(b)
			}
			return string(out)
		}
	}
	return string(b)
}

// rescaleWeights divide por WeightRescaleDivisor os campos de peso cujo máximo
// passa de WeightRescaleThreshold. Campos ausentes ou só com valores faltantes
// ficam como estão.
func rescaleWeights(layout entity.Layout, records []entity.Record, fields []string) {
	for _, name := range fields {
		idx, ok := layout.Index(name)
		if !ok || layout.Fields[idx].IsText {
			continue
		}

		found := false
		max := 0.0
		for _, rec := range records {
			v := rec[idx].Num
			if !v.Valid {
				continue
			}
			if !found || v.Float > max {
				max = v.Float
				found = true
			}
		}
		if !found || max <= WeightRescaleThreshold {
			continue
		}

		for _, rec := range records {
			if rec[idx].Num.Valid {
				rec[idx].Num = entity.Num(rec[idx].Num.Float / WeightRescaleDivisor)
			}
		}
	}
}

// filterRegion mantém só os registros da UF alvo. Sem o campo de UF no
// layout, nada é filtrado.
func filterRegion(layout entity.Layout, records []entity.Record, field string, region int) []entity.Record {
	idx, ok := layout.Index(field)
	if field == "" || !ok {
		return records
	}

	target := strconv.Itoa(region)
	kept := make([]entity.Record, 0, len(records))
	for _, rec := range records {
		c := rec[idx]
		if c.IsText {
			if c.Text == target {
				kept = append(kept, rec)
			} else if n, err := strconv.Atoi(c.Text); err == nil && n == region {
				kept = append(kept, rec)
			}
			continue
		}
		if c.Num.Equals(float64(region)) {
			kept = append(kept, rec)
		}
	}
	return kept
}

type tokenSet map[string]struct{}

func newTokenSet(tokens []string) tokenSet {
	if tokens == nil {
		tokens = entity.DefaultMissingTokens
	}
	set := make(tokenSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func (s tokenSet) has(b []byte) bool {
	_, ok := s[string(b)]
	return ok
}
