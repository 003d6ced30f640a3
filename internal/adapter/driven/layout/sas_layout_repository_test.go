package layout

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

const pnadLayoutSample = `/* Layout PNAD Contínua - leitura em SAS */
data pnadc;
infile "PNADC_012021.txt" lrecl=1000 missover;
input
@0001 Ano $4. /* Ano de referência */
@0005 Trimestre $1. /* Trimestre de referência */
@0006 UF $2. /* Unidade da Federação */
@0050 V1027 15. /* Peso sem calibração */
@0065 V1028 15. /* Peso com calibração */
@0143 V4012 $1. /* Posição na ocupação */
@0146 V40161 $1.
@0150 V4013 $5. /* Código da atividade */
;
run;
`

func TestParseLayout_PNADSample(t *testing.T) {
	repo := NewLayoutRepository()

	l, err := repo.ParseLayout(strings.NewReader(pnadLayoutSample), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ano", "Trimestre", "UF", "V1027", "V1028", "V4012", "V40161", "V4013"}, l.Names())
	assert.Equal(t, entity.FieldSpec{Name: "V1028", Start: 65, Width: 15, IsText: false}, l.Fields[4])
	assert.Equal(t, entity.FieldSpec{Name: "V4012", Start: 143, Width: 1, IsText: true}, l.Fields[5])
	assert.Equal(t, entity.FieldSpec{Name: "V4013", Start: 150, Width: 5, IsText: true}, l.Fields[7])
}

func TestParseLayout_RoundTripSynthetic(t *testing.T) {
	repo := NewLayoutRepository()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 20; run++ {
		var want []entity.FieldSpec
		var buf strings.Builder
		offset := 1
		n := 1 + rng.Intn(40)
		for i := 0; i < n; i++ {
			spec := entity.FieldSpec{
				Name:   fmt.Sprintf("VAR_%d_%d", run, i),
				Start:  offset,
				Width:  1 + rng.Intn(15),
				IsText: rng.Intn(2) == 0,
			}
			offset += spec.Width
			want = append(want, spec)

			marker := ""
			if spec.IsText {
				marker = "$"
			}
			fmt.Fprintf(&buf, "@%04d %s %s%d.\n", spec.Start, spec.Name, marker, spec.Width)
			if rng.Intn(3) == 0 {
				buf.WriteString("* a line the grammar does not know\n")
			}
		}

		l, err := repo.ParseLayout(strings.NewReader(buf.String()), nil)
		require.NoError(t, err)
		assert.Equal(t, want, l.Fields)
	}
}

func TestParseLayout_InlineCommentStripped(t *testing.T) {
	repo := NewLayoutRepository()

	plain, err := repo.ParseLayout(strings.NewReader("@0150 V4013 $5.\n"), nil)
	require.NoError(t, err)

	commented, err := repo.ParseLayout(strings.NewReader("@0150 /* código */ V4013 $5. /* CNAE */\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, plain.Fields, commented.Fields)
}

func TestParseLayout_SkipsUnknownLines(t *testing.T) {
	repo := NewLayoutRepository()
	src := "INPUT @1 DUPERSID $8.\n@0009 AGE 3.\n   \nlength x 8;\n@bad line\n@0012 SEX 1.\n"

	l, err := repo.ParseLayout(strings.NewReader(src), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"AGE", "SEX"}, l.Names())
}

func TestParseLayout_Latin1Fallback(t *testing.T) {
	repo := NewLayoutRepository()
	// "Ocupação" em ISO-8859-1 não é UTF-8 válido.
	src := []byte("/* Ocupa\xe7\xe3o */\n@0001 V4012 1. /* Posi\xe7\xe3o */\n")

	l, err := repo.ParseLayout(bytes.NewReader(src), []string{"utf-8", "ISO-8859-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"V4012"}, l.Names())
}

func TestParseLayout_EncodingError(t *testing.T) {
	repo := NewLayoutRepository()
	src := []byte("@0001 V4012 1. /* Posi\xe7\xe3o */\n")

	_, err := repo.ParseLayout(bytes.NewReader(src), []string{"utf-8"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrEncoding)
}

func TestParseLayout_FormatError(t *testing.T) {
	repo := NewLayoutRepository()

	_, err := repo.ParseLayout(strings.NewReader("/* nada */\ndata x;\nrun;\n"), nil)
	assert.ErrorIs(t, err, types.ErrFormat)

	_, err = repo.ParseLayout(strings.NewReader(""), nil)
	assert.ErrorIs(t, err, types.ErrFormat)
}

func TestLoadLayout_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout_pnad.txt")
	require.NoError(t, os.WriteFile(path, []byte(pnadLayoutSample), 0644))

	l, err := NewLayoutRepository().LoadLayout(path, entity.DefaultLayoutEncodings)
	require.NoError(t, err)
	assert.Equal(t, 8, l.Len())
	assert.Empty(t, l.Overlaps())

	_, err = NewLayoutRepository().LoadLayout(filepath.Join(t.TempDir(), "none.txt"), nil)
	assert.Error(t, err)
}

func TestDecode_Encodings(t *testing.T) {
	text, err := Decode([]byte("\xefbom"), "latin1")
	require.NoError(t, err)
	assert.Equal(t, "ïbom", text)

	text, err = Decode([]byte("\xef\xbb\xbf@0001 A 1."), "UTF-8")
	require.NoError(t, err)
	assert.Equal(t, "@0001 A 1.", text)

	_, err = Decode([]byte{'@', 0xff, 0xfe}, "utf-8")
	assert.Error(t, err)

	_, err = Decode([]byte("x"), "no-such-encoding")
	assert.Error(t, err)
}
