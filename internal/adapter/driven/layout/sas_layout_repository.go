package layout

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/diillson/pnad-income-go/internal/domain/entity"
	"github.com/diillson/pnad-income-go/internal/domain/repository"
	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// SASLayoutRepositoryImpl lê layouts no formato de INPUT do SAS, uma diretiva
// por linha: "@0001 Ano $4. /* Ano de referência */".
type SASLayoutRepositoryImpl struct{}

// NewLayoutRepository cria uma nova implementação do LayoutRepository.
func NewLayoutRepository() repository.LayoutRepository {
	return &SASLayoutRepositoryImpl{}
}

var (
	directiveRegex = regexp.MustCompile(`^@\s*(\d+)\s+([A-Za-z0-9_]+)\s+(\$?)(\d+)\.`)
	commentRegex   = regexp.MustCompile(`/\*.*?\*/`)
)

// LoadLayout abre o arquivo de layout e extrai as especificações de campo.
func (r *SASLayoutRepositoryImpl) LoadLayout(path string, encodings []string) (entity.Layout, error) {
	file, err := os.Open(path)
	if err != nil {
		return entity.Layout{}, fmt.Errorf("error opening layout file: %w", err)
	}
	defer file.Close()

	l, err := r.ParseLayout(file, encodings)
	if err != nil {
		return entity.Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// ParseLayout decodifica o conteúdo com a primeira codificação válida e
// extrai as diretivas na ordem em que aparecem.
func (r *SASLayoutRepositoryImpl) ParseLayout(src io.Reader, encodings []string) (entity.Layout, error) {
	raw, err := io.ReadAll(src)
	if err != nil {
		return entity.Layout{}, fmt.Errorf("error reading layout: %w", err)
	}
	if len(encodings) == 0 {
		encodings = entity.DefaultLayoutEncodings
	}

	text, err := decodeFirst(raw, encodings)
	if err != nil {
		return entity.Layout{}, err
	}

	var fields []entity.FieldSpec
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if spec, ok := parseDirective(scanner.Text()); ok {
			fields = append(fields, spec)
		}
	}
	if err := scanner.Err(); err != nil {
		return entity.Layout{}, fmt.Errorf("error scanning layout: %w", err)
	}

	if len(fields) == 0 {
		return entity.Layout{}, fmt.Errorf("%w: no field specification found in layout", types.ErrFormat)
	}
	return entity.NewLayout(fields), nil
}

// parseDirective interpreta uma linha; linhas fora da gramática são ignoradas.
func parseDirective(line string) (entity.FieldSpec, bool) {
	line = strings.TrimSpace(line)
	if strings.Contains(line, "/*") {
		line = strings.TrimSpace(commentRegex.ReplaceAllString(line, ""))
	}
	if line == "" || !strings.HasPrefix(line, "@") {
		return entity.FieldSpec{}, false
	}

	m := directiveRegex.FindStringSubmatch(line)
	if m == nil {
		return entity.FieldSpec{}, false
	}
	start, err := strconv.Atoi(m[1])
	if err != nil || start < 1 {
		return entity.FieldSpec{}, false
	}
	width, err := strconv.Atoi(m[4])
	if err != nil || width < 1 {
		return entity.FieldSpec{}, false
	}

	return entity.FieldSpec{
		Name:   m[2],
		Start:  start,
		Width:  width,
		IsText: m[3] == "$",
	}, true
}

// decodeFirst tenta cada codificação em ordem e devolve o primeiro texto
// decodificado sem erro.
func decodeFirst(raw []byte, encodings []string) (string, error) {
	var lastErr error
	for _, name := range encodings {
		text, err := Decode(raw, name)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w (tried %s): %v", types.ErrEncoding, strings.Join(encodings, ", "), lastErr)
}

// Decode converte bytes na codificação informada para UTF-8. Bytes sem
// mapeamento na codificação contam como erro.
func Decode(raw []byte, name string) (string, error) {
	switch normalizeEncodingName(name) {
	case "utf-8":
		out, _, err := transform.Bytes(encoding.UTF8Validator, raw)
		if err != nil {
			return "", fmt.Errorf("utf-8: %w", err)
		}
		return strings.TrimPrefix(string(out), "\ufeff"), nil
	case "iso-8859-1":
		return decodeSingleByte(raw, charmap.ISO8859_1, name)
	case "iso-8859-15":
		return decodeSingleByte(raw, charmap.ISO8859_15, name)
	case "windows-1252":
		return decodeSingleByte(raw, charmap.Windows1252, name)
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", fmt.Errorf("unsupported encoding %q", name)
	}
	return decodeSingleByte(raw, enc, name)
}

func decodeSingleByte(raw []byte, enc encoding.Encoding, name string) (string, error) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) && !bytes.ContainsRune(raw, utf8.RuneError) {
		return "", fmt.Errorf("%s: input has bytes with no mapping", name)
	}
	return string(out), nil
}

func normalizeEncodingName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "utf-8", "utf8":
		return "utf-8"
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1", "l1":
		return "iso-8859-1"
	case "iso-8859-15", "iso8859-15", "latin9", "latin-9":
		return "iso-8859-15"
	case "cp1252", "windows-1252", "win1252":
		return "windows-1252"
	}
	return n
}
