package console

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/pterm/pterm"

	"github.com/diillson/pnad-income-go/internal/shared/types"
)

// Console é uma implementação do ConsoleInterface.
type Console struct{}

// NewConsole cria um novo Console.
func NewConsole() *Console {
	return &Console{}
}

// Print imprime no console.
func (c *Console) Print(a ...interface{}) {
	fmt.Print(a...)
}

// Printf imprime uma string formatada no console.
func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
}

// Println imprime no console com uma nova linha.
func (c *Console) Println(a ...interface{}) {
	fmt.Println(a...)
}

// LogInfo registra uma mensagem de informação.
func (c *Console) LogInfo(format string, a ...interface{}) {
	pterm.Info.Printfln(format, a...)
}

// LogWarning registra uma mensagem de aviso.
func (c *Console) LogWarning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

// LogError registra uma mensagem de erro.
func (c *Console) LogError(format string, a ...interface{}) {
	pterm.Error.Printfln(format, a...)
}

// LogSuccess registra uma mensagem de sucesso.
func (c *Console) LogSuccess(format string, a ...interface{}) {
	pterm.Success.Printfln(format, a...)
}

// statusHandle é uma implementação do StatusHandle.
type statusHandle struct {
	spinner *pterm.SpinnerPrinter
}

// Status cria um spinner de status com a mensagem especificada.
func (c *Console) Status(message string) types.StatusHandle {
	spinner, _ := pterm.DefaultSpinner.Start(message)
	return &statusHandle{spinner: spinner}
}

// Update atualiza a mensagem de status.
func (h *statusHandle) Update(message string) {
	if h.spinner != nil {
		h.spinner.UpdateText(message)
	}
}

// Stop pára o spinner de status.
func (h *statusHandle) Stop() {
	if h.spinner != nil {
		h.spinner.Stop()
	}
}

// progressHandle é uma implementação do ProgressHandle. O mutex permite que
// vários workers incrementem a mesma barra.
type progressHandle struct {
	mu  sync.Mutex
	bar *pterm.ProgressbarPrinter
}

// ProgressWithTotal cria uma barra de progresso com o total de períodos.
func (c *Console) ProgressWithTotal(total int) types.ProgressHandle {
	bar, _ := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle("Processing periods").
		WithShowElapsedTime(true).
		WithShowCount(true).
		WithRemoveWhenDone(false). // Manter a barra após concluir
		Start()
	return &progressHandle{bar: bar}
}

// Increment incrementa a barra de progresso.
func (h *progressHandle) Increment() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bar != nil {
		h.bar.Increment()
	}
}

// Stop pára a barra de progresso.
func (h *progressHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bar != nil {
		h.bar.Stop()
		h.bar = nil
	}
}

// Table é uma implementação do TableInterface.
type Table struct {
	columns []string
	rows    [][]string
}

// CreateTable cria uma nova tabela.
func (c *Console) CreateTable() types.TableInterface {
	return &Table{
		columns: []string{},
		rows:    [][]string{},
	}
}

// AddColumn adiciona uma coluna à tabela.
func (t *Table) AddColumn(name string, options ...interface{}) {
	t.columns = append(t.columns, name)
}

// AddRow adiciona uma linha à tabela.
func (t *Table) AddRow(cells ...interface{}) {
	// Convertemos cada célula para string
	processedCells := make([]string, len(cells))
	for i, cell := range cells {
		processedCells[i] = fmt.Sprint(cell)
	}
	t.rows = append(t.rows, processedCells)
}

// Render renderiza a tabela como uma string.
func (t *Table) Render() string {
	tableData := pterm.TableData{t.columns}
	for _, row := range t.rows {
		tableData = append(tableData, row)
	}

	table := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData)

	renderedTable, _ := table.Srender()
	return renderedTable
}

// DisplayTrendBars exibe a evolução de um valor por período em barras.
// Aumentos aparecem em verde e quedas em vermelho.
func (c *Console) DisplayTrendBars(title string, points []types.TrendPoint) {
	fmt.Println("\n" + renderTrend(title, points))
}

func renderTrend(title string, points []types.TrendPoint) string {
	maxValue := 0.0
	for _, p := range points {
		if p.Value > maxValue {
			maxValue = p.Value
		}
	}

	if maxValue == 0 {
		return pterm.Warning.Sprint("All values are 0.00 for this selection")
	}

	tableData := pterm.TableData{
		{"Period", "Value", "", "Change"},
	}

	var prev *float64
	for _, p := range points {
		barLength := int((p.Value / maxValue) * 40)
		bar := strings.Repeat("█", barLength)

		barColor := pterm.FgBlue.Sprint(bar)
		change := ""

		if prev != nil {
			if *prev < 0.01 {
				if p.Value < 0.01 {
					change = pterm.FgYellow.Sprint("0%")
					barColor = pterm.FgYellow.Sprint(bar)
				} else {
					change = pterm.FgGreen.Sprint("N/A")
					barColor = pterm.FgGreen.Sprint(bar)
				}
			} else {
				changePercent := ((p.Value - *prev) / *prev) * 100.0

				if math.Abs(changePercent) < 0.01 {
					change = pterm.FgYellow.Sprintf("0%%")
					barColor = pterm.FgYellow.Sprint(bar)
				} else if math.Abs(changePercent) > 999 {
					if changePercent > 0 {
						change = pterm.FgGreen.Sprint(">+999%")
						barColor = pterm.FgGreen.Sprint(bar)
					} else {
						change = pterm.FgRed.Sprint(">-999%")
						barColor = pterm.FgRed.Sprint(bar)
					}
				} else if changePercent > 0 {
					change = pterm.FgGreen.Sprintf("+%.2f%%", changePercent)
					barColor = pterm.FgGreen.Sprint(bar)
				} else {
					change = pterm.FgRed.Sprintf("%.2f%%", changePercent)
					barColor = pterm.FgRed.Sprint(bar)
				}
			}
		}

		tableData = append(tableData, []string{
			p.Label,
			fmt.Sprintf("%.2f", p.Value),
			barColor,
			change,
		})

		current := p.Value
		prev = &current
	}

	table := pterm.DefaultTable.WithHasHeader().WithData(tableData)
	renderedTable, _ := table.Srender()

	return pterm.DefaultBox.WithTitle(title).WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).Sprint(renderedTable)
}
