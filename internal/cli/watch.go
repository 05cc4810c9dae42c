package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/optimizer"
	"github.com/typeset-tools/autofit/pkg/oracle"
)

// watchRows is how many trace rows the watch view keeps on screen.
const watchRows = 12

// stepMsg drives the search forward one proposal at a time.
type stepMsg struct{}

func stepTick() tea.Cmd {
	return tea.Tick(150*time.Millisecond, func(time.Time) tea.Msg {
		return stepMsg{}
	})
}

// watchModel is the bubbletea model for the stepwise solve view. Each tick
// advances the controller by one proposal and re-renders the trace, so the
// search is visible as it happens.
type watchModel struct {
	ctrl *optimizer.Controller
	est  *oracle.Estimator

	params   layout.Parameters
	st       optimizer.State
	overflow bool

	trace  []optimizer.TraceStep
	result *optimizer.Result
	paused bool
}

func newWatchModel(ctrl *optimizer.Controller, est *oracle.Estimator, initial layout.Parameters) watchModel {
	overflow := est.Overflows(initial)
	return watchModel{
		ctrl:     ctrl,
		est:      est,
		params:   initial,
		st:       optimizer.NewState(overflow),
		overflow: overflow,
	}
}

func (m watchModel) Init() tea.Cmd {
	return stepTick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			if !m.paused && m.result == nil {
				return m, stepTick()
			}
		}

	case stepMsg:
		if m.result != nil || m.paused {
			return m, nil
		}

		res := m.ctrl.Step(m.params, m.st, m.overflow)
		m.st = res.State
		m.trace = append(m.trace, optimizer.TraceStep{
			Step:        m.st.Iterations,
			Phase:       m.st.Phase.String(),
			Mode:        m.st.Mode.String(),
			Search:      m.st.Search.String(),
			FontSizePx:  res.Params.FontSizePx,
			LineSpacing: res.Params.LineSpacing,
			Overflow:    m.overflow,
			Outcome:     res.Outcome.String(),
		})

		if res.Outcome != optimizer.Continue {
			m.result = &res
			return m, tea.Quit
		}

		m.params = res.Params
		m.overflow = m.est.Overflows(m.params)
		return m, stepTick()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Layout search"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("space pause  q quit"))
	b.WriteString("\n\n")

	start := 0
	if len(m.trace) > watchRows {
		start = len(m.trace) - watchRows
	}

	rows := [][]string{}
	for _, ts := range m.trace[start:] {
		fits := StyleSuccess.Render("fits")
		if ts.Overflow {
			fits = StyleWarning.Render("overflow")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", ts.Step),
			ts.Mode,
			ts.Phase,
			ts.Search,
			fmt.Sprintf("%.1f", ts.FontSizePx),
			fmt.Sprintf("%.2f", ts.LineSpacing),
			fits,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Mode", "Phase", "Search", "Font", "Spacing", "Fit").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	switch {
	case m.result == nil && m.paused:
		b.WriteString(StyleDim.Render("  paused"))
	case m.result == nil:
		b.WriteString(StyleDim.Render(fmt.Sprintf("  step %d: testing font %.1fpx, spacing %.2f",
			m.st.Iterations+1, m.params.FontSizePx, m.params.LineSpacing)))
	case m.result.Outcome == optimizer.Done:
		b.WriteString(StyleSuccess.Render("  " + m.result.Message))
	default:
		b.WriteString(StyleWarning.Render("  " + m.result.Message))
	}
	b.WriteString("\n")

	return b.String()
}

// runWatch drives the solve interactively, one proposal per tick.
func (c *CLI) runWatch(ctx context.Context, ranges layout.RangeConfig, profile layout.ContentProfile, est *oracle.Estimator, initial layout.Parameters) error {
	ctrl, err := optimizer.New(ranges, profile, est.Oracle(), c.Logger)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newWatchModel(ctrl, est, initial), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}

	m, ok := final.(watchModel)
	if !ok || m.result == nil {
		printInfo("Search aborted")
		return nil
	}
	if m.result.Outcome != optimizer.Done {
		return fmt.Errorf("%s", m.result.Message)
	}

	printSuccess("Layout fits")
	printKeyValue("font size", fmt.Sprintf("%.1fpx", m.result.Params.FontSizePx))
	printKeyValue("line spacing", fmt.Sprintf("%.2f", m.result.Params.LineSpacing))
	printRunStats(len(m.trace), m.st.ContractViolations, false)
	return nil
}
