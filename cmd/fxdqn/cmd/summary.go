package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/rustyeddy/fxdqn/agent"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	gainStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	lossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

// marketState is what the environment reports once the agent stops.
type marketState struct {
	Equity    float64
	Remaining int // candles not consumed
	Booked    int // trades closed by the environment
}

func renderSummary(s agent.Summary, train bool, instrument string, m marketState) string {
	mode := "evaluation"
	if train {
		mode = "training"
	}

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}

	net := s.NetPips()
	netStyle := gainStyle
	if net < 0 {
		netStyle = lossStyle
	}
	winRate := 0.0
	if s.Trades > 0 {
		winRate = 100 * float64(s.Won) / float64(s.Trades)
	}

	rows := []string{
		titleStyle.Render(fmt.Sprintf("%s %s", instrument, mode)),
		row("run", s.RunID),
		row("episodes", fmt.Sprintf("%d (%d steps)", s.Episodes, s.Steps)),
		row("trades", fmt.Sprintf("%d won / %d lost (%.1f%%)", s.Won, s.Lost, winRate)),
		lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("net pips"), netStyle.Render(fmt.Sprintf("%+.1f", net))),
		row("balance", fmt.Sprintf("%.2f", s.Balance)),
		row("equity", fmt.Sprintf("%.2f", m.Equity)),
		row("unused", fmt.Sprintf("%d candles", m.Remaining)),
	}
	if train {
		rows = append(rows,
			row("epsilon", fmt.Sprintf("%.4f", s.Epsilon)),
			row("replay", fmt.Sprintf("%d/%d transitions", s.ReplaySize, s.ReplayCap)),
		)
	}
	rows = append(rows, row("checkpoints", fmt.Sprintf("%d", s.Checkpoints)))

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
