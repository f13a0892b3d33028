package monitor

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/robmorgan/hypertone/engine"
	"github.com/robmorgan/hypertone/profile"
)

// MaxActiveSequences is the number of running sequences shown with a progress bar.
const MaxActiveSequences = 6

// Submit hands a command to the runner owning the engine.
type Submit func(cmd engine.Command)

// Model is the bubbletea model of the terminal monitor.
type Model struct {
	sub      <-chan engine.Snapshot
	submit   Submit
	profiles map[string]profile.Profile
	patterns []string

	spinner        spinner.Model
	paramProgress  progress.Model
	activeProgress []progress.Model // we reuse a pool of progress bars for active sequences

	last     engine.Snapshot
	frames   int
	quitting bool
}

// New creates a monitor reading snapshots from sub. patterns lists the names cycled by the pattern key.
func New(sub <-chan engine.Snapshot, submit Submit, profiles map[string]profile.Profile, patterns []string) Model {
	s := spinner.New()
	s.Style = spinnerStyle

	pp := make([]progress.Model, 0, MaxActiveSequences)
	for i := 0; i < MaxActiveSequences; i++ {
		pp = append(pp, progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		))
	}

	return Model{
		sub:      sub,
		submit:   submit,
		profiles: profiles,
		patterns: patterns,
		spinner:  s,
		paramProgress: progress.New(
			progress.WithSolidFill("63"),
			progress.WithWidth(24),
			progress.WithoutPercentage(),
		),
		activeProgress: pp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.sub), m.spinner.Tick)
}

type snapshotMsg engine.Snapshot

// waitForSnapshot blocks until the next snapshot arrives.
func waitForSnapshot(sub <-chan engine.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub
		if !ok {
			return tea.Quit()
		}
		return snapshotMsg(snap)
	}
}

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(14)
	valueStyle   = lipgloss.NewStyle().Bold(true)
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	appStyle     = lipgloss.NewStyle().Margin(1, 2, 0, 2)
)
