package monitor

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/robmorgan/hypertone/compositor"
	"github.com/robmorgan/hypertone/engine"
	"golang.org/x/exp/slices"
)

const reactionStep = 0.1

var modeCycle = []compositor.ControlMode{
	compositor.ManualBoth,
	compositor.ManualReactions,
	compositor.ManualChoreography,
	compositor.FullAuto,
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "[":
			m.send(adjustReaction(-reactionStep))
		case "]":
			m.send(adjustReaction(reactionStep))
		case "m":
			m.send(setMode(nextMode(m.last.Mode)))
		case "b":
			m.send(toggleBalance)
		case "p":
			if next, ok := m.nextPattern(); ok {
				m.send(func(e *engine.Engine) {
					_ = e.Orchestrator().SetPattern(next)
				})
			}
		case "x":
			m.send(func(e *engine.Engine) {
				e.Orchestrator().StopAll()
			})
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case snapshotMsg:
		m.last = engine.Snapshot(msg)
		m.frames++
		return m, waitForSnapshot(m.sub)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) send(cmd engine.Command) {
	if m.submit != nil {
		m.submit(cmd)
	}
}

func (m Model) nextPattern() (string, bool) {
	if len(m.patterns) == 0 {
		return "", false
	}
	i := slices.Index(m.patterns, m.last.Pattern)
	return m.patterns[(i+1)%len(m.patterns)], true
}

func nextMode(current compositor.ControlMode) compositor.ControlMode {
	i := slices.Index(modeCycle, current)
	return modeCycle[(i+1)%len(modeCycle)]
}

func adjustReaction(delta float64) engine.Command {
	return func(e *engine.Engine) {
		c := e.Compositor()
		v := c.Settings().ReactionAmount + delta
		if v < 0 {
			v = 0
		}
		c.SetReactionAmount(v)
	}
}

func setMode(mode compositor.ControlMode) engine.Command {
	return func(e *engine.Engine) {
		e.Compositor().SetMode(mode)
	}
}

func toggleBalance(e *engine.Engine) {
	c := e.Compositor()
	if c.Settings().Balance == compositor.Normalized {
		c.SetBalance(compositor.Independent)
	} else {
		c.SetBalance(compositor.Normalized)
	}
}
