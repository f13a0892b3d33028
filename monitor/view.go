package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/robmorgan/hypertone/engine/scale"
)

func (m Model) View() string {
	snap := m.last
	var s strings.Builder

	s.WriteString(titleStyle.Render("hypertone") + " " + m.spinner.View() + "\n\n")

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("BPM", fmt.Sprintf("%.1f", snap.Frame.BPM))
	row("Beat", fmt.Sprintf("%s  bar %3.0f%%", snap.Beat.GetMarker(), snap.Beat.GetBarPhase()*100))
	row("Energy", fmt.Sprintf("%.2f (%s)", snap.Frame.RMS, snap.Memory.EnergyTrend))
	row("Onset", onsetMarker(snap.Frame.Onset.Detected))
	row("Pattern", snap.Pattern)
	row("Mode", snap.Mode.String())
	row("Frames", fmt.Sprintf("%d", m.frames))
	if c := snap.Frame.Color.DownbeatColor; c != "" {
		row("Colour", lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("      ")+" "+c)
	}

	s.WriteString("\n")
	s.WriteString(titleStyle.Render(fmt.Sprintf("Active sequences: %d", len(snap.Active))) + "\n")
	for i, a := range snap.Active {
		if i >= len(m.activeProgress) {
			break
		}
		pct := 0.0
		if a.Duration > 0 {
			pct = float64(a.Elapsed) / float64(a.Duration)
		}
		s.WriteString(fmt.Sprintf("%-16s %s stage %d\n", a.Name, m.activeProgress[i].ViewAs(scale.Unit(pct)), a.Stage+1))
	}

	s.WriteString("\n")
	for _, name := range snap.Parameters() {
		v := snap.Values[name]
		pct := v
		if p, ok := m.profiles[name]; ok {
			pct = scale.ToUnitClamp(p.Min, p.Max)(v)
		}
		marker := " "
		if st, ok := snap.States[name]; ok && st.Gesture != nil {
			marker = "*"
		}
		s.WriteString(fmt.Sprintf("%-12s%s %s %8.3f\n", name, marker, m.paramProgress.ViewAs(pct), v))
	}

	s.WriteString(helpStyle.Render("([,]) reaction -/+  (m)ode  (b)alance  (p)attern  (x) stop sequences  (q)uit"))

	if m.quitting {
		s.WriteString("\n")
	}
	return appStyle.Render(s.String())
}

func onsetMarker(detected bool) string {
	if detected {
		return "●"
	}
	return "○"
}
