package formatter

import (
	"fmt"
	"strings"

	"github.com/calliope-studio/portal/internal/domain"
	"github.com/calliope-studio/portal/internal/mirror"
)

const statusProgressBarWidth = 16

// FormatProjectStatus renders a project's phase pipeline and current-phase
// requirement checklist as a styled dashboard.
func FormatProjectStatus(p *domain.Project, snap *mirror.Snapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n", Bold(p.Name), StatusPill(p.Status)))
	if p.ClientName != "" {
		b.WriteString(Dim("Client: "+p.ClientName) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(RenderPipeline(snap.PhaseKey) + "\n")
	b.WriteString(RenderProgress(float64(snap.ProgressPercent)/100, statusProgressBarWidth) + "\n\n")

	b.WriteString(Header(snap.PhaseName+" checklist") + "\n")
	if len(snap.Requirements) == 0 {
		b.WriteString(Dim("Nothing to do in this phase.") + "\n")
	} else {
		headers := []string{"", "REQUIREMENT", "KIND", ""}
		rows := make([][]string, 0, len(snap.Requirements))
		for _, r := range snap.Requirements {
			gate := Dim("optional")
			if r.Mandatory {
				gate = StyleYellow.Render("required")
			}
			rows = append(rows, []string{
				CheckMark(r.Completed),
				StyleFg.Render(r.Text),
				KindBadge(r.Kind),
				gate,
			})
		}
		b.WriteString(RenderTable(headers, rows))
	}

	return RenderBox("Project status", b.String())
}

// RenderPipeline renders the eight-phase pipeline with the current phase
// highlighted, like  ✔ ONB → ● IDEA → ○ DSGN → ...
func RenderPipeline(current domain.PhaseKey) string {
	currentPhase, err := domain.GetPhase(current)
	if err != nil {
		return StyleRed.Render(fmt.Sprintf("unknown phase %q", current))
	}

	parts := make([]string, 0, 8)
	for _, phase := range domain.Phases() {
		switch {
		case phase.Ordinal < currentPhase.Ordinal:
			parts = append(parts, StyleGreen.Render("✔ "+string(phase.Key)))
		case phase.Ordinal == currentPhase.Ordinal:
			parts = append(parts, StyleHeader.Render("● "+string(phase.Key)))
		default:
			parts = append(parts, StyleDim.Render("○ "+string(phase.Key)))
		}
	}
	return strings.Join(parts, Dim(" → "))
}
