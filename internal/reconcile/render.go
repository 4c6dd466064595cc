package reconcile

import (
	"strings"
	"time"

	"github.com/steveyegge/pikpoint/internal/types"
)

const dueDateLayout = "2006-01-02"

// StoryText renders the card text for a project: bold name, folder, italic
// context and the due date, one per line, skipping empty lines.
func StoryText(p *types.SourceProject, now time.Time, dueSoon time.Duration) string {
	var lines []string
	if p.Name != "" {
		lines = append(lines, "**"+p.Name+"**")
	}
	if p.FolderPath != "" {
		lines = append(lines, p.FolderPath)
	}
	if p.ContextPath != "" {
		lines = append(lines, "*"+p.ContextPath+"*")
	}
	if p.DueDate != nil {
		due := "Due " + p.DueDate.Format(dueDateLayout)
		switch {
		case p.DueDate.Before(now):
			due += " (overdue)"
		case dueSoon > 0 && p.DueDate.Before(now.Add(dueSoon)):
			due += " (due soon)"
		}
		lines = append(lines, due)
	}
	return strings.Join(lines, "\n")
}

// StoryDetails is the project note followed by the correlation token.
func StoryDetails(p *types.SourceProject) string {
	return EmbedToken(p.Note, p.ID)
}
