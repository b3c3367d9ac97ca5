package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/touchbase/internal/schedule"
	"github.com/emilianohg/touchbase/internal/service"
	"github.com/emilianohg/touchbase/internal/status"
)

type Dashboard struct {
	tracker *service.Tracker
	width   int
	height  int

	notifications status.Notifications
	overviews     []schedule.Overview
	cursor        int
	loading       bool
	err           error
}

func NewDashboard(tracker *service.Tracker) *Dashboard {
	return &Dashboard{
		tracker: tracker,
		loading: true,
	}
}

func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

type dashboardDataMsg struct {
	notifications status.Notifications
	overviews     []schedule.Overview
	err           error
}

func (d *Dashboard) Init() tea.Cmd {
	d.loading = true
	return d.loadData
}

func (d *Dashboard) loadData() tea.Msg {
	ctx, cancel := loadContext()
	defer cancel()

	today := d.tracker.Today()
	notifications, err := d.tracker.Notifications(ctx, today)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	overviews, err := d.tracker.Overviews(ctx, today)
	if err != nil {
		return dashboardDataMsg{err: err}
	}

	return dashboardDataMsg{
		notifications: notifications,
		overviews:     overviews,
	}
}

func (d *Dashboard) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.loading = false
		d.err = msg.err
		d.notifications = msg.notifications
		d.overviews = msg.overviews
		if d.cursor >= len(d.overviews) {
			d.cursor = max(0, len(d.overviews)-1)
		}
		return nil

	case RefreshMsg:
		return d.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if d.cursor > 0 {
				d.cursor--
			}
		case "down", "j":
			if d.cursor < len(d.overviews)-1 {
				d.cursor++
			}
		case "enter":
			if len(d.overviews) > 0 {
				return NavigateWithCompany("communications", d.overviews[d.cursor].CompanyID)
			}
		case "c":
			return Navigate("companies")
		case "l":
			return Navigate("calendar")
		case "r":
			return Navigate("reports")
		}
	}

	return nil
}

func (d *Dashboard) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("TOUCHBASE"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Company Communication Tracker"))
	b.WriteString("\n\n")

	if d.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if d.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", d.err)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(BoxStyle.Render(d.notificationsView()))
	b.WriteString("\n\n")

	if len(d.overviews) > 0 {
		b.WriteString(SubtitleStyle.Render("Next communications"))
		b.WriteString("\n")
		for i, o := range d.overviews {
			cursor := "  "
			style := NormalStyle
			if i == d.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			b.WriteString(style.Render(cursor + o.CompanyName))
			b.WriteString("  ")
			b.WriteString(nextDueView(o))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(DimStyle.Render("No companies yet. Press 'c' to add one."))
	}

	b.WriteString("\n")

	help := "[enter] Communications  [c] Companies  [l] Calendar  [r] Reports  [q] Quit"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}

func (d *Dashboard) notificationsView() string {
	n := d.notifications
	if n.Empty() {
		return SuccessStyle.Render("Nothing overdue or due today")
	}

	var b strings.Builder
	b.WriteString(ErrorStyle.Render(fmt.Sprintf("Overdue: %d", len(n.Overdue))))
	b.WriteString("\n")
	for _, item := range n.Overdue {
		fmt.Fprintf(&b, "  %s  %s  %s\n", item.CompanyName, item.Record.Type, item.Record.Date.Format(dateLayout))
	}
	b.WriteString(WarningStyle.Render(fmt.Sprintf("Due today: %d", len(n.DueToday))))
	for _, item := range n.DueToday {
		fmt.Fprintf(&b, "\n  %s  %s", item.CompanyName, item.Record.Type)
	}
	return b.String()
}

func nextDueView(o schedule.Overview) string {
	if o.NextDue == nil {
		return DimStyle.Render("nothing scheduled")
	}
	return statusStyle(o.NextDueStatus).Render(fmt.Sprintf("%s (%s)", o.NextDue.Format(dateLayout), o.NextDueStatus))
}
