package screens

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/touchbase/internal/schedule"
	"github.com/emilianohg/touchbase/internal/service"
)

// Calendar lists a month of logged and projected communications.
type Calendar struct {
	tracker *service.Tracker
	width   int
	height  int

	month   time.Time
	events  []schedule.Event
	loading bool
	err     error
}

func NewCalendar(tracker *service.Tracker) *Calendar {
	return &Calendar{tracker: tracker}
}

func (c *Calendar) SetSize(width, height int) {
	c.width = width
	c.height = height
}

type calendarDataMsg struct {
	events []schedule.Event
	err    error
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (c *Calendar) Init() tea.Cmd {
	if c.month.IsZero() {
		c.month = firstOfMonth(c.tracker.Today())
	}
	c.loading = true
	return c.loadData
}

func (c *Calendar) loadData() tea.Msg {
	ctx, cancel := loadContext()
	defer cancel()

	from := c.month
	to := from.AddDate(0, 1, -1)
	events, err := c.tracker.Calendar(ctx, c.tracker.Today(), from, to)
	return calendarDataMsg{events: events, err: err}
}

func (c *Calendar) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case calendarDataMsg:
		c.loading = false
		c.err = msg.err
		c.events = msg.events
		return nil

	case RefreshMsg:
		return c.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			c.month = c.month.AddDate(0, -1, 0)
			return c.Init()
		case "right", "l":
			c.month = c.month.AddDate(0, 1, 0)
			return c.Init()
		case "t":
			c.month = firstOfMonth(c.tracker.Today())
			return c.Init()
		case "q", "esc":
			return Navigate("dashboard")
		}
	}
	return nil
}

func (c *Calendar) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("CALENDAR"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(c.month.Format("January 2006")))
	b.WriteString("\n\n")

	if c.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if c.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", c.err)))
		b.WriteString("\n")
		return b.String()
	}

	if len(c.events) == 0 {
		b.WriteString(DimStyle.Render("Nothing logged or scheduled this month."))
		b.WriteString("\n")
	}

	var day time.Time
	for _, e := range c.events {
		if !e.Date.Equal(day) {
			day = e.Date
			b.WriteString(NormalStyle.Render(day.Format("Mon 02")))
			b.WriteString("\n")
		}

		what := e.Type
		if e.Kind == schedule.EventProjected {
			what = "due"
		}
		b.WriteString(fmt.Sprintf("    %s  %s  ", e.CompanyName, what))
		b.WriteString(statusStyle(e.Status).Render(string(e.Status)))
		b.WriteString("\n")
	}

	help := "[h/l] Previous/next month  [t] This month  [q] Back"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}
