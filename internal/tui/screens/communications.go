package screens

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
	"github.com/emilianohg/touchbase/internal/schedule"
	"github.com/emilianohg/touchbase/internal/service"
	"github.com/emilianohg/touchbase/internal/status"
)

type communicationsMode int

const (
	communicationsModeList communicationsMode = iota
	communicationsModeAdd
	communicationsModeDelete
)

const (
	recordFieldType = iota
	recordFieldDate
	recordFieldNotes
	recordFieldCount
)

// Communications shows the ledger and schedule of one company.
type Communications struct {
	tracker *service.Tracker
	width   int
	height  int

	companyID *int64
	overview  schedule.Overview
	records   []models.CommunicationRecord
	cursor    int
	mode      communicationsMode
	inputs    []textinput.Model
	focus     int
	loading   bool
	err       error
	message   string
}

func NewCommunications(tracker *service.Tracker) *Communications {
	kind := textinput.New()
	kind.Placeholder = "Email, Phone Call, LinkedIn Post..."
	kind.CharLimit = 50
	kind.Width = 40

	date := textinput.New()
	date.Placeholder = recurrence.DateLayout
	date.CharLimit = 10
	date.Width = 12

	notes := textinput.New()
	notes.Placeholder = "Notes"
	notes.CharLimit = 500
	notes.Width = 60

	return &Communications{
		tracker: tracker,
		inputs:  []textinput.Model{kind, date, notes},
	}
}

func (c *Communications) SetSize(width, height int) {
	c.width = width
	c.height = height
}

func (c *Communications) SetCompany(companyID *int64) {
	if companyID == nil || c.companyID == nil || *companyID != *c.companyID {
		c.cursor = 0
	}
	c.companyID = companyID
}

type communicationsDataMsg struct {
	overview schedule.Overview
	records  []models.CommunicationRecord
	err      error
}

func (c *Communications) Init() tea.Cmd {
	c.loading = true
	c.mode = communicationsModeList
	c.message = ""
	return c.loadData
}

func (c *Communications) loadData() tea.Msg {
	if c.companyID == nil {
		return communicationsDataMsg{err: fmt.Errorf("no company selected")}
	}

	ctx, cancel := loadContext()
	defer cancel()

	overview, err := c.tracker.Overview(ctx, *c.companyID, c.tracker.Today())
	if err != nil {
		return communicationsDataMsg{err: err}
	}
	records, err := c.tracker.Communications(ctx, *c.companyID)
	if err != nil {
		return communicationsDataMsg{err: err}
	}
	return communicationsDataMsg{overview: overview, records: records}
}

func (c *Communications) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case communicationsDataMsg:
		c.loading = false
		c.err = msg.err
		c.overview = msg.overview
		c.records = msg.records
		if c.cursor >= len(c.records) {
			c.cursor = max(0, len(c.records)-1)
		}
		return nil

	case RefreshMsg:
		return c.Init()

	case tea.KeyMsg:
		c.err = nil
		switch c.mode {
		case communicationsModeList:
			return c.handleListKey(msg)
		case communicationsModeAdd:
			return c.handleInputKey(msg)
		case communicationsModeDelete:
			return c.handleDeleteKey(msg)
		}
	}

	if c.mode == communicationsModeAdd {
		var cmd tea.Cmd
		c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
		return cmd
	}
	return nil
}

func (c *Communications) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.records)-1 {
			c.cursor++
		}
	case "a":
		c.mode = communicationsModeAdd
		c.inputs[recordFieldType].SetValue("")
		c.inputs[recordFieldDate].SetValue(c.tracker.Today().Format(recurrence.DateLayout))
		c.inputs[recordFieldNotes].SetValue("")
		return c.focusInput(recordFieldType)
	case "c":
		if len(c.records) > 0 {
			return c.complete(c.records[c.cursor])
		}
	case "d":
		if len(c.records) > 0 {
			c.mode = communicationsModeDelete
		}
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (c *Communications) focusInput(i int) tea.Cmd {
	c.focus = i
	for j := range c.inputs {
		c.inputs[j].Blur()
	}
	return c.inputs[i].Focus()
}

func (c *Communications) closeForm() {
	c.mode = communicationsModeList
	for j := range c.inputs {
		c.inputs[j].Blur()
	}
}

func (c *Communications) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return c.focusInput((c.focus + 1) % recordFieldCount)
	case "shift+tab", "up":
		return c.focusInput((c.focus + recordFieldCount - 1) % recordFieldCount)

	case "enter":
		date, err := recurrence.ParseDate(strings.TrimSpace(c.inputs[recordFieldDate].Value()))
		if err != nil {
			c.err = err
			return nil
		}

		ctx, cancel := loadContext()
		defer cancel()
		rec, err := c.tracker.LogCommunication(ctx, *c.companyID, models.CommunicationRecord{
			Type:  c.inputs[recordFieldType].Value(),
			Date:  date,
			Notes: strings.TrimSpace(c.inputs[recordFieldNotes].Value()),
		})
		if err != nil {
			c.err = err
			return nil
		}
		c.message = fmt.Sprintf("Logged %s on %s", rec.Type, rec.Date.Format(dateLayout))
		c.closeForm()
		return c.loadData

	case "esc":
		c.closeForm()
		return nil
	}

	var cmd tea.Cmd
	c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
	return cmd
}

func (c *Communications) complete(rec models.CommunicationRecord) tea.Cmd {
	if rec.IsCompleted() {
		c.message = "Already completed"
		return nil
	}

	ctx, cancel := loadContext()
	defer cancel()
	if _, err := c.tracker.MarkCompleted(ctx, rec.CompanyID, rec.ID); err != nil {
		c.err = err
		return nil
	}
	c.message = fmt.Sprintf("Completed %s of %s", rec.Type, rec.Date.Format(dateLayout))
	return c.loadData
}

func (c *Communications) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		rec := c.records[c.cursor]
		ctx, cancel := loadContext()
		defer cancel()
		if err := c.tracker.RemoveCommunication(ctx, rec.CompanyID, rec.ID); err != nil {
			c.err = err
		} else {
			c.message = fmt.Sprintf("Deleted %s of %s", rec.Type, rec.Date.Format(dateLayout))
		}
		c.mode = communicationsModeList
		return c.loadData

	case "n", "N", "esc":
		c.mode = communicationsModeList
	}
	return nil
}

func (c *Communications) View() string {
	var b strings.Builder

	title := "COMMUNICATIONS"
	if c.overview.CompanyName != "" {
		title += " - " + c.overview.CompanyName
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	if c.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if c.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", c.err)))
		b.WriteString("\n\n")
	}

	if c.message != "" {
		b.WriteString(SuccessStyle.Render(c.message))
		b.WriteString("\n\n")
	}

	if c.mode == communicationsModeAdd {
		b.WriteString("Log communication\n\n")
		labels := []string{"Type:", "Date:", "Notes:"}
		for i, label := range labels {
			b.WriteString(label + "\n")
			b.WriteString(c.inputs[i].View())
			b.WriteString("\n\n")
		}
		b.WriteString(HelpStyle.Render("[tab] Next field  [enter] Save  [esc] Cancel"))
		return b.String()
	}

	if c.mode == communicationsModeDelete && len(c.records) > 0 {
		rec := c.records[c.cursor]
		b.WriteString(WarningStyle.Render(fmt.Sprintf(
			"Delete %s of %s? (y/n)", rec.Type, rec.Date.Format(dateLayout),
		)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(BoxStyle.Render(c.scheduleView()))
	b.WriteString("\n\n")

	if len(c.records) == 0 {
		b.WriteString(DimStyle.Render("No communications logged."))
		b.WriteString("\n\n")
	} else {
		today := c.tracker.Today()
		for i, rec := range c.records {
			cursor := "  "
			style := NormalStyle
			if i == c.cursor {
				cursor = "> "
				style = SelectedStyle
			}
			label := status.EffectiveStatus(rec, today)
			line := fmt.Sprintf("%s%s  %s", cursor, rec.Date.Format(dateLayout), rec.Type)
			if rec.Notes != "" {
				line += " - " + rec.Notes
			}
			b.WriteString(style.Render(line))
			b.WriteString("  ")
			b.WriteString(statusStyle(label).Render(string(label)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "[a] Log  [c] Complete  [d] Delete  [q] Back"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}

func (c *Communications) scheduleView() string {
	o := c.overview
	var b strings.Builder
	fmt.Fprintf(&b, "Periodicity: %s\n", o.Rule)
	b.WriteString("Next due: ")
	b.WriteString(nextDueView(o))
	if len(o.Upcoming) > 1 {
		dates := make([]string, 0, len(o.Upcoming)-1)
		for _, d := range o.Upcoming[1:] {
			dates = append(dates, d.Format(dateLayout))
		}
		b.WriteString("\nThen: ")
		b.WriteString(DimStyle.Render(strings.Join(dates, ", ")))
	}
	return b.String()
}
