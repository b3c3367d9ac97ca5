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
)

type companiesMode int

const (
	companiesModeList companiesMode = iota
	companiesModeAdd
	companiesModeEdit
	companiesModeDelete
)

const (
	companyFieldName = iota
	companyFieldPeriodicity
	companyFieldCount
)

type Companies struct {
	tracker *service.Tracker
	width   int
	height  int

	companies []models.Company
	cursor    int
	mode      companiesMode
	inputs    []textinput.Model
	focus     int
	loading   bool
	err       error
	message   string
}

func NewCompanies(tracker *service.Tracker) *Companies {
	name := textinput.New()
	name.Placeholder = "Company name"
	name.CharLimit = 100
	name.Width = 40

	periodicity := textinput.New()
	periodicity.Placeholder = "e.g. Weekly on Monday, Every 2 weeks for 6 occurrences"
	periodicity.CharLimit = 100
	periodicity.Width = 60

	return &Companies{
		tracker: tracker,
		inputs:  []textinput.Model{name, periodicity},
	}
}

func (c *Companies) SetSize(width, height int) {
	c.width = width
	c.height = height
}

type companiesDataMsg struct {
	companies []models.Company
	err       error
}

func (c *Companies) Init() tea.Cmd {
	c.loading = true
	c.mode = companiesModeList
	c.message = ""
	return c.loadData
}

func (c *Companies) loadData() tea.Msg {
	ctx, cancel := loadContext()
	defer cancel()
	companies, err := c.tracker.Companies(ctx)
	return companiesDataMsg{companies: companies, err: err}
}

func (c *Companies) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case companiesDataMsg:
		c.loading = false
		c.err = msg.err
		c.companies = msg.companies
		if c.cursor >= len(c.companies) {
			c.cursor = max(0, len(c.companies)-1)
		}
		return nil

	case RefreshMsg:
		return c.Init()

	case tea.KeyMsg:
		return c.handleKey(msg)
	}

	if c.mode == companiesModeAdd || c.mode == companiesModeEdit {
		var cmd tea.Cmd
		c.inputs[c.focus], cmd = c.inputs[c.focus].Update(msg)
		return cmd
	}

	return nil
}

func (c *Companies) handleKey(msg tea.KeyMsg) tea.Cmd {
	c.err = nil
	switch c.mode {
	case companiesModeList:
		return c.handleListKey(msg)
	case companiesModeAdd, companiesModeEdit:
		return c.handleInputKey(msg)
	case companiesModeDelete:
		return c.handleDeleteKey(msg)
	}
	return nil
}

func (c *Companies) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.companies)-1 {
			c.cursor++
		}
	case "a":
		c.mode = companiesModeAdd
		c.inputs[companyFieldName].SetValue("")
		c.inputs[companyFieldPeriodicity].SetValue("")
		return c.focusInput(companyFieldName)
	case "e":
		if len(c.companies) > 0 {
			selected := c.companies[c.cursor]
			c.mode = companiesModeEdit
			c.inputs[companyFieldName].SetValue(selected.Name)
			c.inputs[companyFieldPeriodicity].SetValue(selected.Rule.String())
			return c.focusInput(companyFieldName)
		}
	case "d":
		if len(c.companies) > 0 {
			c.mode = companiesModeDelete
		}
	case "enter":
		if len(c.companies) > 0 {
			return NavigateWithCompany("communications", c.companies[c.cursor].ID)
		}
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (c *Companies) focusInput(i int) tea.Cmd {
	c.focus = i
	for j := range c.inputs {
		c.inputs[j].Blur()
	}
	return c.inputs[i].Focus()
}

func (c *Companies) closeForm() {
	c.mode = companiesModeList
	for j := range c.inputs {
		c.inputs[j].Blur()
	}
}

func (c *Companies) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return c.focusInput((c.focus + 1) % companyFieldCount)
	case "shift+tab", "up":
		return c.focusInput((c.focus + companyFieldCount - 1) % companyFieldCount)

	case "enter":
		name := strings.TrimSpace(c.inputs[companyFieldName].Value())
		if name == "" {
			c.closeForm()
			return nil
		}

		rule := recurrence.None()
		if label := strings.TrimSpace(c.inputs[companyFieldPeriodicity].Value()); label != "" {
			parsed, err := recurrence.ParseLabel(label)
			if err != nil {
				// Keep the form open so the label can be fixed
				c.err = err
				return nil
			}
			rule = parsed
		}

		company := models.Company{Name: name, Rule: rule}
		if c.mode == companiesModeEdit {
			company = c.companies[c.cursor]
			company.Name = name
			company.Rule = rule
		}

		ctx, cancel := loadContext()
		defer cancel()
		if _, err := c.tracker.SaveCompany(ctx, company); err != nil {
			c.err = err
		} else if c.mode == companiesModeAdd {
			c.message = fmt.Sprintf("Created company: %s", name)
		} else {
			c.message = fmt.Sprintf("Updated company: %s", name)
		}
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

func (c *Companies) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		ctx, cancel := loadContext()
		defer cancel()
		name := c.companies[c.cursor].Name
		if err := c.tracker.DeleteCompany(ctx, c.companies[c.cursor].ID); err != nil {
			c.err = err
		} else {
			c.message = fmt.Sprintf("Deleted company: %s", name)
		}
		c.mode = companiesModeList
		return c.loadData

	case "n", "N", "esc":
		c.mode = companiesModeList
	}
	return nil
}

func (c *Companies) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("COMPANIES"))
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

	if c.mode == companiesModeAdd || c.mode == companiesModeEdit {
		if c.mode == companiesModeAdd {
			b.WriteString("New company\n\n")
		} else {
			b.WriteString("Edit company\n\n")
		}
		b.WriteString("Name:\n")
		b.WriteString(c.inputs[companyFieldName].View())
		b.WriteString("\n\nPeriodicity (empty for none):\n")
		b.WriteString(c.inputs[companyFieldPeriodicity].View())
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("[tab] Next field  [enter] Save  [esc] Cancel"))
		return b.String()
	}

	if c.mode == companiesModeDelete && len(c.companies) > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf(
			"Delete company '%s' and all of its communications? (y/n)",
			c.companies[c.cursor].Name,
		)))
		b.WriteString("\n")
		return b.String()
	}

	if len(c.companies) == 0 {
		b.WriteString(DimStyle.Render("No companies yet."))
		b.WriteString("\n\n")
	} else {
		today := c.tracker.Today()
		for i, company := range c.companies {
			cursor := "  "
			style := NormalStyle
			if i == c.cursor {
				cursor = "> "
				style = SelectedStyle
			}

			next := "-"
			if due, ok := schedule.NextDue(company, today); ok {
				next = due.Format(dateLayout)
			}
			line := fmt.Sprintf("%s%s (%s, %d communications, next: %s)",
				cursor,
				company.Name,
				company.Rule,
				len(company.Communications),
				next,
			)
			b.WriteString(style.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "[a] Add  [e] Edit  [d] Delete  [enter] Communications  [q] Back"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}
