package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/touchbase/internal/service"
	"github.com/emilianohg/touchbase/internal/tui/screens"
)

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenCompanies
	ScreenCommunications
	ScreenCalendar
	ScreenReports
)

type App struct {
	tracker       *service.Tracker
	currentScreen Screen
	width         int
	height        int

	// Screen models
	dashboard      *screens.Dashboard
	companies      *screens.Companies
	communications *screens.Communications
	calendar       *screens.Calendar
	reports        *screens.Reports
}

func NewApp(tracker *service.Tracker) *App {
	return &App{
		tracker:       tracker,
		currentScreen: ScreenDashboard,
	}
}

func (a *App) Init() tea.Cmd {
	a.dashboard = screens.NewDashboard(a.tracker)
	a.companies = screens.NewCompanies(a.tracker)
	a.communications = screens.NewCommunications(a.tracker)
	a.calendar = screens.NewCalendar(a.tracker)
	a.reports = screens.NewReports(a.tracker)

	return a.dashboard.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.currentScreen == ScreenDashboard {
				return a, tea.Quit
			}
			// Let individual screens handle 'q' for going back
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.dashboard.SetSize(msg.Width, msg.Height)
		a.companies.SetSize(msg.Width, msg.Height)
		a.communications.SetSize(msg.Width, msg.Height)
		a.calendar.SetSize(msg.Width, msg.Height)
		a.reports.SetSize(msg.Width, msg.Height)

	case screens.NavigateMsg:
		return a.handleNavigation(msg)
	}

	// Update current screen
	var cmd tea.Cmd
	switch a.currentScreen {
	case ScreenDashboard:
		cmd = a.dashboard.Update(msg)
	case ScreenCompanies:
		cmd = a.companies.Update(msg)
	case ScreenCommunications:
		cmd = a.communications.Update(msg)
	case ScreenCalendar:
		cmd = a.calendar.Update(msg)
	case ScreenReports:
		cmd = a.reports.Update(msg)
	}

	return a, cmd
}

func (a *App) handleNavigation(msg screens.NavigateMsg) (tea.Model, tea.Cmd) {
	switch msg.Screen {
	case "dashboard":
		a.currentScreen = ScreenDashboard
		return a, a.dashboard.Init()
	case "companies":
		a.currentScreen = ScreenCompanies
		return a, a.companies.Init()
	case "communications":
		a.currentScreen = ScreenCommunications
		a.communications.SetCompany(msg.CompanyID)
		return a, a.communications.Init()
	case "calendar":
		a.currentScreen = ScreenCalendar
		return a, a.calendar.Init()
	case "reports":
		a.currentScreen = ScreenReports
		return a, a.reports.Init()
	}
	return a, nil
}

func (a *App) View() string {
	var content string

	switch a.currentScreen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenCompanies:
		content = a.companies.View()
	case ScreenCommunications:
		content = a.communications.View()
	case ScreenCalendar:
		content = a.calendar.View()
	case ScreenReports:
		content = a.reports.View()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		Render(content)
}

func Run(tracker *service.Tracker) error {
	app := NewApp(tracker)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
