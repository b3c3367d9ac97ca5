package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/touchbase/internal/schedule"
	"github.com/emilianohg/touchbase/internal/service"
)

const maxBarWidth = 40

// Reports shows how often each communication method is used.
type Reports struct {
	tracker *service.Tracker
	width   int
	height  int

	buckets []schedule.Bucket
	loading bool
	err     error
}

func NewReports(tracker *service.Tracker) *Reports {
	return &Reports{tracker: tracker}
}

func (r *Reports) SetSize(width, height int) {
	r.width = width
	r.height = height
}

type reportsDataMsg struct {
	buckets []schedule.Bucket
	err     error
}

func (r *Reports) Init() tea.Cmd {
	r.loading = true
	return r.loadData
}

func (r *Reports) loadData() tea.Msg {
	ctx, cancel := loadContext()
	defer cancel()

	h, err := r.tracker.Histogram(ctx)
	if err != nil {
		return reportsDataMsg{err: err}
	}
	return reportsDataMsg{buckets: schedule.SortedHistogram(h)}
}

func (r *Reports) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.loading = false
		r.err = msg.err
		r.buckets = msg.buckets
		return nil

	case RefreshMsg:
		return r.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return Navigate("dashboard")
		}
	}
	return nil
}

func (r *Reports) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("REPORTS"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Communication frequency"))
	b.WriteString("\n\n")

	if r.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if r.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", r.err)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(histogramView(r.buckets))
	b.WriteString(HelpStyle.Render("[q] Back"))
	return b.String()
}

func histogramView(buckets []schedule.Bucket) string {
	peak, labelWidth := 0, 0
	for _, bucket := range buckets {
		peak = max(peak, bucket.Count)
		labelWidth = max(labelWidth, len(bucket.Type))
	}

	var b strings.Builder
	for _, bucket := range buckets {
		width := 0
		if peak > 0 {
			width = bucket.Count * maxBarWidth / peak
		}
		fmt.Fprintf(&b, "%-*s ", labelWidth, bucket.Type)
		b.WriteString(BarStyle.Render(strings.Repeat("█", width)))
		fmt.Fprintf(&b, " %d\n", bucket.Count)
	}
	return b.String()
}
