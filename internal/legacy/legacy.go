// Package legacy converts between the canonical models and the JSON
// document shape used by earlier versions of the tracker: string or numeric
// periodicity, a separate customRecurrence object, comma separated contact
// lists and records flagged through either "status" or "highlight".
//
// The same shape is used as the HTTP API payload, so old exports can be
// posted back unchanged.
package legacy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emilianohg/touchbase/internal/errs"
	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

var (
	ErrUnsupportedDayCount = errors.New("day count is not a whole number of weeks")
	ErrInvalidDate         = errors.New("date must be YYYY-MM-DD")
	ErrMissingCustom       = errors.New("custom periodicity needs a customRecurrence object")
)

// Company is one company document.
type Company struct {
	ID                       int64             `json:"id,omitempty"`
	Name                     string            `json:"name"`
	Location                 string            `json:"location,omitempty"`
	LinkedInProfile          string            `json:"linkedInProfile,omitempty"`
	Emails                   StringList        `json:"emails,omitempty"`
	PhoneNumbers             StringList        `json:"phoneNumbers,omitempty"`
	Comments                 string            `json:"comments,omitempty"`
	CommunicationPeriodicity Periodicity       `json:"communicationPeriodicity"`
	CustomRecurrence         *CustomRecurrence `json:"customRecurrence,omitempty"`
	// Rule is the canonical form. When present it wins over the legacy
	// periodicity fields.
	Rule           *recurrence.Rule `json:"rule,omitempty"`
	CreatedAt      string           `json:"createdAt,omitempty"`
	Communications []Communication  `json:"communications,omitempty"`
}

type CustomRecurrence struct {
	Frequency   int    `json:"frequency"`
	Unit        string `json:"unit"`
	EndDate     string `json:"endDate,omitempty"`
	Occurrences int    `json:"occurrences,omitempty"`
}

type Communication struct {
	ID     string `json:"id,omitempty"`
	Type   string `json:"type"`
	Date   string `json:"date"`
	Notes  string `json:"notes,omitempty"`
	Status string `json:"status,omitempty"`
	// Highlight is the older name for status. Besides "completed" it held
	// display labels that carry no state.
	Highlight string `json:"highlight,omitempty"`
}

// Options fill in what legacy documents never stored.
type Options struct {
	// Until terminates custom rules that have neither an end date nor an
	// occurrence count. Without it such rules are rejected.
	Until *time.Time
}

// StringList accepts either a JSON array or a single comma separated
// string.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = splitList(s)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = cleanList(items)
	return nil
}

func splitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Periodicity is either a label ("Weekly on Friday") or, in the oldest
// documents, a number of days between communications.
type Periodicity struct {
	Label string
	Days  int
}

func (p *Periodicity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = Periodicity{}
		return nil
	case len(data) > 0 && data[0] == '"':
		*p = Periodicity{}
		return json.Unmarshal(data, &p.Label)
	default:
		*p = Periodicity{}
		if err := json.Unmarshal(data, &p.Days); err != nil {
			return errs.Invalid("communicationPeriodicity", err)
		}
		return nil
	}
}

func (p Periodicity) MarshalJSON() ([]byte, error) {
	if p.Label == "" && p.Days > 0 {
		return json.Marshal(p.Days)
	}
	return json.Marshal(p.Label)
}

// ToRule resolves the document's repetition policy into a validated rule.
func ToRule(c Company, opts Options) (recurrence.Rule, error) {
	r, err := resolveRule(c)
	if errors.Is(err, recurrence.ErrMissingTerminator) && opts.Until != nil {
		r = r.Until(*opts.Until)
		err = nil
	}
	if err != nil {
		return recurrence.Rule{}, err
	}
	if err := r.Validate(); err != nil {
		return recurrence.Rule{}, err
	}
	return r, nil
}

func resolveRule(c Company) (recurrence.Rule, error) {
	if c.Rule != nil {
		return *c.Rule, c.Rule.Validate()
	}
	if c.CustomRecurrence != nil {
		return customRule(*c.CustomRecurrence)
	}

	p := c.CommunicationPeriodicity
	if p.Label == "" {
		switch {
		case p.Days == 0:
			return recurrence.None(), nil
		case p.Days == 1:
			return recurrence.EveryDay(), nil
		case p.Days > 0 && p.Days%7 == 0:
			r := recurrence.Every(p.Days/7, recurrence.Week)
			return r, r.Validate()
		default:
			return recurrence.Rule{}, errs.Invalid("communicationPeriodicity",
				fmt.Errorf("%w: %d", ErrUnsupportedDayCount, p.Days))
		}
	}

	label := strings.ToLower(strings.TrimSpace(p.Label))
	switch label {
	case "weekly", "bi-weekly", "biweekly", "monthly", "yearly", "annually":
		r := enumRule(label)
		return r, r.Validate()
	case "custom", "custom...":
		return recurrence.Rule{}, errs.Invalid("customRecurrence", ErrMissingCustom)
	}
	return recurrence.ParseLabel(p.Label)
}

// enumRule maps the bare periodicity names of the old select box.
func enumRule(label string) recurrence.Rule {
	switch label {
	case "weekly":
		return recurrence.Every(1, recurrence.Week)
	case "bi-weekly", "biweekly":
		return recurrence.Every(2, recurrence.Week)
	case "monthly":
		return recurrence.Every(1, recurrence.Month)
	default:
		return recurrence.Every(1, recurrence.Year)
	}
}

func customRule(cr CustomRecurrence) (recurrence.Rule, error) {
	unit, err := parseUnit(cr.Unit)
	if err != nil {
		return recurrence.Rule{}, err
	}

	r := recurrence.Every(cr.Frequency, unit)
	if cr.EndDate != "" {
		end, err := parseDate(cr.EndDate)
		if err != nil {
			return recurrence.Rule{}, errs.Invalid("endDate", err)
		}
		r = r.Until(end)
	}
	r.Occurrences = cr.Occurrences

	return r, r.Validate()
}

func parseUnit(s string) (recurrence.Unit, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "week":
		return recurrence.Week, nil
	case "month":
		return recurrence.Month, nil
	case "year":
		return recurrence.Year, nil
	}
	return "", errs.Invalid("unit", fmt.Errorf("%w: %q", recurrence.ErrInvalidUnit, s))
}

// parseDate accepts a plain date or a full timestamp, as written by
// different versions of the web client.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := recurrence.ParseDate(s); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return recurrence.DateOf(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ToRecord converts one communication. "completed" in either status or
// highlight marks the record completed; everything else is pending.
func ToRecord(c Communication) (models.CommunicationRecord, error) {
	rec := models.CommunicationRecord{
		ID:     strings.TrimSpace(c.ID),
		Type:   strings.TrimSpace(c.Type),
		Notes:  c.Notes,
		Status: models.StatusPending,
	}

	if c.Date != "" {
		d, err := parseDate(c.Date)
		if err != nil {
			return rec, errs.Invalid("date", err)
		}
		rec.Date = d
	}

	if strings.EqualFold(c.Status, string(models.StatusCompleted)) ||
		strings.EqualFold(c.Highlight, string(models.StatusCompleted)) {
		rec.Status = models.StatusCompleted
	}
	return rec, nil
}

// ToCompany converts a document into a company with its records.
func ToCompany(c Company, opts Options) (models.Company, error) {
	if strings.TrimSpace(c.Name) == "" {
		return models.Company{}, errs.Invalid("name", errors.New("name is required"))
	}

	rule, err := ToRule(c, opts)
	if err != nil {
		return models.Company{}, err
	}

	out := models.Company{
		ID:              c.ID,
		Name:            strings.TrimSpace(c.Name),
		Location:        c.Location,
		LinkedInProfile: c.LinkedInProfile,
		Emails:          []string(c.Emails),
		PhoneNumbers:    []string(c.PhoneNumbers),
		Comments:        c.Comments,
		Rule:            rule,
	}

	if c.CreatedAt != "" {
		created, err := time.Parse(time.RFC3339, c.CreatedAt)
		if err != nil {
			if created, err = recurrence.ParseDate(c.CreatedAt); err != nil {
				return models.Company{}, errs.Invalid("createdAt", err)
			}
		}
		out.CreatedAt = created.UTC()
	}

	for i, comm := range c.Communications {
		rec, err := ToRecord(comm)
		if err != nil {
			return models.Company{}, fmt.Errorf("communication %d: %w", i, err)
		}
		out.Communications = append(out.Communications, rec)
	}

	return out, nil
}

// FromRecord is the inverse of ToRecord. Only status is written.
func FromRecord(r models.CommunicationRecord) Communication {
	return Communication{
		ID:     r.ID,
		Type:   r.Type,
		Date:   r.Date.Format(recurrence.DateLayout),
		Notes:  r.Notes,
		Status: string(r.Status),
	}
}

// FromCompany renders a company as a document. Both the canonical rule and
// the legacy fields are written so older readers keep working.
func FromCompany(c models.Company) Company {
	rule := c.Rule
	out := Company{
		ID:                       c.ID,
		Name:                     c.Name,
		Location:                 c.Location,
		LinkedInProfile:          c.LinkedInProfile,
		Emails:                   StringList(c.Emails),
		PhoneNumbers:             StringList(c.PhoneNumbers),
		Comments:                 c.Comments,
		CommunicationPeriodicity: Periodicity{Label: rule.String()},
		Rule:                     &rule,
	}
	if !c.CreatedAt.IsZero() {
		out.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339)
	}

	if rule.Kind == recurrence.Custom {
		cr := &CustomRecurrence{
			Frequency:   rule.Interval,
			Unit:        string(rule.Unit),
			Occurrences: rule.Occurrences,
		}
		if rule.EndDate != nil {
			cr.EndDate = rule.EndDate.Format(recurrence.DateLayout)
		}
		out.CustomRecurrence = cr
	}

	for _, r := range c.Communications {
		out.Communications = append(out.Communications, FromRecord(r))
	}
	return out
}

// Decode reads either a JSON array of companies or an export object of the
// form {"companies": [...]}.
func Decode(r io.Reader) ([]Company, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	var docs []Company
	if len(data) > 0 && data[0] == '{' {
		var export struct {
			Companies []Company `json:"companies"`
		}
		if err := json.Unmarshal(data, &export); err != nil {
			return nil, fmt.Errorf("failed to decode export: %w", err)
		}
		docs = export.Companies
	} else if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode companies: %w", err)
	}
	return docs, nil
}

// Import decodes and converts every company. The first invalid document
// aborts the import.
func Import(r io.Reader, opts Options) ([]models.Company, error) {
	docs, err := Decode(r)
	if err != nil {
		return nil, err
	}

	companies := make([]models.Company, 0, len(docs))
	for i, doc := range docs {
		c, err := ToCompany(doc, opts)
		if err != nil {
			return nil, fmt.Errorf("company %d (%s): %w", i, doc.Name, err)
		}
		companies = append(companies, c)
	}
	return companies, nil
}
