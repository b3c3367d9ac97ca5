package legacy

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/touchbase/internal/errs"
	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func decodeCompany(t *testing.T, doc string) Company {
	t.Helper()
	var c Company
	require.NoError(t, json.Unmarshal([]byte(doc), &c))
	return c
}

func TestToRule(t *testing.T) {
	until := date(2024, 12, 31)

	tests := []struct {
		name    string
		doc     string
		opts    Options
		want    recurrence.Rule
		wantErr error
	}{
		{
			name: "preset label",
			doc:  `{"name":"a","communicationPeriodicity":"Weekly on Friday"}`,
			want: recurrence.WeeklyOn(time.Friday),
		},
		{
			name: "custom label with terminator",
			doc:  `{"name":"a","communicationPeriodicity":"Repeat every 2 weeks for 4 occurrences"}`,
			want: recurrence.Every(2, recurrence.Week).Times(4),
		},
		{
			name: "custom object",
			doc:  `{"name":"a","communicationPeriodicity":"Custom...","customRecurrence":{"frequency":3,"unit":"months","endDate":"2025-01-01"}}`,
			want: recurrence.Every(3, recurrence.Month).Until(date(2025, 1, 1)),
		},
		{
			name:    "custom object with both terminators",
			doc:     `{"name":"a","customRecurrence":{"frequency":1,"unit":"week","endDate":"2025-01-01","occurrences":3}}`,
			wantErr: recurrence.ErrAmbiguousTerminator,
		},
		{
			name:    "custom object without terminator",
			doc:     `{"name":"a","customRecurrence":{"frequency":1,"unit":"week"}}`,
			wantErr: recurrence.ErrMissingTerminator,
		},
		{
			name: "custom object terminated by option",
			doc:  `{"name":"a","customRecurrence":{"frequency":1,"unit":"week"}}`,
			opts: Options{Until: &until},
			want: recurrence.Every(1, recurrence.Week).Until(until),
		},
		{
			name:    "custom object zero frequency",
			doc:     `{"name":"a","customRecurrence":{"frequency":0,"unit":"week","occurrences":2}}`,
			wantErr: recurrence.ErrInvalidInterval,
		},
		{
			name:    "custom label without object",
			doc:     `{"name":"a","communicationPeriodicity":"Custom"}`,
			wantErr: ErrMissingCustom,
		},
		{
			name:    "day count needs terminator",
			doc:     `{"name":"a","communicationPeriodicity":14}`,
			wantErr: recurrence.ErrMissingTerminator,
		},
		{
			name: "day count with terminator",
			doc:  `{"name":"a","communicationPeriodicity":14}`,
			opts: Options{Until: &until},
			want: recurrence.Every(2, recurrence.Week).Until(until),
		},
		{
			name: "single day count",
			doc:  `{"name":"a","communicationPeriodicity":1}`,
			want: recurrence.EveryDay(),
		},
		{
			name:    "odd day count",
			doc:     `{"name":"a","communicationPeriodicity":10}`,
			wantErr: ErrUnsupportedDayCount,
		},
		{
			name: "old select box value",
			doc:  `{"name":"a","communicationPeriodicity":"Monthly"}`,
			opts: Options{Until: &until},
			want: recurrence.Every(1, recurrence.Month).Until(until),
		},
		{
			name: "missing periodicity",
			doc:  `{"name":"a"}`,
			want: recurrence.None(),
		},
		{
			name: "canonical rule wins",
			doc:  `{"name":"a","communicationPeriodicity":"Daily","rule":{"kind":"weekdays"}}`,
			want: recurrence.Weekdays(),
		},
		{
			name:    "unknown label",
			doc:     `{"name":"a","communicationPeriodicity":"Every full moon"}`,
			wantErr: recurrence.ErrUnknownLabel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToRule(decodeCompany(t, tt.doc), tt.opts)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.True(t, errs.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToRecord(t *testing.T) {
	tests := []struct {
		name string
		in   Communication
		want models.RecordStatus
	}{
		{"status completed", Communication{Type: "Email", Date: "2024-01-01", Status: "completed"}, models.StatusCompleted},
		{"highlight completed", Communication{Type: "Email", Date: "2024-01-01", Highlight: "completed"}, models.StatusCompleted},
		{"highlight label", Communication{Type: "Email", Date: "2024-01-01", Highlight: "overdue"}, models.StatusPending},
		{"nothing set", Communication{Type: "Email", Date: "2024-01-01"}, models.StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ToRecord(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Status)
			assert.Equal(t, date(2024, 1, 1), rec.Date)
		})
	}

	t.Run("timestamp date", func(t *testing.T) {
		rec, err := ToRecord(Communication{Type: "Email", Date: "2024-01-05T18:30:00Z"})
		require.NoError(t, err)
		assert.Equal(t, date(2024, 1, 5), rec.Date)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ToRecord(Communication{Type: "Email", Date: "Jan 5"})
		assert.True(t, errors.Is(err, ErrInvalidDate))
	})
}

func TestStringList(t *testing.T) {
	c := decodeCompany(t, `{"name":"a","emails":"a@x.test, b@x.test,,","phoneNumbers":["1", " 2 "]}`)
	assert.Equal(t, StringList{"a@x.test", "b@x.test"}, c.Emails)
	assert.Equal(t, StringList{"1", "2"}, c.PhoneNumbers)
}

func TestCompanyRoundTrip(t *testing.T) {
	in := models.Company{
		ID:           3,
		Name:         "Acme",
		Emails:       []string{"a@acme.test"},
		PhoneNumbers: []string{"555"},
		Rule:         recurrence.Every(2, recurrence.Week).Until(date(2024, 6, 1)),
		CreatedAt:    time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Communications: []models.CommunicationRecord{
			{ID: "r1", CompanyID: 3, Type: "Email", Date: date(2024, 1, 2), Status: models.StatusCompleted},
		},
	}

	doc := FromCompany(in)
	assert.Equal(t, "Every 2 weeks until 2024-06-01", doc.CommunicationPeriodicity.Label)
	require.NotNil(t, doc.CustomRecurrence)
	assert.Equal(t, "2024-06-01", doc.CustomRecurrence.EndDate)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var back Company
	require.NoError(t, json.Unmarshal(data, &back))

	out, err := ToCompany(back, Options{})
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Emails, out.Emails)
	assert.Equal(t, in.Rule, out.Rule)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Len(t, out.Communications, 1)
	assert.Equal(t, "r1", out.Communications[0].ID)
	assert.Equal(t, models.StatusCompleted, out.Communications[0].Status)
}

func TestImport(t *testing.T) {
	until := date(2025, 1, 1)

	t.Run("array", func(t *testing.T) {
		companies, err := Import(strings.NewReader(`[
			{"name":"Acme","communicationPeriodicity":14,"communications":[{"type":"Email","date":"2024-01-01","highlight":"completed"}]},
			{"name":"Globex","communicationPeriodicity":"Daily"}
		]`), Options{Until: &until})
		require.NoError(t, err)
		require.Len(t, companies, 2)
		assert.Equal(t, recurrence.Every(2, recurrence.Week).Until(until), companies[0].Rule)
		assert.Equal(t, models.StatusCompleted, companies[0].Communications[0].Status)
		assert.Equal(t, recurrence.EveryDay(), companies[1].Rule)
	})

	t.Run("export object", func(t *testing.T) {
		companies, err := Import(strings.NewReader(`{"companies":[{"name":"Acme"}]}`), Options{})
		require.NoError(t, err)
		require.Len(t, companies, 1)
	})

	t.Run("invalid company names its index", func(t *testing.T) {
		_, err := Import(strings.NewReader(`[{"name":"Acme"},{"name":"Bad","communicationPeriodicity":14}]`), Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "company 1 (Bad)")
		assert.True(t, errors.Is(err, recurrence.ErrMissingTerminator))
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := Import(strings.NewReader(`[{"location":"nowhere"}]`), Options{})
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Import(strings.NewReader(`[{`), Options{})
		assert.Error(t, err)
	})
}
