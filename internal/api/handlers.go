package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emilianohg/touchbase/internal/errs"
	"github.com/emilianohg/touchbase/internal/legacy"
	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
	"github.com/emilianohg/touchbase/internal/schedule"
	"github.com/emilianohg/touchbase/internal/status"
)

var (
	errRangeOrder   = errors.New("end of range is before its start")
	errRangeTooLong = errors.New("range may span at most one year")
)

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NotFound("%s %q", name, c.Param(name))
	}
	return id, nil
}

// queryDate reads an optional YYYY-MM-DD query parameter.
func queryDate(c echo.Context, name string, fallback time.Time) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := recurrence.ParseDate(raw)
	if err != nil {
		return time.Time{}, errs.Invalid(name, err)
	}
	return d, nil
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func (s *Server) companyResponse(company models.Company, today time.Time) CompanyResponse {
	resp := CompanyResponse{Company: legacy.FromCompany(company)}
	if next, ok := schedule.NextDue(company, today); ok {
		resp.NextDue = formatDate(next)
		resp.NextDueStatus = status.Classify(next, today)
	}
	return resp
}

func (s *Server) handleListCompanies(c echo.Context) error {
	ctx := c.Request().Context()
	companies, err := s.tracker.Companies(ctx)
	if err != nil {
		return err
	}

	today := s.tracker.Today()
	out := make([]CompanyResponse, 0, len(companies))
	for _, company := range companies {
		out = append(out, s.companyResponse(company, today))
	}
	return c.JSON(http.StatusOK, out)
}

// handleCreateCompany stores a company document. Communications in the body
// are ignored; they are logged through their own endpoint.
func (s *Server) handleCreateCompany(c echo.Context) error {
	var doc legacy.Company
	if err := bind(c, &doc); err != nil {
		return err
	}
	company, err := legacy.ToCompany(doc, legacy.Options{})
	if err != nil {
		return err
	}
	company.ID = 0
	company.Communications = nil

	created, err := s.tracker.SaveCompany(c.Request().Context(), company)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s.companyResponse(*created, s.tracker.Today()))
}

func (s *Server) handleUpdateCompany(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var doc legacy.Company
	if err := bind(c, &doc); err != nil {
		return err
	}
	company, err := legacy.ToCompany(doc, legacy.Options{})
	if err != nil {
		return err
	}
	company.ID = id
	company.Communications = nil

	ctx := c.Request().Context()
	if _, err := s.tracker.SaveCompany(ctx, company); err != nil {
		return err
	}
	updated, err := s.tracker.Company(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.companyResponse(*updated, s.tracker.Today()))
}

func (s *Server) handleDeleteCompany(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.tracker.DeleteCompany(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSchedule returns next due, recent history and upcoming dates. The
// optional n parameter sets how many entries each list holds.
func (s *Server) handleSchedule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	today, err := queryDate(c, "date", s.tracker.Today())
	if err != nil {
		return err
	}

	company, err := s.tracker.Company(c.Request().Context(), id)
	if err != nil {
		return err
	}

	if raw := c.QueryParam("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 100 {
			return errs.Invalid("n", strconv.ErrRange)
		}
		return c.JSON(http.StatusOK, toScheduleResponse(schedule.CompanyOverview(*company, today, n, n)))
	}

	o, err := s.tracker.Overview(c.Request().Context(), id, today)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toScheduleResponse(o))
}

func (s *Server) handleLogCommunication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body legacy.Communication
	if err := bind(c, &body); err != nil {
		return err
	}
	rec, err := legacy.ToRecord(body)
	if err != nil {
		return err
	}

	stored, err := s.tracker.LogCommunication(c.Request().Context(), id, rec)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, legacy.FromRecord(*stored))
}

func (s *Server) handleLogCommunications(c echo.Context) error {
	var body BulkCommunicationRequest
	if err := bind(c, &body); err != nil {
		return err
	}
	rec, err := legacy.ToRecord(body.Communication)
	if err != nil {
		return err
	}

	stored, err := s.tracker.LogCommunications(c.Request().Context(), body.CompanyIDs, rec)
	if err != nil {
		return err
	}

	out := make([]legacy.Communication, 0, len(stored))
	for _, r := range stored {
		out = append(out, legacy.FromRecord(r))
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) handleCompleteCommunication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	rec, err := s.tracker.MarkCompleted(c.Request().Context(), id, c.Param("commId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, legacy.FromRecord(*rec))
}

func (s *Server) handleDeleteCommunication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.tracker.RemoveCommunication(c.Request().Context(), id, c.Param("commId")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleNotifications(c echo.Context) error {
	today, err := queryDate(c, "date", s.tracker.Today())
	if err != nil {
		return err
	}

	n, err := s.tracker.Notifications(c.Request().Context(), today)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, NotificationsResponse{
		Date:     formatDate(today),
		Overdue:  toNotificationItems(n.Overdue),
		DueToday: toNotificationItems(n.DueToday),
	})
}

// handleCalendar defaults to the current month.
func (s *Server) handleCalendar(c echo.Context) error {
	today := s.tracker.Today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	from, err := queryDate(c, "from", monthStart)
	if err != nil {
		return err
	}
	to, err := queryDate(c, "to", monthStart.AddDate(0, 1, -1))
	if err != nil {
		return err
	}
	if to.Before(from) {
		return errs.Invalid("to", errRangeOrder)
	}
	if to.Sub(from) > 366*24*time.Hour {
		return errs.Invalid("to", errRangeTooLong)
	}

	events, err := s.tracker.Calendar(c.Request().Context(), today, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEventResponses(events))
}

func (s *Server) handleFrequencyReport(c echo.Context) error {
	h, err := s.tracker.Histogram(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, schedule.SortedHistogram(h))
}

func (s *Server) handleListMethods(c echo.Context) error {
	methods, err := s.tracker.Methods(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]MethodPayload, 0, len(methods))
	for _, m := range methods {
		out = append(out, toMethodPayload(m))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateMethod(c echo.Context) error {
	var body MethodPayload
	if err := bind(c, &body); err != nil {
		return err
	}
	body.ID = 0

	created, err := s.tracker.SaveMethod(c.Request().Context(), body.toModel())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMethodPayload(*created))
}

func (s *Server) handleUpdateMethod(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var body MethodPayload
	if err := bind(c, &body); err != nil {
		return err
	}
	body.ID = id

	updated, err := s.tracker.SaveMethod(c.Request().Context(), body.toModel())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMethodPayload(*updated))
}

func (s *Server) handleDeleteMethod(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.tracker.DeleteMethod(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
