package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/etnz/forecast"
	"github.com/etnz/forecast/chart"
	"github.com/gorilla/mux"
)

// Request bodies use the key names of the plan document. Absent keys are
// left unchanged.

type incomeRequest struct {
	MonthlyIncome *forecast.Money `json:"monthlyIncome"`
}

type fixedRequest struct {
	RentEMI *forecast.Money `json:"rentEmi"`
	Living  *forecast.Money `json:"living"`
}

type goalsRequest struct {
	EmergencyTarget  *forecast.Money `json:"emergencyTarget"`
	EmergencyBase    *forecast.Money `json:"emergencyBaseMonthly"`
	EmergencyExtra   *forecast.Money `json:"emergencyExtraMonthly"`
	ShortTermMonthly *forecast.Money `json:"shortTermMonthly"`
	ShortTermTarget  *forecast.Money `json:"shortTermTarget"`
	ShortTermMonths  *int            `json:"shortTermMonths"`
}

type assumptionsRequest struct {
	PortfolioCAGR *forecast.Percent `json:"portfolioCAGR"`
	EFReturn      *forecast.Percent `json:"efReturn"`
	PlanMonths    *int              `json:"planMonths"`
}

type portfolioRequest struct {
	CurrentValue *forecast.Money `json:"currentValue"`
}

type fundRequest struct {
	Name       string          `json:"name"`
	MonthlySIP *forecast.Money `json:"monthlySIP"`
}

type fundResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	MonthlySIP forecast.Money `json:"monthlySIP"`
}

type addFundResponse struct {
	Fund       fundResponse         `json:"fund"`
	Projection *forecast.Projection `json:"projection"`
}

type queryResponse struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

var errEmptyUpdate = errors.New("nothing to update")

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "plan": s.name})
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.planner.Plan())
}

func (s *Server) handlePutPlan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	plan, err := forecast.DecodePlan(r.Body)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	proj, ok := s.mutate(w, r,
		func(candidate *forecast.Plan) error { *candidate = *plan.Clone(); return nil },
		func() (*forecast.Projection, error) { return s.planner.SetPlan(plan), nil },
	)
	if ok {
		WriteJSON(w, http.StatusOK, proj)
	}
}

func (s *Server) handlePatchIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	proj, ok := s.mutate(w, r,
		func(candidate *forecast.Plan) error {
			if req.MonthlyIncome == nil {
				return fmt.Errorf("%w: monthlyIncome is required", errEmptyUpdate)
			}
			candidate.Income = req.MonthlyIncome.In(candidate.Currency)
			return nil
		},
		func() (*forecast.Projection, error) { return s.planner.UpdateIncome(*req.MonthlyIncome), nil },
	)
	if ok {
		WriteJSON(w, http.StatusOK, proj)
	}
}

func (s *Server) handlePatchFixed(w http.ResponseWriter, r *http.Request) {
	var req fixedRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	u := forecast.FixedUpdate{RentEMI: req.RentEMI, Living: req.Living}
	s.patch(w, r, u.Apply, func() *forecast.Projection { return s.planner.UpdateFixed(u) })
}

func (s *Server) handlePatchGoals(w http.ResponseWriter, r *http.Request) {
	var req goalsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	u := forecast.GoalsUpdate{
		EmergencyTarget:  req.EmergencyTarget,
		EmergencyBase:    req.EmergencyBase,
		EmergencyExtra:   req.EmergencyExtra,
		ShortTermMonthly: req.ShortTermMonthly,
		ShortTermTarget:  req.ShortTermTarget,
		ShortTermMonths:  req.ShortTermMonths,
	}
	s.patch(w, r, u.Apply, func() *forecast.Projection { return s.planner.UpdateGoals(u) })
}

func (s *Server) handlePatchAssumptions(w http.ResponseWriter, r *http.Request) {
	var req assumptionsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	u := forecast.AssumptionsUpdate{
		PortfolioCAGR: req.PortfolioCAGR,
		EFReturn:      req.EFReturn,
		PlanMonths:    req.PlanMonths,
	}
	s.patch(w, r, u.Apply, func() *forecast.Projection { return s.planner.UpdateAssumptions(u) })
}

func (s *Server) handlePatchPortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	proj, ok := s.mutate(w, r,
		func(candidate *forecast.Plan) error {
			if req.CurrentValue == nil {
				return fmt.Errorf("%w: currentValue is required", errEmptyUpdate)
			}
			candidate.Portfolio.CurrentValue = req.CurrentValue.In(candidate.Currency)
			return nil
		},
		func() (*forecast.Projection, error) {
			return s.planner.UpdatePortfolioCurrentValue(*req.CurrentValue), nil
		},
	)
	if ok {
		WriteJSON(w, http.StatusOK, proj)
	}
}

// patch runs a partial update that cannot fail on the planner side.
func (s *Server) patch(w http.ResponseWriter, r *http.Request, edit func(*forecast.Plan), apply func() *forecast.Projection) {
	proj, ok := s.mutate(w, r,
		func(candidate *forecast.Plan) error { edit(candidate); return nil },
		func() (*forecast.Projection, error) { return apply(), nil },
	)
	if ok {
		WriteJSON(w, http.StatusOK, proj)
	}
}

func (s *Server) handleAddFund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	var sip forecast.Money
	if req.MonthlySIP != nil {
		sip = *req.MonthlySIP
	}

	id := forecast.NewFundID()
	var fund forecast.Fund
	proj, ok := s.mutate(w, r,
		func(candidate *forecast.Plan) error {
			if req.Name == "" {
				return errors.New("fund name is required")
			}
			candidate.Portfolio.Funds = append(candidate.Portfolio.Funds, forecast.Fund{
				ID:         id,
				Name:       req.Name,
				MonthlySIP: sip.In(candidate.Currency),
			})
			return nil
		},
		func() (*forecast.Projection, error) {
			var err error
			if fund, err = s.planner.AddFundWithID(id, req.Name, sip); err != nil {
				return nil, err
			}
			return s.planner.Projection(), nil
		},
	)
	if !ok {
		return
	}
	w.Header().Set("Location", "/plan/funds/"+fund.ID)
	WriteJSON(w, http.StatusCreated, addFundResponse{
		Fund:       fundResponse{ID: fund.ID, Name: fund.Name, MonthlySIP: fund.MonthlySIP},
		Projection: proj,
	})
}

func (s *Server) handlePatchFund(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req fundRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	proj, ok := s.mutate(w, r,
		func(candidate *forecast.Plan) error {
			if req.MonthlySIP == nil {
				return fmt.Errorf("%w: monthlySIP is required", errEmptyUpdate)
			}
			i := candidate.Portfolio.Fund(id)
			if i < 0 {
				return fmt.Errorf("cannot update SIP of %q: %w", id, forecast.ErrFundNotFound)
			}
			candidate.Portfolio.Funds[i].MonthlySIP = req.MonthlySIP.In(candidate.Currency)
			return nil
		},
		func() (*forecast.Projection, error) { return s.planner.UpdateFundSIP(id, *req.MonthlySIP) },
	)
	if ok {
		WriteJSON(w, http.StatusOK, proj)
	}
}

func (s *Server) handleRemoveFund(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	proj, ok := s.mutate(w, r,
		func(candidate *forecast.Plan) error {
			if candidate.Portfolio.Fund(id) < 0 {
				return fmt.Errorf("cannot remove %q: %w", id, forecast.ErrFundNotFound)
			}
			return nil
		},
		func() (*forecast.Projection, error) { return s.planner.RemoveFund(id) },
	)
	if ok {
		WriteJSON(w, http.StatusOK, proj)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	proj, ok := s.mutate(w, r,
		func(candidate *forecast.Plan) error {
			*candidate = *forecast.DefaultPlanIn(candidate.Currency)
			return nil
		},
		func() (*forecast.Projection, error) { return s.planner.Reset(), nil },
	)
	if ok {
		WriteJSON(w, http.StatusOK, proj)
	}
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.planner.Projection())
}

// xlsxContentType is the media type of an Office Open XML workbook.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleProjectionCSV(w http.ResponseWriter, r *http.Request) {
	s.writeDownload(w, forecast.WriteCSV, "text/csv", ".csv")
}

func (s *Server) handleProjectionXLSX(w http.ResponseWriter, r *http.Request) {
	s.writeDownload(w, forecast.WriteXLSX, xlsxContentType, ".xlsx")
}

// writeDownload renders the current plan with write and sends it as an
// attachment named after the plan.
func (s *Server) writeDownload(w http.ResponseWriter, write func(io.Writer, *forecast.Plan, *forecast.Projection) error, contentType, ext string) {
	plan, proj := s.planner.Snapshot()
	var buf bytes.Buffer
	if err := write(&buf, plan, proj); err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.name+ext))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, forecast.NewSummary(s.planner.Snapshot()))
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	format, err := chart.ParseFormat(vars["format"])
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, proj := s.planner.Snapshot()
	var data []byte
	switch vars["name"] {
	case "networth":
		data, err = chart.NetWorth(proj, format)
	case "ef":
		data, err = chart.EmergencyFund(proj, plan.Goals.EmergencyTarget, format)
	case "allocation":
		data, err = chart.Allocation(forecast.NewAllocation(plan, proj), format)
	default:
		WriteError(w, http.StatusNotFound, fmt.Sprintf("unknown chart %q", vars["name"]))
		return
	}
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "path is required")
		return
	}
	v, err := forecast.Query(s.planner.Projection(), path)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, queryResponse{Path: path, Value: v})
}
