package forecast

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/etnz/forecast/date"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrFundNotFound is returned when a fund id is not part of the portfolio.
var ErrFundNotFound = errors.New("fund not found")

// ErrDuplicateFund is returned when a fund id is already in the portfolio.
var ErrDuplicateFund = errors.New("fund already exists")

// Planner owns the live plan and the last projection computed from it.
//
// Every mutation replaces the projection wholesale. A Planner is safe for
// concurrent use.
type Planner struct {
	mu             sync.RWMutex
	plan           *Plan
	projection     *Projection
	lastComputedAt time.Time
	now            func() time.Time
	log            *logrus.Logger
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithClock sets the clock used for projection labels and timestamps.
func WithClock(now func() time.Time) PlannerOption {
	return func(p *Planner) { p.now = now }
}

// WithLogger sets the logger, the default one discards everything.
func WithLogger(log *logrus.Logger) PlannerOption {
	return func(p *Planner) { p.log = log }
}

// NewPlanner returns a Planner owning a copy of plan (DefaultPlan if nil),
// with its projection already computed.
func NewPlanner(plan *Plan, opts ...PlannerOption) *Planner {
	if plan == nil {
		plan = DefaultPlan()
	}
	p := &Planner{
		plan: plan.Clone(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logrus.New()
		p.log.SetOutput(io.Discard)
	}
	p.recompute()
	return p
}

// Plan returns a copy of the current plan.
func (p *Planner) Plan() *Plan {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.plan.Clone()
}

// Projection returns the last computed projection. It must not be modified.
func (p *Planner) Projection() *Projection {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.projection
}

// Snapshot returns a copy of the current plan and the projection computed
// from it, read together.
func (p *Planner) Snapshot() (*Plan, *Projection) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.plan.Clone(), p.projection
}

// LastComputedAt returns when the projection was last computed.
func (p *Planner) LastComputedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastComputedAt
}

// Recompute runs the projection engine on the current plan.
func (p *Planner) Recompute() *Projection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recompute()
}

// recompute must be called with the lock held.
func (p *Planner) recompute() *Projection {
	now := p.now()
	p.projection = ComputeAt(p.plan.Inputs(), date.Of(now))
	p.lastComputedAt = now

	entry := p.log.WithFields(logrus.Fields{
		"months":    len(p.projection.Points),
		"net_worth": p.projection.Last().NetWorth.value.String(),
	})
	if c := p.projection.EFCompletion; c != nil {
		entry = entry.WithField("ef_completion", *c)
	}
	entry.Debug("projection recomputed")
	return p.projection
}

// update applies f to the plan and recomputes.
func (p *Planner) update(f func(plan *Plan)) *Projection {
	p.mu.Lock()
	defer p.mu.Unlock()
	f(p.plan)
	return p.recompute()
}

// SetPlan replaces the whole plan.
func (p *Planner) SetPlan(plan *Plan) *Projection {
	return p.update(func(current *Plan) { *current = *plan.Clone() })
}

// UpdateIncome sets the monthly income.
func (p *Planner) UpdateIncome(v Money) *Projection {
	return p.update(func(plan *Plan) { plan.Income = v.In(plan.Currency) })
}

// FixedUpdate is a partial update of FixedExpenses, nil fields are left unchanged.
type FixedUpdate struct {
	RentEMI *Money
	Living  *Money
}

// Apply updates plan in place.
func (u FixedUpdate) Apply(plan *Plan) {
	set(&plan.Fixed.RentEMI, u.RentEMI, plan.Currency)
	set(&plan.Fixed.Living, u.Living, plan.Currency)
}

// UpdateFixed applies a partial update of the fixed expenses.
func (p *Planner) UpdateFixed(u FixedUpdate) *Projection { return p.update(u.Apply) }

// GoalsUpdate is a partial update of Goals, nil fields are left unchanged.
type GoalsUpdate struct {
	EmergencyTarget  *Money
	EmergencyBase    *Money
	EmergencyExtra   *Money
	ShortTermMonthly *Money
	ShortTermTarget  *Money
	ShortTermMonths  *int
}

// Apply updates plan in place.
func (u GoalsUpdate) Apply(plan *Plan) {
	g := &plan.Goals
	set(&g.EmergencyTarget, u.EmergencyTarget, plan.Currency)
	set(&g.EmergencyBase, u.EmergencyBase, plan.Currency)
	set(&g.EmergencyExtra, u.EmergencyExtra, plan.Currency)
	set(&g.ShortTermMonthly, u.ShortTermMonthly, plan.Currency)
	set(&g.ShortTermTarget, u.ShortTermTarget, plan.Currency)
	if u.ShortTermMonths != nil {
		g.ShortTermMonths = *u.ShortTermMonths
	}
}

// UpdateGoals applies a partial update of the goals.
func (p *Planner) UpdateGoals(u GoalsUpdate) *Projection { return p.update(u.Apply) }

// AssumptionsUpdate is a partial update of Assumptions, nil fields are left unchanged.
type AssumptionsUpdate struct {
	PortfolioCAGR *Percent
	EFReturn      *Percent
	PlanMonths    *int
}

// UpdateAssumptions applies a partial update of the assumptions.
func (p *Planner) UpdateAssumptions(u AssumptionsUpdate) *Projection { return p.update(u.Apply) }

// Apply updates plan in place.
func (u AssumptionsUpdate) Apply(plan *Plan) {
	a := &plan.Assumptions
	if u.PortfolioCAGR != nil {
		a.PortfolioCAGR = *u.PortfolioCAGR
	}
	if u.EFReturn != nil {
		a.EFReturn = *u.EFReturn
	}
	if u.PlanMonths != nil {
		a.PlanMonths = *u.PlanMonths
	}
}

// UpdatePortfolioCurrentValue sets the portfolio value at month 0.
func (p *Planner) UpdatePortfolioCurrentValue(v Money) *Projection {
	return p.update(func(plan *Plan) { plan.Portfolio.CurrentValue = v.In(plan.Currency) })
}

// UpdateFundSIP sets the monthly SIP of the fund id.
func (p *Planner) UpdateFundSIP(id string, sip Money) (*Projection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.plan.Portfolio.Fund(id)
	if i < 0 {
		return nil, fmt.Errorf("cannot update SIP of %q: %w", id, ErrFundNotFound)
	}
	p.plan.Portfolio.Funds[i].MonthlySIP = sip.In(p.plan.Currency)
	return p.recompute(), nil
}

// AddFund appends a new fund to the portfolio and returns it.
func (p *Planner) AddFund(name string, sip Money) Fund {
	f, _ := p.AddFundWithID(NewFundID(), name, sip)
	return f
}

// AddFundWithID appends a new fund with the given id. The id must not be
// empty nor already in the portfolio.
func (p *Planner) AddFundWithID(id, name string, sip Money) (Fund, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == "" {
		return Fund{}, errors.New("cannot add a fund without id")
	}
	if p.plan.Portfolio.Fund(id) >= 0 {
		return Fund{}, fmt.Errorf("cannot add %q: %w", id, ErrDuplicateFund)
	}
	f := Fund{ID: id, Name: name, MonthlySIP: sip.In(p.plan.Currency)}
	p.plan.Portfolio.Funds = append(p.plan.Portfolio.Funds, f)
	p.recompute()
	return f, nil
}

// RemoveFund removes the fund id from the portfolio.
func (p *Planner) RemoveFund(id string) (*Projection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.plan.Portfolio.Fund(id)
	if i < 0 {
		return nil, fmt.Errorf("cannot remove %q: %w", id, ErrFundNotFound)
	}
	funds := p.plan.Portfolio.Funds
	p.plan.Portfolio.Funds = append(funds[:i:i], funds[i+1:]...)
	return p.recompute(), nil
}

// Reset restores the default plan, keeping the plan's currency.
func (p *Planner) Reset() *Projection {
	return p.update(func(plan *Plan) {
		*plan = *DefaultPlanIn(plan.Currency)
	})
}

// NewFundID returns a new unique fund id.
func NewFundID() string { return "f-" + uuid.NewString() }

func set(dst *Money, v *Money, currency string) {
	if v != nil {
		*dst = v.In(currency)
	}
}
