package forecast

import (
	"time"

	"github.com/etnz/forecast/date"
)

// INR is a helper for test to create rupees from const.
func INR(v float64) Money { return M(v, "INR") }

// NO is a helper for test to create money from const with no currency set.
func NO(v float64) Money { return M(v, "") }

// jan25 is the first month of every projection computed in tests.
var jan25 = date.New(2025, time.January, 1)

// zeroRatePlan is a plan whose figures can be checked by hand: no growth,
// the emergency fund completes on month 1.
func zeroRatePlan() *Plan {
	return &Plan{
		Currency: "INR",
		Income:   INR(100000),
		Fixed:    FixedExpenses{RentEMI: INR(20000), Living: INR(10000)},
		Goals: Goals{
			EmergencyTarget:  INR(60000),
			EmergencyBase:    INR(10000),
			EmergencyExtra:   INR(20000),
			ShortTermMonthly: INR(1000),
		},
		Portfolio: Portfolio{
			CurrentValue: INR(100000),
			Funds: []Fund{
				{ID: "a", Name: "Alpha", MonthlySIP: INR(3000)},
				{ID: "b", Name: "Beta", MonthlySIP: INR(2000)},
			},
		},
		Assumptions: Assumptions{PlanMonths: 4},
	}
}
