// Package forecast provides the types and functions to plan a household's
// monthly savings and project them over a finite horizon. It is designed to
// be local-first and deterministic: the same plan always produces the same
// projection.
//
// The core functionalities include:
//   - Plan: a snapshot of income, fixed expenses, savings goals, a portfolio
//     of recurring investments (SIPs) and the simulation assumptions.
//   - Projection Engine: a stateless function that simulates month by month
//     the three savings buckets (emergency fund, short-term savings and
//     investment portfolio), latches the emergency fund completion and
//     reroutes its extra contribution into the portfolio.
//   - Planner: the owner of the live plan and of the last projection, it
//     recomputes the projection on every change.
//   - Data Persistence: encoding and decoding plans and projections to and
//     from human-readable formats (JSON, CSV).
//
// This package serves as the foundational logic for the `fcs` command-line
// tool and for the HTTP API in the server package.
package forecast
