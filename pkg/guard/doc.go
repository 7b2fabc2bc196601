// Package guard defines the request and result types shared by the guard
// rule evaluator, the confidence aggregator and the explanation generator.
//
// A DecisionRequest describes one proposed use of a metric: which metric,
// which class of decision it will drive, the period analyzed and how much
// data backs it. Optional Signals carry externally computed statistics
// (historical volumes, contributor concentration, segment drift, trend
// direction). Absent signals resolve to documented defaults that let the
// corresponding rules pass.
//
// Evaluation is split across three subpackages:
//
//   - rules: runs the fixed, ordered set of guard rules
//   - aggregate: turns rule outcomes into a confidence score and a status
//   - explain: produces the explanation, suggested action and risk summary
//
// All three are pure functions of their inputs. The decision package wires
// them together and records the result.
package guard
