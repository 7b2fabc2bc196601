// Package rules implements the guard rule evaluator.
//
// The rule set is a fixed, ordered table of descriptors. Each descriptor
// names the rule, its category and weight, and points at a pure check
// function. Evaluation walks the table in order so results always appear as
// A1, A2, B1, B2, C1, C2, D1, D2:
//
//	A1  Data Freshness             data_integrity  0.30
//	A2  Partial Data Detection     data_integrity  0.30
//	B1  Minimum Sample Threshold   sample_size     0.25
//	B2  Comparison Validity        sample_size     0.25
//	C1  Contributor Concentration  bias            0.25
//	C2  Segment Drift              bias            0.25
//	D1  Vanity Metric Detection    metric_misuse   0.20
//	D2  Metric-Decision Match      metric_misuse   0.20
//
// Adding a rule means appending a descriptor to the table. Thresholds are
// configurable through Thresholds; DefaultThresholds matches the documented
// behavior.
package rules
