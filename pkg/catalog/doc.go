// Package catalog provides the metric catalog consulted by the guard rules.
//
// The catalog maps a metric identifier to its certification metadata: the
// decision classes the metric may drive, the minimum sample size below which
// results are not trusted, and how often the underlying data refreshes.
//
// # Lookup
//
// Identifiers are normalized before every lookup (lowercased, whitespace
// removed), so "Net Revenue" and "netrevenue" resolve to the same entry.
// A miss is reported through the boolean return value and is never an error:
//
//	def, ok := cat.Get("Revenue")
//	if !ok {
//	    // unknown metric, treat as unverifiable
//	}
//
// # Sources
//
// MemoryCatalog holds definitions in memory and can be swapped atomically.
// NewDefaultCatalog seeds it with the built-in registry. LoadFile reads a
// YAML catalog file:
//
//	metrics:
//	  - id: revenue
//	    name: Revenue
//	    allowed_decisions: [pricing, growth]
//	    min_sample_size: 100
//	    refresh_hours: 24
//	    counter_metrics: [churn, cac]
//	    category: revenue
//
// Watcher reloads a file-backed catalog whenever the file changes on disk.
//
// # Certification
//
// Certify summarizes which decision classes a metric is safe for and emits
// warnings for metrics with demanding sample sizes or slow refresh rates.
package catalog
