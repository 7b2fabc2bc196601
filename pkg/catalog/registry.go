package catalog

// DefaultDefinitions returns the built-in metric registry.
func DefaultDefinitions() []*MetricDefinition {
	return []*MetricDefinition{
		metric("revenue", "Revenue", CategoryRevenue, 100, 24, []string{"churn", "cac"}, DecisionPricing, DecisionGrowth),
		metric("margin", "Margin", CategoryRevenue, 100, 24, []string{"revenue", "volume"}, DecisionPricing, DecisionOperations),
		metric("arpu", "ARPU", CategoryRevenue, 50, 24, []string{"retention", "churn"}, DecisionPricing, DecisionGrowth),
		metric("elasticity", "Price Elasticity", CategoryRevenue, 200, 48, []string{"margin", "volume"}, DecisionPricing),
		metric("acquisition", "User Acquisition", CategoryEngagement, 100, 24, []string{"cac", "retention"}, DecisionGrowth, DecisionMarketing),
		metric("retention", "Retention Rate", CategoryRetention, 200, 168, []string{"churn", "ltv"}, DecisionGrowth, DecisionProduct),
		metric("ltv", "Lifetime Value", CategoryRevenue, 100, 168, []string{"cac", "churn"}, DecisionGrowth, DecisionPricing),
		metric("churn", "Churn Rate", CategoryRetention, 100, 168, []string{"retention", "nps"}, DecisionGrowth, DecisionProduct),
		metric("cac", "Customer Acquisition Cost", CategoryCost, 50, 24, []string{"ltv", "conversion"}, DecisionMarketing, DecisionGrowth),
		metric("roas", "Return on Ad Spend", CategoryEfficiency, 100, 24, []string{"cac", "conversion"}, DecisionMarketing),
		metric("conversion", "Conversion Rate", CategoryConversion, 200, 24, []string{"revenue", "engagement"}, DecisionMarketing, DecisionProduct),
		metric("engagement", "Engagement", CategoryEngagement, 500, 24, []string{"retention", "conversion"}, DecisionProduct, DecisionMarketing),
		metric("nps", "Net Promoter Score", CategoryEngagement, 100, 168, []string{"churn", "retention"}, DecisionProduct),
		metric("adoption", "Feature Adoption", CategoryEngagement, 100, 24, []string{"engagement", "retention"}, DecisionProduct),
		metric("efficiency", "Operational Efficiency", CategoryEfficiency, 50, 24, []string{"cost", "quality"}, DecisionOperations),
		metric("cost", "Cost per Unit", CategoryCost, 100, 24, []string{"margin", "efficiency"}, DecisionOperations, DecisionPricing),
		metric("throughput", "Throughput", CategoryEfficiency, 100, 12, []string{"quality", "cost"}, DecisionOperations),
		metric("quality", "Quality Score", CategoryEfficiency, 50, 24, []string{"throughput", "cost"}, DecisionOperations, DecisionProduct),
	}
}

func metric(id, name string, category MetricCategory, minSample, refreshHours int, counters []string, allowed ...DecisionType) *MetricDefinition {
	return &MetricDefinition{
		ID:               id,
		Name:             name,
		AllowedDecisions: allowed,
		MinSampleSize:    minSample,
		RefreshHours:     refreshHours,
		CounterMetrics:   counters,
		Category:         category,
	}
}
