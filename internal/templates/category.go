package templates

import "strings"

// Well-known template categories
const (
	CategoryAggregation     = "aggregation"
	CategoryFraudDetection  = "fraud_detection"
	CategoryWindowFunctions = "window_functions"
	CategoryReporting       = "reporting"
	CategoryDataQuality     = "data_quality"
)

// CategoryInfo is the display metadata for a category
type CategoryInfo struct {
	Name        string
	Title       string
	Description string

	// Alerting categories return rows that need a human to look at them
	Alerting bool
}

var categoryTable = map[string]CategoryInfo{
	CategoryAggregation: {
		Title:       "Aggregation",
		Description: "Averages, totals and counts across the claim book",
	},
	CategoryFraudDetection: {
		Title:       "Fraud detection",
		Description: "Outliers and suspicious claim patterns",
		Alerting:    true,
	},
	CategoryWindowFunctions: {
		Title:       "Window functions",
		Description: "Rankings and running totals per client or car",
	},
	CategoryReporting: {
		Title:       "Reporting",
		Description: "Parameterized lookups for periodic reports",
	},
	CategoryDataQuality: {
		Title:       "Data quality",
		Description: "Orphaned rows and values outside their valid range",
		Alerting:    true,
	},
}

// LookupCategory returns the metadata for name. Categories outside the
// built-in table get a title derived from the name.
func LookupCategory(name string) CategoryInfo {
	info, ok := categoryTable[name]
	if !ok {
		title := strings.ReplaceAll(name, "_", " ")
		if title != "" {
			title = strings.ToUpper(title[:1]) + title[1:]
		}
		info = CategoryInfo{Title: title}
	}
	info.Name = name
	return info
}
