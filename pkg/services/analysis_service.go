package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"insightforge-api/pkg/models"
)

// AnalysisService filters the normalized table and computes the full set of
// derived metrics. It never fails: every numeric edge case degrades to a
// documented default instead of an error.
type AnalysisService struct{}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService() *AnalysisService {
	return &AnalysisService{}
}

// FilterKey builds the structural key used to memoize analysis per filter
// selection. Region and category order does not affect the key.
func (as *AnalysisService) FilterKey(p models.FilterParams) string {
	regions := append([]string(nil), p.Regions...)
	categories := append([]string(nil), p.Categories...)
	sort.Strings(regions)
	sort.Strings(categories)
	return fmt.Sprintf("%s..%s|r:%s|c:%s",
		p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"),
		strings.Join(regions, ","), strings.Join(categories, ","))
}

// ApplyFilter selects the rows matching the filter parameters. Date bounds
// are inclusive on both ends; an empty region or category set selects
// nothing. Rows are never mutated.
func (as *AnalysisService) ApplyFilter(dataset *models.Dataset, p models.FilterParams) []models.SalesRecord {
	regionSet := make(map[string]struct{}, len(p.Regions))
	for _, r := range p.Regions {
		regionSet[r] = struct{}{}
	}
	categorySet := make(map[string]struct{}, len(p.Categories))
	for _, c := range p.Categories {
		categorySet[c] = struct{}{}
	}

	filtered := make([]models.SalesRecord, 0, len(dataset.Rows))
	for _, row := range dataset.Rows {
		if row.OrderDate.Before(p.StartDate) || row.OrderDate.After(p.EndDate) {
			continue
		}
		if _, ok := regionSet[row.Region]; !ok {
			continue
		}
		if _, ok := categorySet[row.Category]; !ok {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// AnalyzeSession runs the analyzer against the session's current filter,
// reusing the cached result while the filter's structural key is unchanged.
func (as *AnalysisService) AnalyzeSession(session *models.Session) *models.AnalysisResult {
	key := as.FilterKey(session.Filter)
	if session.CachedAnalysis != nil && session.CachedKey == key {
		return session.CachedAnalysis
	}
	rows := as.ApplyFilter(session.Dataset, session.Filter)
	result := as.Analyze(session.Dataset, rows)
	session.CachedKey = key
	session.CachedAnalysis = result
	return result
}

// Analyze computes the Analysis Result for a filtered view. Deterministic
// for identical row sets regardless of input order.
func (as *AnalysisService) Analyze(dataset *models.Dataset, rows []models.SalesRecord) *models.AnalysisResult {
	result := &models.AnalysisResult{
		RowCount:        len(rows),
		CategoryContrib: make(map[string]float64),
		RegionContrib:   make(map[string]float64),
		TopProducts:     []models.GroupSales{},
		TopDeclines:     []models.GroupSales{},
		MonthlySales:    []models.MonthlySales{},
		RegionPerf:      []models.RegionPerformance{},
	}

	result.GroupColumn = "Category"
	if dataset.HasSubCategory {
		result.GroupColumn = "Sub-Category"
	}

	monthlySums := make(map[string]float64)
	groupSums := make(map[string]float64)
	regionSales := make(map[string]float64)
	regionProfit := make(map[string]float64)
	categorySales := make(map[string]float64)

	for _, row := range rows {
		result.TotalSales += row.Sales
		result.TotalProfit += row.Profit

		monthlySums[row.OrderDate.Format("2006-01")] += row.Sales

		groupName := row.Category
		if dataset.HasSubCategory {
			groupName = row.SubCategory
		}
		groupSums[groupName] += row.Sales

		regionSales[row.Region] += row.Sales
		regionProfit[row.Region] += row.Profit
		categorySales[row.Category] += row.Sales
	}

	if result.TotalSales > 0 {
		result.AvgProfitMargin = result.TotalProfit / result.TotalSales * 100
	}

	// monthly series, chronologically sorted ("2006-01" keys sort naturally)
	for month, sales := range monthlySums {
		result.MonthlySales = append(result.MonthlySales, models.MonthlySales{Month: month, Sales: sales})
	}
	sort.Slice(result.MonthlySales, func(i, j int) bool {
		return result.MonthlySales[i].Month < result.MonthlySales[j].Month
	})

	ranked := rankGroups(groupSums)
	result.TopProducts = topN(ranked, 10, false)
	result.TopDeclines = topN(ranked, 3, true)

	for region, sales := range regionSales {
		result.RegionPerf = append(result.RegionPerf, models.RegionPerformance{
			Region: region,
			Sales:  sales,
			Profit: regionProfit[region],
		})
	}
	sort.Slice(result.RegionPerf, func(i, j int) bool {
		return result.RegionPerf[i].Region < result.RegionPerf[j].Region
	})

	if result.TotalSales > 0 {
		for category, sales := range categorySales {
			result.CategoryContrib[category] = sales / result.TotalSales * 100
		}
		for region, sales := range regionSales {
			result.RegionContrib[region] = sales / result.TotalSales * 100
		}
	}

	result.Anomalies = detectMonthlyAnomalies(result.MonthlySales)

	return result
}

// detectMonthlyAnomalies flags months deviating from the mean monthly sales
// by more than 2 sample standard deviations (n-1 denominator, matching the
// original dashboard). Returns nil when fewer than 2 months exist, and an
// empty slice when computed with none found.
func detectMonthlyAnomalies(series []models.MonthlySales) []models.MonthlySales {
	if len(series) < 2 {
		return nil
	}

	var sum float64
	for _, m := range series {
		sum += m.Sales
	}
	mean := sum / float64(len(series))

	var sumSquaredDiff float64
	for _, m := range series {
		diff := m.Sales - mean
		sumSquaredDiff += diff * diff
	}
	stdDev := math.Sqrt(sumSquaredDiff / float64(len(series)-1))

	anomalies := []models.MonthlySales{}
	if stdDev == 0 {
		return anomalies
	}
	for _, m := range series {
		if math.Abs(m.Sales-mean) > 2*stdDev {
			anomalies = append(anomalies, m)
		}
	}
	return anomalies
}

// rankGroups sorts group sums descending by sales, name ascending on ties so
// the ranking is deterministic.
func rankGroups(sums map[string]float64) []models.GroupSales {
	ranked := make([]models.GroupSales, 0, len(sums))
	for name, sales := range sums {
		ranked = append(ranked, models.GroupSales{Name: name, Sales: sales})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Sales != ranked[j].Sales {
			return ranked[i].Sales > ranked[j].Sales
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// topN takes the first n of a descending ranking, or the last n reversed
// when fromBottom is set (lowest sales first).
func topN(ranked []models.GroupSales, n int, fromBottom bool) []models.GroupSales {
	out := []models.GroupSales{}
	if fromBottom {
		for i := len(ranked) - 1; i >= 0 && len(out) < n; i-- {
			out = append(out, ranked[i])
		}
		return out
	}
	for i := 0; i < len(ranked) && i < n; i++ {
		out = append(out, ranked[i])
	}
	return out
}

// PersonaKPIs returns the persona-specific KPI row shown on the dashboard.
// Content parameters are identical across personas, only the selection of
// metrics differs.
func (as *AnalysisService) PersonaKPIs(result *models.AnalysisResult, persona string) []models.PersonaKPI {
	switch persona {
	case "Sales Manager":
		topRegion := models.RegionPerformance{}
		for _, rp := range result.RegionPerf {
			if rp.Sales > topRegion.Sales {
				topRegion = rp
			}
		}
		return []models.PersonaKPI{
			{Label: "Top Region", Value: topRegion.Region, Delta: "$" + formatAmount(topRegion.Sales)},
			{Label: "Top Products", Value: fmt.Sprintf("%d", len(result.TopProducts))},
			{Label: "Anomalies Detected", Value: fmt.Sprintf("%d", len(result.Anomalies))},
		}
	case "Analyst":
		avgMonthly := 0.0
		highestMonth := ""
		highestSales := math.Inf(-1)
		for _, m := range result.MonthlySales {
			avgMonthly += m.Sales
			if m.Sales > highestSales {
				highestSales = m.Sales
				highestMonth = m.Month
			}
		}
		if len(result.MonthlySales) > 0 {
			avgMonthly /= float64(len(result.MonthlySales))
		}
		return []models.PersonaKPI{
			{Label: "Avg Monthly Sales", Value: "$" + formatAmount(avgMonthly)},
			{Label: "Highest Month", Value: highestMonth},
			{Label: "Profit Margin", Value: fmt.Sprintf("%.1f%%", result.AvgProfitMargin)},
		}
	default: // Executive
		return []models.PersonaKPI{
			{Label: "Total Sales", Value: "$" + formatAmount(result.TotalSales)},
			{Label: "Total Profit", Value: "$" + formatAmount(result.TotalProfit)},
			{Label: "Profit Margin", Value: fmt.Sprintf("%.1f%%", result.AvgProfitMargin)},
		}
	}
}

// formatAmount renders a currency amount with thousands separators and no
// decimal places, e.g. 446000 -> "446,000".
func formatAmount(v float64) string {
	neg := v < 0
	s := fmt.Sprintf("%.0f", math.Abs(v))
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

// SampleDataset returns the built-in 12-month demo table shown before any
// upload, one row per month of 2023.
func SampleDataset() *models.Dataset {
	sales := []float64{22000, 28000, 25000, 32000, 38000, 35000, 40000, 42000, 39000, 45000, 48000, 52000}
	profit := []float64{3000, 4200, 3800, 5800, 7200, 6500, 8000, 8500, 7800, 9200, 9800, 11000}
	categories := []string{"Technology", "Furniture", "Office Supplies"}
	regions := []string{"West", "East", "Central", "South"}
	segments := []string{"Consumer", "Corporate", "Home Office"}
	subCategories := []string{"Phones", "Chairs", "Binders", "Machines", "Tables", "Storage"}

	dataset := &models.Dataset{
		FileName:       "sample.csv",
		HasSubCategory: true,
	}
	regionSet := make(map[string]struct{})
	categorySet := make(map[string]struct{})

	for i := 0; i < 12; i++ {
		// last day of each month, mirroring a month-end date range
		date := time.Date(2023, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
		record := models.SalesRecord{
			OrderDate:   date,
			Sales:       sales[i],
			Profit:      profit[i],
			Category:    categories[i%len(categories)],
			Region:      regions[i%len(regions)],
			Segment:     segments[i%len(segments)],
			SubCategory: subCategories[i%len(subCategories)],
			Quantity:    deriveQuantity(sales[i], profit[i]),
		}
		if i == 0 {
			dataset.MinDate = date
		}
		dataset.MaxDate = date
		regionSet[record.Region] = struct{}{}
		categorySet[record.Category] = struct{}{}
		dataset.Rows = append(dataset.Rows, record)
	}

	dataset.Regions = sortedKeys(regionSet)
	dataset.Categories = sortedKeys(categorySet)
	return dataset
}
