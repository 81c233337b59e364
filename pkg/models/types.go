package models

import "time"

// SalesRecord represents a single normalized sales transaction row.
type SalesRecord struct {
	OrderDate   time.Time `json:"order_date"`
	Sales       float64   `json:"sales"`
	Profit      float64   `json:"profit"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	Segment     string    `json:"segment"`
	SubCategory string    `json:"sub_category,omitempty"`
	Quantity    float64   `json:"quantity"`
}

// Dataset holds the normalized table produced by the loader, plus the
// observed bounds surfaced for UI defaults.
type Dataset struct {
	FileName       string        `json:"file_name"`
	Rows           []SalesRecord `json:"rows"`
	HasSubCategory bool          `json:"has_sub_category"`
	MinDate        time.Time     `json:"min_date"`
	MaxDate        time.Time     `json:"max_date"`
	Regions        []string      `json:"regions"`
	Categories     []string      `json:"categories"`
}

// FilterParams selects a view of the dataset. Date bounds are inclusive on
// both ends; an empty Regions or Categories set selects nothing.
type FilterParams struct {
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Regions    []string  `json:"regions"`
	Categories []string  `json:"categories"`
}

// MonthlySales is one point of the monthly sales series. Month is rendered
// as "YYYY-MM".
type MonthlySales struct {
	Month string  `json:"month"`
	Sales float64 `json:"sales"`
}

// GroupSales is one ranked entry of the top/bottom performer lists.
type GroupSales struct {
	Name  string  `json:"name"`
	Sales float64 `json:"sales"`
}

// RegionPerformance sums sales and profit for one region.
type RegionPerformance struct {
	Region string  `json:"region"`
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
}

// AnalysisResult is the full set of derived metrics for one filtered view.
// It is recomputed whenever the filter changes and is otherwise immutable.
type AnalysisResult struct {
	TotalSales      float64             `json:"total_sales"`
	TotalProfit     float64             `json:"total_profit"`
	AvgProfitMargin float64             `json:"avg_profit_margin"` // percent, 0 when total sales is 0
	MonthlySales    []MonthlySales      `json:"monthly_sales"`
	GroupColumn     string              `json:"group_column"` // "Sub-Category" or "Category"
	TopProducts     []GroupSales        `json:"top_products"`
	TopDeclines     []GroupSales        `json:"top_declines"`
	RegionPerf      []RegionPerformance `json:"region_perf"`
	CategoryContrib map[string]float64  `json:"category_contrib"` // percent of total sales
	RegionContrib   map[string]float64  `json:"region_contrib"`   // percent of total sales
	RowCount        int                 `json:"row_count"`
	// Anomalies is nil when the series is too short to compute a standard
	// deviation, and an empty slice when computed with none found.
	Anomalies []MonthlySales `json:"anomalies"`
}

// ChatTurn is one completed conversational exchange. Turns accumulate
// append-only for the life of the session.
type ChatTurn struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Context  string `json:"context"` // snippet of the context sent to the model
	AskedAt  string `json:"asked_at"`
}

// Session owns everything one user works with: the normalized table, the
// active filter selection, the memoized analysis and the chat history.
// There is no durable persistence; a session lives only in memory.
type Session struct {
	ID        string       `json:"id"`
	Dataset   *Dataset     `json:"-"`
	Filter    FilterParams `json:"filter"`
	ChatLog   []ChatTurn   `json:"-"`
	CreatedAt time.Time    `json:"created_at"`

	// memoized analyzer output, keyed by the filter's structural key
	CachedKey      string          `json:"-"`
	CachedAnalysis *AnalysisResult `json:"-"`
}

// UploadResponse is returned after a successful dataset upload.
type UploadResponse struct {
	Success    bool     `json:"success"`
	SessionID  string   `json:"session_id"`
	RowCount   int      `json:"row_count"`
	MinDate    string   `json:"min_date"`
	MaxDate    string   `json:"max_date"`
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
}

// FilterRequest updates the active filter selection of a session.
type FilterRequest struct {
	StartDate  string   `json:"start_date" binding:"required"`
	EndDate    string   `json:"end_date" binding:"required"`
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
}

// InsightRequest asks for a one-shot persona-framed insight.
type InsightRequest struct {
	Persona string `json:"persona" binding:"required"`
}

// InsightResponse carries the generated insight text verbatim.
type InsightResponse struct {
	Success bool   `json:"success"`
	Persona string `json:"persona"`
	Insight string `json:"insight"`
}

// ChatRequest is an ad-hoc question against the filtered data.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// ChatResponse carries the model's answer plus the context snippet that was
// embedded into the prompt.
type ChatResponse struct {
	Success bool   `json:"success"`
	Answer  string `json:"answer"`
	Context string `json:"context"`
}

// PersonaKPI is one labeled KPI cell of the persona dashboard row.
type PersonaKPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta,omitempty"`
}
