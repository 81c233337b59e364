package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"insightforge-api/pkg/models"

	"github.com/google/uuid"
)

// Personas supported by the insight summarizer. The persona changes prompt
// phrasing only, never computed values.
const (
	PersonaExecutive    = "Executive"
	PersonaSalesManager = "Sales Manager"
	PersonaAnalyst      = "Analyst"
)

const (
	maxSampleRows          = 20
	maxSampleJSONChars     = 1500
	maxContextSnippetChars = 600
)

// TextGenerator is the boundary to the external text-generation
// collaborator: prompt in, text out. The production implementation is the
// Gemini client; tests substitute a stub.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// InsightService reduces an Analysis Result into compact natural-language
// prompts and forwards them to the text-generation collaborator.
type InsightService struct {
	generator TextGenerator
	analysis  *AnalysisService
}

// NewInsightService creates a new InsightService.
func NewInsightService(generator TextGenerator, analysis *AnalysisService) *InsightService {
	return &InsightService{
		generator: generator,
		analysis:  analysis,
	}
}

// ValidPersona reports whether p is one of the fixed persona set.
func ValidPersona(p string) bool {
	switch p {
	case PersonaExecutive, PersonaSalesManager, PersonaAnalyst:
		return true
	}
	return false
}

// BuildSummary renders the fixed-format analysis summary embedded into every
// insight prompt.
func (is *InsightService) BuildSummary(result *models.AnalysisResult) string {
	declines := groupNames(result.TopDeclines, 3)
	growth := groupNames(result.TopProducts, 3)

	anomalies := []string{"None"}
	if len(result.Anomalies) > 0 {
		anomalies = anomalies[:0]
		for _, a := range result.Anomalies {
			anomalies = append(anomalies, a.Month)
		}
	}

	return fmt.Sprintf("Sales: $%s, Profit: $%s, Margin: %.1f%%. Top declines: %s. Growth drivers: %s. Anomalies: %s.",
		formatAmount(result.TotalSales),
		formatAmount(result.TotalProfit),
		result.AvgProfitMargin,
		strings.Join(declines, ", "),
		strings.Join(growth, ", "),
		strings.Join(anomalies, ", "))
}

// BuildInsightPrompt wraps the summary in the persona's instruction
// template.
func (is *InsightService) BuildInsightPrompt(result *models.AnalysisResult, persona string) string {
	summary := is.BuildSummary(result)

	var prompt string
	switch persona {
	case PersonaSalesManager:
		prompt = fmt.Sprintf("Sales manager briefing: %s Give 3 immediate, actionable tactics with owners.", summary)
	case PersonaAnalyst:
		prompt = fmt.Sprintf("Deep analysis: %s Explain drivers, correlations, and 3 data-backed recommendations.", summary)
	default:
		prompt = fmt.Sprintf("Executive summary: %s Provide 3 high-impact strategic actions. Concise, bold, visionary.", summary)
	}

	return prompt + " Use bullet points. Be insightful and specific."
}

// GenerateInsight submits the persona prompt and returns the model's text
// verbatim. No chat history entry is created for one-shot insights.
func (is *InsightService) GenerateInsight(ctx context.Context, result *models.AnalysisResult, persona string) (string, error) {
	prompt := is.BuildInsightPrompt(result, persona)

	insight, err := is.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return "", &models.ExternalServiceError{Op: "insight generation", Err: err}
	}
	return insight, nil
}

// BuildChatContext assembles the data context for an ad-hoc question: the
// active filter parameters, the total, and a JSON excerpt of sample rows.
// The excerpt is truncated to a fixed character budget rather than a row
// count, so it may cut a record mid-field.
func (is *InsightService) BuildChatContext(session *models.Session, result *models.AnalysisResult, rows []models.SalesRecord) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Date range: %s to %s. Regions: [%s]. Categories: [%s]. ",
		session.Filter.StartDate.Format("2006-01-02"),
		session.Filter.EndDate.Format("2006-01-02"),
		strings.Join(session.Filter.Regions, ", "),
		strings.Join(session.Filter.Categories, ", ")))
	sb.WriteString(fmt.Sprintf("Total Sales: $%s. ", formatAmount(result.TotalSales)))

	sample := rows
	if len(sample) > maxSampleRows {
		sample = sample[:maxSampleRows]
	}
	excerpt, err := json.Marshal(sample)
	if err != nil {
		excerpt = []byte("[]")
	}
	sb.WriteString("Sample data: ")
	sb.WriteString(truncate(string(excerpt), maxSampleJSONChars))

	return sb.String()
}

// BuildChatPrompt frames the question as an analyst instruction around the
// assembled context.
func (is *InsightService) BuildChatPrompt(question, context string) string {
	return fmt.Sprintf(`You are an expert sales analyst. Answer: %q
Use this context: %s
Be precise, reference actual numbers/regions/categories. If unsure, say 'Not enough data'.
Suggest follow-up actions if relevant.`, question, context)
}

// Chat answers an ad-hoc question against the session's filtered view and,
// on success, appends one turn to the session's chat history. A generator
// failure leaves all session state untouched.
func (is *InsightService) Chat(ctx context.Context, session *models.Session, question string) (*models.ChatTurn, error) {
	result := is.analysis.AnalyzeSession(session)
	rows := is.analysis.ApplyFilter(session.Dataset, session.Filter)

	dataContext := is.BuildChatContext(session, result, rows)
	prompt := is.BuildChatPrompt(question, dataContext)

	answer, err := is.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &models.ExternalServiceError{Op: "chat", Err: err}
	}

	turn := models.ChatTurn{
		ID:       uuid.New().String(),
		Question: question,
		Answer:   answer,
		Context:  truncate(dataContext, maxContextSnippetChars),
		AskedAt:  time.Now().Format(time.RFC3339),
	}
	session.ChatLog = append(session.ChatLog, turn)
	log.Printf("chat turn recorded for session %s (%d total)", session.ID, len(session.ChatLog))

	return &turn, nil
}

func groupNames(groups []models.GroupSales, n int) []string {
	names := make([]string, 0, n)
	for i := 0; i < len(groups) && i < n; i++ {
		names = append(names, groups[i].Name)
	}
	if len(names) == 0 {
		names = append(names, "None")
	}
	return names
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
