package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"insightforge-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator stands in for the external text-generation collaborator.
type fakeGenerator struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestSession() *models.Session {
	dataset := SampleDataset()
	return &models.Session{
		ID:      "test-session",
		Dataset: dataset,
		Filter:  fullFilter(dataset),
	}
}

func TestBuildSummary(t *testing.T) {
	as := NewAnalysisService()
	is := NewInsightService(&fakeGenerator{}, as)
	dataset := SampleDataset()
	result := as.Analyze(dataset, dataset.Rows)

	summary := is.BuildSummary(result)

	assert.Contains(t, summary, "Sales: $446,000")
	assert.Contains(t, summary, "Profit: $84,800")
	assert.Contains(t, summary, "Margin: 19.0%")
	assert.Contains(t, summary, "Top declines: Phones, Binders, Chairs")
	assert.Contains(t, summary, "Growth drivers: Storage, Tables, Machines")
	// the sample series has no 2-sigma outliers
	assert.Contains(t, summary, "Anomalies: None.")
}

func TestBuildSummaryWithAnomalies(t *testing.T) {
	as := NewAnalysisService()
	is := NewInsightService(&fakeGenerator{}, as)

	result := &models.AnalysisResult{
		TotalSales:  1000,
		TotalProfit: 100,
		TopProducts: []models.GroupSales{{Name: "Phones", Sales: 1000}},
		TopDeclines: []models.GroupSales{{Name: "Binders", Sales: 10}},
		Anomalies:   []models.MonthlySales{{Month: "2023-07", Sales: 900}},
	}
	summary := is.BuildSummary(result)
	assert.Contains(t, summary, "Anomalies: 2023-07.")
	assert.NotContains(t, summary, "None")
}

func TestBuildInsightPromptPersonas(t *testing.T) {
	as := NewAnalysisService()
	is := NewInsightService(&fakeGenerator{}, as)
	dataset := SampleDataset()
	result := as.Analyze(dataset, dataset.Rows)

	executive := is.BuildInsightPrompt(result, PersonaExecutive)
	manager := is.BuildInsightPrompt(result, PersonaSalesManager)
	analyst := is.BuildInsightPrompt(result, PersonaAnalyst)

	assert.True(t, strings.HasPrefix(executive, "Executive summary:"))
	assert.True(t, strings.HasPrefix(manager, "Sales manager briefing:"))
	assert.True(t, strings.HasPrefix(analyst, "Deep analysis:"))

	// identical content parameters, different framing
	summary := is.BuildSummary(result)
	for _, prompt := range []string{executive, manager, analyst} {
		assert.Contains(t, prompt, summary)
		assert.Contains(t, prompt, "Use bullet points.")
	}
}

func TestGenerateInsightReturnsTextVerbatim(t *testing.T) {
	as := NewAnalysisService()
	gen := &fakeGenerator{response: "* insight one\n* insight two"}
	is := NewInsightService(gen, as)
	session := newTestSession()

	result := as.AnalyzeSession(session)
	insight, err := is.GenerateInsight(context.Background(), result, PersonaExecutive)
	require.NoError(t, err)
	assert.Equal(t, "* insight one\n* insight two", insight)

	// one-shot insights never touch the chat history
	assert.Empty(t, session.ChatLog)
}

func TestGenerateInsightFailure(t *testing.T) {
	as := NewAnalysisService()
	gen := &fakeGenerator{err: fmt.Errorf("quota exceeded")}
	is := NewInsightService(gen, as)
	dataset := SampleDataset()
	result := as.Analyze(dataset, dataset.Rows)

	_, err := is.GenerateInsight(context.Background(), result, PersonaAnalyst)
	require.Error(t, err)

	var externalErr *models.ExternalServiceError
	require.True(t, errors.As(err, &externalErr))
	assert.Contains(t, externalErr.Error(), "quota exceeded")
}

func TestChatAppendsTurn(t *testing.T) {
	as := NewAnalysisService()
	gen := &fakeGenerator{response: "West leads because of Q4 volume."}
	is := NewInsightService(gen, as)
	session := newTestSession()

	turn, err := is.Chat(context.Background(), session, "Why is West leading?")
	require.NoError(t, err)

	assert.Equal(t, "West leads because of Q4 volume.", turn.Answer)
	assert.Equal(t, "Why is West leading?", turn.Question)
	require.Len(t, session.ChatLog, 1)
	assert.Equal(t, *turn, session.ChatLog[0])

	// the context snippet stored with the turn is size-capped
	assert.LessOrEqual(t, len(turn.Context), maxContextSnippetChars+3)
	assert.Contains(t, turn.Context, "Date range: 2023-01-31 to 2023-12-31")

	// the full prompt carries the filter parameters and the question
	assert.Contains(t, gen.lastPrompt, "expert sales analyst")
	assert.Contains(t, gen.lastPrompt, `"Why is West leading?"`)
	assert.Contains(t, gen.lastPrompt, "Total Sales: $446,000")
}

func TestChatFailureLeavesStateUntouched(t *testing.T) {
	as := NewAnalysisService()
	gen := &fakeGenerator{err: fmt.Errorf("connection refused")}
	is := NewInsightService(gen, as)
	session := newTestSession()

	_, err := is.Chat(context.Background(), session, "anything")
	require.Error(t, err)

	var externalErr *models.ExternalServiceError
	assert.True(t, errors.As(err, &externalErr))
	assert.Empty(t, session.ChatLog)

	// the session stays usable: a later call succeeds and records a turn
	gen.err = nil
	gen.response = "ok"
	_, err = is.Chat(context.Background(), session, "anything")
	require.NoError(t, err)
	assert.Len(t, session.ChatLog, 1)
}

func TestBuildChatContextTruncatesSample(t *testing.T) {
	as := NewAnalysisService()
	is := NewInsightService(&fakeGenerator{}, as)
	session := newTestSession()

	result := as.AnalyzeSession(session)
	rows := as.ApplyFilter(session.Dataset, session.Filter)
	context := is.BuildChatContext(session, result, rows)

	idx := strings.Index(context, "Sample data: ")
	require.GreaterOrEqual(t, idx, 0)
	sample := context[idx+len("Sample data: "):]
	// fixed character budget, not a row count
	assert.LessOrEqual(t, len(sample), maxSampleJSONChars+3)
	assert.True(t, strings.HasSuffix(sample, "..."))
}

func TestValidPersona(t *testing.T) {
	assert.True(t, ValidPersona("Executive"))
	assert.True(t, ValidPersona("Sales Manager"))
	assert.True(t, ValidPersona("Analyst"))
	assert.False(t, ValidPersona("CEO"))
	assert.False(t, ValidPersona(""))
}
