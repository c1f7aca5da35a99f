package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbvault/ingestor/internal/ai"
	"github.com/kbvault/ingestor/internal/ai/mock"
	"github.com/kbvault/ingestor/pkg/types"
)

// pdfTools is a minimal media.Tools scripting only PDFToText.
type pdfTools struct {
	fakeTools
	text string
	err  error
}

func newPDFTools(text string, err error) *pdfTools {
	t := &pdfTools{text: text, err: err}
	t.PDFToTextFunc = func(path string) (string, error) {
		return t.text, t.err
	}
	return t
}

func TestPDFExtractToolFailureIsFatal(t *testing.T) {
	x := &PDFExtractor{Tools: newPDFTools("", errors.New("pdftotext: damaged file"))}

	result := x.Extract(context.Background(), Content{SourcePath: "report.pdf"}, DefaultOptions())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "damaged file")
	assert.Empty(t, result.Entities)
}

func TestPDFExtractNoToolConfigured(t *testing.T) {
	x := &PDFExtractor{}

	result := x.Extract(context.Background(), Content{SourcePath: "report.pdf"}, DefaultOptions())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no PDF text extraction tool")
}

func TestPDFExtractEmptyText(t *testing.T) {
	x := &PDFExtractor{Tools: newPDFTools("   \n", nil)}

	result := x.Extract(context.Background(), Content{SourcePath: "blank.pdf"}, DefaultOptions())
	assert.False(t, result.Success)
	assert.Equal(t, "empty content", result.Error)
}

func TestPDFExtractRuleFallbackOnExtractedText(t *testing.T) {
	x := &PDFExtractor{Tools: newPDFTools("John Smith is the CEO of Acme Corporation.", nil)}

	result := x.Extract(context.Background(), Content{SourcePath: "report.pdf"}, DefaultOptions())
	require.True(t, result.Success, result.Error)

	require.NotNil(t, findEntity(result.Entities, types.EntityTypePerson, "John Smith"))
	require.NotNil(t, findEntity(result.Entities, types.EntityTypeOrganization, "Acme Corporation"))
}

func TestPDFExtractBackendPrimary(t *testing.T) {
	backend := &mock.Backend{
		AnalyzeFunc: func(ctx context.Context, req ai.AnalyzeRequest) ([]types.Entity, error) {
			assert.Equal(t, ai.PromptPDF, req.Kind)
			assert.Contains(t, req.Content, "quarterly report")
			return []types.Entity{
				types.NewEntity("Initech", types.EntityTypeOrganization, "", types.Mention{Relevance: 0.9, Frame: types.NoFrame}),
			}, nil
		},
	}
	x := &PDFExtractor{Backend: backend, Tools: newPDFTools("Initech quarterly report", nil)}

	result := x.Extract(context.Background(), Content{SourcePath: "q3.pdf"}, DefaultOptions())
	require.True(t, result.Success, result.Error)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Initech", result.Entities[0].Name)
	assert.Equal(t, 1, backend.CallCount())
}

// TestPDFExtractBackendFailureFallsBack: the AI error is recovered by the
// rule battery over the text that did get extracted.
func TestPDFExtractBackendFailureFallsBack(t *testing.T) {
	backend := &mock.Backend{
		AnalyzeFunc: func(ctx context.Context, req ai.AnalyzeRequest) ([]types.Entity, error) {
			return nil, errors.New("simulated timeout")
		},
	}
	x := &PDFExtractor{Backend: backend, Tools: newPDFTools("Dr. Jane Doe joined Globex Inc. on 2024-03-01.", nil)}

	result := x.Extract(context.Background(), Content{SourcePath: "hire.pdf"}, DefaultOptions())
	require.True(t, result.Success, result.Error)
	assert.NotNil(t, findEntity(result.Entities, types.EntityTypePerson, "Jane Doe"))
}
