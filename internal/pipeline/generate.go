package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/maan2529/tomatoz-project/internal/workflow"
)

const (
	draftExcerptLimit   = 8000
	summaryExcerptLimit = 5000
	minStageInputLen    = 50
	minDraftLen         = 100

	draftPlaceholder   = "Content not available"
	summaryPlaceholder = "Summary not available"
)

const draftPromptTemplate = `You are an expert technical content writer.

Create a comprehensive, well-structured blog post about %s based on the following content.

Requirements:
- Use clear headings and sections
- Include code examples if relevant
- Highlight key features and updates
- Make it engaging and informative
- Use proper markdown formatting
- Target length: 1000-1500 words

Content:
%s

Generate the blog post:`

const summaryPromptTemplate = `Create a concise summary of this blog post in 3-5 bullet points.
Focus on the most important updates and features.

Blog content:
%s

Summary:`

// draftState threads the two-stage blog workflow.
type draftState struct {
	tech           string
	articleContent string
	draft          string
	summary        string
}

// Generator drives the two-stage LLM sequence that turns an extracted
// article into a draft and summary.
type Generator struct {
	llm    LLM
	logger *zap.Logger
}

// NewGenerator builds a Generator.
func NewGenerator(llm LLM, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{llm: llm, logger: logger}
}

// GenerationResult is the workflow output for one article.
type GenerationResult struct {
	Draft   string
	Summary string
}

// Generate runs draft then summary. Stages soft-fail on insufficient input
// by substituting a placeholder instead of invoking the model.
func (g *Generator) Generate(ctx context.Context, tech string, article ExtractedArticle) (GenerationResult, error) {
	initial := draftState{tech: tech, articleContent: article.Markdown}

	final, err := workflow.Run(ctx, initial, g.draftStage(), g.summaryStage())
	if err != nil {
		return GenerationResult{}, err
	}
	return GenerationResult{Draft: final.draft, Summary: final.summary}, nil
}

func (g *Generator) draftStage() workflow.Stage[draftState] {
	return workflow.Stage[draftState]{
		Name: "draft",
		Run: func(ctx context.Context, s draftState) (draftState, error) {
			if len(strings.TrimSpace(s.articleContent)) < minStageInputLen {
				g.logger.Warn("article content below draft threshold, substituting placeholder")
				s.draft = draftPlaceholder
				return s, nil
			}
			prompt := fmt.Sprintf(draftPromptTemplate, s.tech, capText(s.articleContent, draftExcerptLimit))
			out, err := g.llm.Invoke(ctx, prompt)
			if err != nil {
				return s, fmt.Errorf("draft generation: %w", err)
			}
			s.draft = strings.TrimSpace(out)
			return s, nil
		},
	}
}

func (g *Generator) summaryStage() workflow.Stage[draftState] {
	return workflow.Stage[draftState]{
		Name: "summary",
		Run: func(ctx context.Context, s draftState) (draftState, error) {
			if len(strings.TrimSpace(s.draft)) < minStageInputLen {
				g.logger.Warn("draft below summary threshold, substituting placeholder")
				s.summary = summaryPlaceholder
				return s, nil
			}
			prompt := fmt.Sprintf(summaryPromptTemplate, capText(s.draft, summaryExcerptLimit))
			out, err := g.llm.Invoke(ctx, prompt)
			if err != nil {
				return s, fmt.Errorf("summary generation: %w", err)
			}
			s.summary = strings.TrimSpace(out)
			if s.summary == "" {
				s.summary = summaryPlaceholder
			}
			return s, nil
		},
	}
}

// DraftTooShort reports whether a generated draft falls below the minimum
// acceptable length; such articles are skipped, not fatal to the batch.
func DraftTooShort(draft string) bool {
	return len(draft) < minDraftLen
}

func capText(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
