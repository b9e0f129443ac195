package diagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/maan2529/tomatoz-project/internal/metrics"
	"github.com/maan2529/tomatoz-project/internal/pipeline"
	"github.com/maan2529/tomatoz-project/internal/workflow"
)

const defaultMaxRetries = 3

// ErrInProgress rejects a diagram request for a blog whose workflow is
// already running. Maps to a conflict response at the HTTP layer.
var ErrInProgress = errors.New("diagram generation already in progress")

// Outcome is the terminal result of one diagram request.
type Outcome struct {
	Success     bool   `json:"success"`
	DiagramID   string `json:"diagram_id,omitempty"`
	DiagramType string `json:"diagram_type,omitempty"`
	Skipped     bool   `json:"skipped,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// Agent drives the analyze-generate-validate workflow for one blog and
// owns the blog's diagram state transitions.
type Agent struct {
	llm        pipeline.LLM
	blogs      pipeline.BlogStore
	diagrams   pipeline.DiagramStore
	ids        pipeline.IDGenerator
	clock      pipeline.Clock
	publisher  pipeline.Publisher
	topic      string
	maxRetries int
	logger     *zap.Logger
}

// NewAgent wires a diagram agent. publisher may be nil.
func NewAgent(
	llm pipeline.LLM,
	blogs pipeline.BlogStore,
	diagrams pipeline.DiagramStore,
	ids pipeline.IDGenerator,
	clock pipeline.Clock,
	publisher pipeline.Publisher,
	topic string,
	logger *zap.Logger,
) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		llm:        llm,
		blogs:      blogs,
		diagrams:   diagrams,
		ids:        ids,
		clock:      clock,
		publisher:  publisher,
		topic:      topic,
		maxRetries: defaultMaxRetries,
		logger:     logger,
	}
}

// SetMaxRetries overrides the generation retry budget. Values below 1 are
// ignored.
func (a *Agent) SetMaxRetries(n int) {
	if n > 0 {
		a.maxRetries = n
	}
}

// diagramState threads the three-stage workflow.
type diagramState struct {
	blogTitle   string
	blogContent string
	blogSummary string

	viable     bool
	reasoning  string
	kind       Kind
	confidence float64

	diagramJSON      json.RawMessage
	validationErrors []string
	explanation      string
}

// Execute runs the diagram workflow for a blog. Already-completed blogs
// return their existing diagram idempotently; a blog mid-workflow returns
// ErrInProgress.
func (a *Agent) Execute(ctx context.Context, blogID string) (Outcome, error) {
	blog, err := a.blogs.FindByID(ctx, blogID)
	if err != nil {
		return Outcome{}, fmt.Errorf("find blog %q: %w", blogID, err)
	}

	if blog.DiagramStatus == pipeline.DiagramProcessing {
		return Outcome{}, fmt.Errorf("blog %q: %w", blogID, ErrInProgress)
	}
	if blog.DiagramStatus == pipeline.DiagramCompleted && len(blog.DiagramIDs) > 0 {
		a.logger.Info("diagram already exists", zap.String("blog_id", blogID))
		return Outcome{Success: true, DiagramID: blog.DiagramIDs[0], Skipped: true, Reason: "diagram already exists"}, nil
	}

	blog.DiagramStatus = pipeline.DiagramProcessing
	blog.DiagramError = ""
	blog.UpdatedAt = a.clock.Now()
	if err := a.blogs.Update(ctx, blog); err != nil {
		return Outcome{}, fmt.Errorf("mark blog processing: %w", err)
	}

	outcome := a.runWorkflow(ctx, blog)
	a.publishOutcome(ctx, blogID, outcome)
	return outcome, nil
}

// runWorkflow executes the staged sequence and settles the blog into a
// terminal diagram state. It never returns an error; failures become a
// failed outcome recorded on the blog.
func (a *Agent) runWorkflow(ctx context.Context, blog *pipeline.Blog) Outcome {
	initial := diagramState{
		blogTitle:   blog.Title,
		blogContent: blog.Markdown,
		blogSummary: blog.Summary,
	}

	final, err := workflow.Run(ctx, initial,
		a.analyzeStage(),
		a.generateStage(),
		a.validateStage(),
	)
	if err != nil {
		return a.settle(ctx, blog, pipeline.DiagramFailed, Outcome{
			Success: false,
			Reason:  err.Error(),
		})
	}

	if !final.viable {
		reason := final.reasoning
		if reason == "" {
			reason = "content does not contain diagram-worthy information"
		}
		return a.settle(ctx, blog, pipeline.DiagramSkipped, Outcome{
			Success: false,
			Skipped: true,
			Reason:  reason,
		})
	}

	if len(final.validationErrors) > 0 {
		return a.settle(ctx, blog, pipeline.DiagramFailed, Outcome{
			Success: false,
			Reason:  "validation errors: " + strings.Join(final.validationErrors, ", "),
		})
	}

	diagramID, err := a.saveDiagram(ctx, blog, final)
	if err != nil {
		return a.settle(ctx, blog, pipeline.DiagramFailed, Outcome{
			Success: false,
			Reason:  err.Error(),
		})
	}

	blog.DiagramIDs = []string{diagramID}
	out := a.settle(ctx, blog, pipeline.DiagramCompleted, Outcome{
		Success:     true,
		DiagramID:   diagramID,
		DiagramType: string(final.kind),
	})
	return out
}

func (a *Agent) analyzeStage() workflow.Stage[diagramState] {
	return workflow.Stage[diagramState]{
		Name: "analyze",
		Run: func(ctx context.Context, s diagramState) (diagramState, error) {
			prompt := AnalysisPrompt(s.blogContent, s.blogSummary)
			raw, err := a.llm.Invoke(ctx, prompt)
			if err != nil {
				return s, fmt.Errorf("analysis call: %w", err)
			}

			var analysis struct {
				IsViable        bool    `json:"isViable"`
				Reasoning       string  `json:"reasoning"`
				RecommendedType string  `json:"recommendedType"`
				Confidence      float64 `json:"confidence"`
			}
			if err := json.Unmarshal([]byte(extractJSON(raw)), &analysis); err != nil {
				return s, fmt.Errorf("analysis returned invalid JSON: %w", err)
			}

			s.viable = analysis.IsViable
			s.reasoning = analysis.Reasoning
			s.confidence = analysis.Confidence
			if analysis.IsViable {
				kind, ok := ParseKind(analysis.RecommendedType)
				if !ok {
					return s, fmt.Errorf("analysis recommended unknown type %q", analysis.RecommendedType)
				}
				s.kind = kind
			}
			a.logger.Info("viability analysis completed",
				zap.Bool("viable", s.viable),
				zap.String("type", string(s.kind)),
				zap.Float64("confidence", s.confidence),
			)
			return s, nil
		},
	}
}

// generateStage retries the whole stage on parse failure. Each attempt
// resets the structure and validation state first so a later stage never
// sees output from a failed attempt.
func (a *Agent) generateStage() workflow.Stage[diagramState] {
	return workflow.Stage[diagramState]{
		Name: "generate",
		Run: func(ctx context.Context, s diagramState) (diagramState, error) {
			if !s.viable {
				return s, nil
			}

			prompt, ok := GenerationPrompt(s.kind, s.blogContent, s.blogSummary)
			if !ok {
				return s, fmt.Errorf("no prompt template for diagram type %q", s.kind)
			}

			var lastErr error
			for attempt := 1; attempt <= a.maxRetries; attempt++ {
				s.diagramJSON = nil
				s.validationErrors = nil

				raw, err := a.llm.Invoke(ctx, prompt)
				if err != nil {
					lastErr = err
					continue
				}
				candidate := extractJSON(raw)
				if !json.Valid([]byte(candidate)) {
					lastErr = fmt.Errorf("attempt %d returned invalid JSON", attempt)
					a.logger.Warn("diagram generation parse failure",
						zap.Int("attempt", attempt),
						zap.Int("max_retries", a.maxRetries),
					)
					continue
				}

				s.diagramJSON = json.RawMessage(candidate)
				s.explanation = fmt.Sprintf(
					"This %s diagram visualizes the key concepts from %q. Generated with %.0f%% confidence.",
					s.kind, s.blogTitle, s.confidence*100,
				)
				return s, nil
			}
			return s, fmt.Errorf("generation failed after %d attempts: %w", a.maxRetries, lastErr)
		},
	}
}

func (a *Agent) validateStage() workflow.Stage[diagramState] {
	return workflow.Stage[diagramState]{
		Name: "validate",
		Run: func(ctx context.Context, s diagramState) (diagramState, error) {
			if !s.viable || s.diagramJSON == nil {
				return s, nil
			}
			result := Validate(s.diagramJSON, string(s.kind))
			if len(result.Warnings) > 0 {
				a.logger.Warn("diagram validation warnings", zap.Strings("warnings", result.Warnings))
			}
			if !result.IsValid {
				s.validationErrors = result.Errors
			}
			return s, nil
		},
	}
}

func (a *Agent) saveDiagram(ctx context.Context, blog *pipeline.Blog, s diagramState) (string, error) {
	id, err := a.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("diagram id: %w", err)
	}
	d := &pipeline.Diagram{
		ID:            id,
		BlogID:        blog.ID,
		UserID:        blog.UserID,
		Type:          string(s.kind),
		Title:         fmt.Sprintf("%s - %s Diagram", blog.Title, s.kind.Display()),
		Explanation:   s.explanation,
		StructureData: s.diagramJSON,
		Status:        pipeline.DiagramRecordSuccess,
		CreatedAt:     a.clock.Now(),
	}
	if err := a.diagrams.Create(ctx, d); err != nil {
		return "", fmt.Errorf("save diagram: %w", err)
	}
	return id, nil
}

// settle writes the terminal diagram state onto the blog and records the
// outcome metric.
func (a *Agent) settle(ctx context.Context, blog *pipeline.Blog, status pipeline.DiagramStatus, out Outcome) Outcome {
	blog.DiagramStatus = status
	blog.DiagramError = ""
	if !out.Success {
		blog.DiagramError = out.Reason
	}
	blog.UpdatedAt = a.clock.Now()
	if err := a.blogs.Update(ctx, blog); err != nil {
		a.logger.Error("settle diagram status failed",
			zap.String("blog_id", blog.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
	metrics.RecordDiagram(string(status))
	a.logger.Info("diagram workflow settled",
		zap.String("blog_id", blog.ID),
		zap.String("status", string(status)),
		zap.String("reason", out.Reason),
	)
	return out
}

func (a *Agent) publishOutcome(ctx context.Context, blogID string, out Outcome) {
	if a.publisher == nil || a.topic == "" {
		return
	}
	payload := map[string]any{
		"blog_id":      blogID,
		"success":      out.Success,
		"skipped":      out.Skipped,
		"diagram_id":   out.DiagramID,
		"diagram_type": out.DiagramType,
	}
	if _, err := a.publisher.Publish(ctx, a.topic, payload); err != nil {
		a.logger.Warn("publish diagram outcome failed", zap.Error(err))
	}
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON strips an optional fenced code block around a model response.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if m := fencedJSON.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}
