// Package pipeline defines the tech-update ingestion domain: the types
// flowing between stages, the collaborator interfaces, and the orchestrator
// that sequences a run.
package pipeline

import (
	"encoding/json"
	"time"
)

// SearchResult is one candidate source returned by the search service.
// Ephemeral; consumed by the extractor.
type SearchResult struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Content     string    `json:"content,omitempty"`
	RawContent  string    `json:"raw_content,omitempty"`
	Score       float64   `json:"score"`
	PublishedAt time.Time `json:"published_at"`
}

// ExtractedArticle is the cleaned representation of one source page.
// ContentHash is the digest of the trimmed markdown body.
type ExtractedArticle struct {
	Title       string    `json:"title"`
	OriginalURL string    `json:"original_url"`
	Domain      string    `json:"domain"`
	PublishedAt time.Time `json:"published_at"`
	Markdown    string    `json:"markdown"`
	ContentHash string    `json:"content_hash"`
	ArchiveURI  string    `json:"archive_uri,omitempty"`
}

// ProcessingStatus is the blog generation lifecycle state.
type ProcessingStatus string

// Blog processing states.
const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingInProgress ProcessingStatus = "processing"
	ProcessingReady      ProcessingStatus = "ready"
	ProcessingFailed     ProcessingStatus = "failed"
)

// DiagramStatus is the per-blog diagram workflow state. Terminal states are
// completed, failed and skipped; processing rejects concurrent requests.
type DiagramStatus string

// Blog diagram states.
const (
	DiagramPending    DiagramStatus = "pending"
	DiagramProcessing DiagramStatus = "processing"
	DiagramCompleted  DiagramStatus = "completed"
	DiagramFailed     DiagramStatus = "failed"
	DiagramSkipped    DiagramStatus = "skipped"
)

// Blog is the persisted record produced by the generation workflow.
// Slug is globally unique. ContentHash fingerprints the extracted source
// content the stored markdown was generated from; every markdown update
// rewrites the hash in the same save.
type Blog struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"user_id,omitempty"`
	OriginalURL        string           `json:"original_url"`
	Source             string           `json:"source"`
	Title              string           `json:"title"`
	Slug               string           `json:"slug"`
	Markdown           string           `json:"markdown"`
	Summary            string           `json:"summary"`
	Highlights         []string         `json:"highlights"`
	Tags               []string         `json:"tags"`
	Language           string           `json:"language"`
	ProcessingStatus   ProcessingStatus `json:"processing_status"`
	ContentHash        string           `json:"content_hash"`
	ReadingTimeMinutes int              `json:"reading_time_minutes"`
	Published          bool             `json:"published"`
	PublishedAt        time.Time        `json:"published_at"`
	ArchiveURI         string           `json:"archive_uri,omitempty"`
	DiagramStatus      DiagramStatus    `json:"diagram_status"`
	DiagramError       string           `json:"diagram_error,omitempty"`
	DiagramIDs         []string         `json:"diagram_ids"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// DiagramRecordStatus is the persisted diagram document state.
type DiagramRecordStatus string

// Diagram record states.
const (
	DiagramRecordPending DiagramRecordStatus = "pending"
	DiagramRecordSuccess DiagramRecordStatus = "success"
	DiagramRecordFailure DiagramRecordStatus = "failure"
)

// Diagram is a validated diagram structure owned by a blog. Created only
// after schema validation passes.
type Diagram struct {
	ID            string              `json:"id"`
	BlogID        string              `json:"blog_id"`
	UserID        string              `json:"user_id,omitempty"`
	Type          string              `json:"type"`
	Title         string              `json:"title"`
	Explanation   string              `json:"explanation"`
	StructureData json.RawMessage     `json:"structure_data"`
	Status        DiagramRecordStatus `json:"status"`
	Error         string              `json:"error,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// ChangeKind classifies a source against its previously stored revision.
type ChangeKind string

// Change detector outcomes.
const (
	ChangeNew       ChangeKind = "new"
	ChangeUnchanged ChangeKind = "unchanged"
	ChangeChanged   ChangeKind = "changed"
)

// Options are per-run knobs supplied by the caller.
type Options struct {
	MaxSources  int
	RecencyDays int
	UserID      string
}

// StageCounts summarizes one stage's per-item outcomes.
type StageCounts struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// BlogOutcome is the per-blog entry of a run report.
type BlogOutcome struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Summary     string     `json:"summary"`
	Tags        []string   `json:"tags"`
	ReadingTime int        `json:"reading_time_minutes"`
	URL         string     `json:"url"`
	Change      ChangeKind `json:"change"`
}

// Report is the structured result of one pipeline invocation. Execute
// always returns a Report, even on run-fatal failure.
type Report struct {
	Success     bool          `json:"success"`
	Technology  string        `json:"technology"`
	ProcessedAt time.Time     `json:"processed_at"`
	Duration    time.Duration `json:"duration"`
	TotalBlogs  int           `json:"total_blogs"`
	Blogs       []BlogOutcome `json:"blogs"`
	Extraction  StageCounts   `json:"extraction"`
	Generation  StageCounts   `json:"generation"`
	Persistence StageCounts   `json:"persistence"`
	Error       string        `json:"error,omitempty"`
}

// MemoryEntry is one line of the append-only running memory log carried
// across articles within a run for light context, not strict consistency.
type MemoryEntry struct {
	Title   string
	Summary string
	URL     string
}
