package pipeline

import "errors"

// Sentinel errors shared across the pipeline and its collaborators.
var (
	// ErrNotFound is returned by store lookups with no matching record.
	ErrNotFound = errors.New("record not found")

	// ErrNoSearchResults aborts a run when the search stage returns nothing.
	ErrNoSearchResults = errors.New("no search results found")

	// ErrNoExtractableContent aborts a run when every source failed extraction.
	ErrNoExtractableContent = errors.New("no content could be extracted from sources")

	// ErrNoBlogsGenerated aborts a run when generation produced nothing to save.
	ErrNoBlogsGenerated = errors.New("failed to generate any blogs from extracted content")

	// ErrSlugExhausted drops a single record after the collision retry
	// budget runs out; the batch continues.
	ErrSlugExhausted = errors.New("slug collision attempts exhausted")
)
