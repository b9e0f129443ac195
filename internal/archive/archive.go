// Package archive stores raw HTML snapshots of extracted pages so a
// generation run can be audited or replayed later.
package archive

import "context"

// Store writes immutable blobs and returns a stable URI for each.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
