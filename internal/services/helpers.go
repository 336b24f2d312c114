package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charlesng35/rasconsole/internal/remote"
)

// maxDuplicateNames is how many conflicting connections a duplicate prompt lists.
const maxDuplicateNames = 5

// Reloader refreshes the tree after a confirmed mutation.
type Reloader interface {
	LoadAll(ctx context.Context) error
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// duplicateSummary lists up to maxDuplicateNames duplicates followed by the count of the rest.
func duplicateSummary(dups []remote.Duplicate) []string {
	lines := make([]string, 0, maxDuplicateNames+1)
	for i, dup := range dups {
		if i == maxDuplicateNames {
			lines = append(lines, fmt.Sprintf("and %d more", len(dups)-maxDuplicateNames))
			break
		}
		name := strings.TrimSpace(dup.DisplayName)
		if name == "" {
			name = fmt.Sprintf("#%d", dup.ID)
		}
		lines = append(lines, fmt.Sprintf("%s (%s:%d)", name, dup.ServerHost, dup.RASPort))
	}
	return lines
}
