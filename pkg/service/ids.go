package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	syncWorkflowIDPrefix  = "example-workflow-"
	asyncWorkflowIDPrefix = "example-workflow-async-"
)

// IDGenerator builds workflow IDs of the form
// example-workflow[-async]-<unixMillis>-<suffix>.
type IDGenerator struct {
	Now    func() time.Time
	Suffix func() string
}

// NewIDGenerator uses the wall clock and the first 8 hex chars of a random UUID.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		Now: time.Now,
		Suffix: func() string {
			return uuid.NewString()[:8]
		},
	}
}

// BuildWorkflowID returns a new ID for a sync or async start.
func (g *IDGenerator) BuildWorkflowID(async bool) string {
	prefix := syncWorkflowIDPrefix
	if async {
		prefix = asyncWorkflowIDPrefix
	}
	return fmt.Sprintf("%s%d-%s", prefix, g.Now().UnixMilli(), g.Suffix())
}

// ParseWorkflowID extracts the start time and mode from an ID built by
// BuildWorkflowID.
func ParseWorkflowID(workflowID string) (startedAt time.Time, async bool, err error) {
	rest, ok := strings.CutPrefix(workflowID, asyncWorkflowIDPrefix)
	if ok {
		async = true
	} else if rest, ok = strings.CutPrefix(workflowID, syncWorkflowIDPrefix); !ok {
		return time.Time{}, false, fmt.Errorf("invalid workflow ID format: %s", workflowID)
	}

	millis, _, found := strings.Cut(rest, "-")
	if !found {
		return time.Time{}, false, fmt.Errorf("invalid workflow ID format: %s", workflowID)
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid workflow ID timestamp %q: %w", millis, err)
	}
	return time.UnixMilli(ms), async, nil
}
