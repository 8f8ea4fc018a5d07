package search

import (
	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/vectorindex"
)

// Monitor provides hooks to observe the matching process.
// Implement this interface to track intermediate steps during a match.
type Monitor interface {
	Start(query string)
	AfterFilter(candidates []core.ID)
	AfterEmbedding(dimension int)
	AfterChunkSearch(chunk []core.ID, matches []vectorindex.Match)
	Finish(set *core.MatchSet)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                      {}
func (n *noopMonitor) AfterFilter(_ []core.ID)                             {}
func (n *noopMonitor) AfterEmbedding(_ int)                                {}
func (n *noopMonitor) AfterChunkSearch(_ []core.ID, _ []vectorindex.Match) {}
func (n *noopMonitor) Finish(_ *core.MatchSet)                             {}
