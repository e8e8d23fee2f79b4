package id

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out time-ordered int64 ids for sessions and pipeline runs.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a Generator for the given snowflake node (0-1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// New returns the next id.
func (g *Generator) New() int64 {
	return g.node.Generate().Int64()
}
