package dedup

import "github.com/codesplice/codesplice/pkg/types"

// Finalize stamps a chunk with its content hash, derived ID, and token
// estimate. Chunkers call this once the content and span are settled.
func Finalize(c *types.CodeChunk) {
	c.Hash = HashHex([]byte(c.Content))
	c.ID = c.GenerateID()
	c.TokenEstimate = c.EstimateTokens()
}
