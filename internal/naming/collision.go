package naming

import "sync"

// Claims records which input claimed each output path during one run. Two
// inputs that map to the same output are the same unit of work: the second
// is blocked by the first's completion, and Claims lets the caller say so.
type Claims struct {
	mu     sync.Mutex
	owners map[string]string // output path → first input that mapped to it
}

// NewClaims creates an empty claim table.
func NewClaims() *Claims {
	return &Claims{owners: make(map[string]string)}
}

// Claim registers input as mapping to output. If another input already
// claimed output, that input is returned with collided set.
func (c *Claims) Claim(input, output string) (owner string, collided bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, exists := c.owners[output]
	if !exists {
		c.owners[output] = input
		return input, false
	}
	return prev, prev != input
}

// Len returns the number of claimed output paths.
func (c *Claims) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.owners)
}
