// Package idgen issues entity, display and log identifiers.
package idgen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Log id prefixes.
const (
	PrefixAudit    = "AUDIT-"
	PrefixActivity = "AL-"
	PrefixMID      = "MID-"
	PrefixLookup   = "VL-"
	PrefixPayment  = "PAY-"
)

// maxAttempts bounds Unique; a collision run this long means the space is
// nearly exhausted.
const maxAttempts = 32

// ErrExhausted is returned by Unique when every candidate was taken.
var ErrExhausted = errors.New("idgen: no unused identifier found")

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes display ids and client codes reproducible.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	}
}

// WithNode sets the snowflake node number.
func WithNode(n int64) Option {
	return func(g *Generator) {
		g.nodeID = n
	}
}

// Generator is safe for concurrent use.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	nodeID int64
	node   *snowflake.Node
}

// New creates a generator.
func New(opts ...Option) (*Generator, error) {
	seed := uint64(time.Now().UnixNano())
	g := &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed>>3)),
		nodeID: 1,
	}
	for _, opt := range opts {
		opt(g)
	}

	node, err := snowflake.NewNode(g.nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	g.node = node
	return g, nil
}

// MustNew is New for process wiring and tests.
func MustNew(opts ...Option) *Generator {
	g, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return g
}

// EntityID returns a new uuid for users and policies.
func (g *Generator) EntityID() string {
	return uuid.NewString()
}

// DisplayID returns a 9-digit policy reference formatted NNN.NNN.NNN. The
// leading digit is never zero.
func (g *Generator) DisplayID() string {
	g.mu.Lock()
	n := 100000000 + g.rng.IntN(900000000)
	g.mu.Unlock()
	s := fmt.Sprintf("%d", n)
	return s[0:3] + "." + s[3:6] + "." + s[6:9]
}

// ClientCode returns a customer reference formatted SP-NNNNN.
func (g *Generator) ClientCode() string {
	g.mu.Lock()
	n := 10000 + g.rng.IntN(90000)
	g.mu.Unlock()
	return fmt.Sprintf("SP-%05d", n)
}

// LogID returns a time-ordered id with the given prefix.
func (g *Generator) LogID(prefix string) string {
	return prefix + g.node.Generate().String()
}

// Unique draws from next until taken reports a free value. Callers run it
// inside the unit of work that stores the value.
func Unique(next func() string, taken func(string) (bool, error)) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		candidate := next()
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}
