package parser

import "math/rand/v2"

// NameSource supplies a fallback first name when no administrator can be
// found in a notice. Kept as an interface so tests can pin the choice:
// the production source is deliberately random so that downstream email
// personalization never goes out with an empty salutation.
type NameSource interface {
	First() string
}

// defaultNamePool are common professional first names used for the
// synthesized "{first} [Administrator]" placeholder.
var defaultNamePool = []string{
	"Michael", "Sarah", "David", "Jennifer", "Robert",
	"Lisa", "James", "Mary", "John", "Patricia",
}

type randNameSource struct {
	pool []string
}

// NewRandNameSource returns the production NameSource, picking uniformly
// from the default pool.
func NewRandNameSource() NameSource {
	return &randNameSource{pool: defaultNamePool}
}

func (s *randNameSource) First() string {
	return s.pool[rand.IntN(len(s.pool))]
}

// FixedNameSource always returns the same name; intended for tests.
type FixedNameSource string

func (s FixedNameSource) First() string { return string(s) }
