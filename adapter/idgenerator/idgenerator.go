// Package idgenerator contains the default [domain.IDGenerator]
// implementation.
package idgenerator

import (
	"crypto/rand"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/firemodel-go/firemodel/domain"
)

// IDGenerator implements [domain.IDGenerator] on top of random UUIDs.
type IDGenerator struct {
	reader io.Reader
}

// Option configures an IDGenerator.
type Option func(*IDGenerator)

// WithRandomReader sets the entropy source, crypto/rand by default.
func WithRandomReader(r io.Reader) Option {
	return func(g *IDGenerator) {
		g.reader = r
	}
}

// NewIDGenerator returns a new implementation of [domain.IDGenerator].
func NewIDGenerator(opts ...Option) domain.IDGenerator {
	g := &IDGenerator{reader: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateID implements [domain.IDGenerator]. Ids are 32 hex characters,
// safe for use as a path segment.
func (g *IDGenerator) GenerateID() (string, error) {
	id, err := uuid.NewRandomFromReader(g.reader)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
