// Package store persists drawflow graphs by name.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/recera/drawflow/pkg/graph"
)

var (
	ErrNotFound    = errors.New("store: graph not found")
	ErrInvalidName = errors.New("store: invalid graph name")
)

// Store defines the contract for persisting and retrieving graphs.
type Store interface {
	Load(ctx context.Context, name string) (*graph.Drawflow, error)
	Save(ctx context.Context, name string, g *graph.Drawflow) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]string, error)
}

// ValidName rejects names that cannot be used as a file name or key.
// Letters, digits, '-' and '_' are allowed.
func ValidName(name string) error {
	if name == "" || len(name) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.IndexFunc(name, func(r rune) bool {
		return !(r == '-' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LoadOrDefault loads name, seeding the store with def when nothing is
// stored yet.
func LoadOrDefault(ctx context.Context, s Store, name string, def *graph.Drawflow) (*graph.Drawflow, error) {
	g, err := s.Load(ctx, name)
	if errors.Is(err, ErrNotFound) {
		if def == nil {
			def = graph.New()
		}
		if err := s.Save(ctx, name, def); err != nil {
			return nil, err
		}
		return def.Copy(), nil
	}
	return g, err
}
