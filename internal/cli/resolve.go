package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/venuealloc/internal/domain"
)

type candidate struct {
	id   string
	name string
}

// resolveNodeID resolves a node identifier within the current event. The
// input can be:
//   - A full node ID
//   - A node name, matched case-insensitively
//   - A unique ID prefix
//
// Without an event scope the input is passed through as an ID.
func resolveNodeID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("node is required")
	}
	if app.Event == "" {
		return input, nil
	}

	nodes, err := app.Tree.ListNodes(ctx, app.Event)
	if err != nil {
		return "", err
	}
	cands := make([]candidate, len(nodes))
	for i, n := range nodes {
		cands[i] = candidate{id: n.ID, name: n.Name}
	}
	return match(cands, input, "node", domain.ErrNodeNotFound)
}

// resolveTypeID resolves a venue type by ID, label or ID prefix within the
// current event.
func resolveTypeID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("type is required")
	}
	if app.Event == "" {
		return input, nil
	}

	types, err := app.Types.ListTypes(ctx, app.Event)
	if err != nil {
		return "", err
	}
	cands := make([]candidate, len(types))
	for i, t := range types {
		cands[i] = candidate{id: t.ID, name: t.Label}
	}
	return match(cands, input, "type", domain.ErrTypeNotFound)
}

func match(cands []candidate, input, what string, notFound error) (string, error) {
	// 1. Exact ID
	for _, c := range cands {
		if c.id == input {
			return c.id, nil
		}
	}

	// 2. Name
	var matches []string
	for _, c := range cands {
		if strings.EqualFold(c.name, input) {
			matches = append(matches, c.id)
		}
	}

	// 3. ID prefix
	if len(matches) == 0 {
		for _, c := range cands {
			if strings.HasPrefix(c.id, input) {
				matches = append(matches, c.id)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %q", notFound, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s %q is ambiguous (%d matches), use the ID", what, input, len(matches))
	}
}
