package importer

import (
	"fmt"
	"strings"
)

// ValidateLayoutSchema checks the layout for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateLayoutSchema(schema *LayoutSchema) []error {
	var errs []error

	if strings.TrimSpace(schema.EventID) == "" {
		errs = append(errs, fmt.Errorf("event_id is required"))
	}

	typeRefs := make(map[string]bool)
	errs = append(errs, validateTypes(schema.Types, typeRefs)...)

	nodeRefs := make(map[string]bool)
	errs = append(errs, validateNodes(schema.Nodes, typeRefs, nodeRefs)...)
	errs = append(errs, validateParentCycles(schema.Nodes, nodeRefs)...)

	return errs
}

func validateTypes(types []TypeImport, refs map[string]bool) []error {
	var errs []error

	for i, t := range types {
		prefix := fmt.Sprintf("types[%d]", i)
		if t.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[t.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref %q is duplicated", prefix, t.Ref))
		} else {
			refs[t.Ref] = true
		}
		if strings.TrimSpace(t.Label) == "" {
			errs = append(errs, fmt.Errorf("%s.label is required", prefix))
		}
		if t.IsUnit && t.SubUnitLabel != "" {
			errs = append(errs, fmt.Errorf("%s.sub_unit_label is only allowed when is_unit is false", prefix))
		}
	}

	return errs
}

func validateNodes(nodes []NodeImport, typeRefs, refs map[string]bool) []error {
	var errs []error

	for i, n := range nodes {
		if n.Ref == "" {
			continue
		}
		if refs[n.Ref] {
			errs = append(errs, fmt.Errorf("nodes[%d].ref %q is duplicated", i, n.Ref))
		}
		refs[n.Ref] = true
	}

	for i, n := range nodes {
		prefix := fmt.Sprintf("nodes[%d]", i)
		if n.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		}
		if strings.TrimSpace(n.Name) == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if n.TypeRef == "" {
			errs = append(errs, fmt.Errorf("%s.type_ref is required", prefix))
		} else if !typeRefs[n.TypeRef] {
			errs = append(errs, fmt.Errorf("%s.type_ref %q does not match any type", prefix, n.TypeRef))
		}
		if n.Capacity != nil && *n.Capacity < 0 {
			errs = append(errs, fmt.Errorf("%s.capacity must be >= 0, got %d", prefix, *n.Capacity))
		}
		if n.ParentRef != nil && *n.ParentRef != "" {
			if *n.ParentRef == n.Ref {
				errs = append(errs, fmt.Errorf("%s.parent_ref %q refers to itself", prefix, n.Ref))
			} else if !refs[*n.ParentRef] {
				errs = append(errs, fmt.Errorf("%s.parent_ref %q does not match any node", prefix, *n.ParentRef))
			}
		}
	}

	return errs
}

// validateParentCycles reports each cycle in the parent_ref graph once,
// naming the ref where the walk re-entered itself.
func validateParentCycles(nodes []NodeImport, refs map[string]bool) []error {
	parent := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.Ref == "" || n.ParentRef == nil || *n.ParentRef == "" || *n.ParentRef == n.Ref {
			continue
		}
		if refs[*n.ParentRef] {
			parent[n.Ref] = *n.ParentRef
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(parent))
	var errs []error

	for _, n := range nodes {
		if state[n.Ref] != unvisited {
			continue
		}
		var path []string
		cur := n.Ref
		for cur != "" && state[cur] == unvisited {
			state[cur] = visiting
			path = append(path, cur)
			cur = parent[cur]
		}
		if cur != "" && state[cur] == visiting {
			errs = append(errs, fmt.Errorf("nodes: parent_ref cycle through %q", cur))
		}
		for _, ref := range path {
			state[ref] = done
		}
	}

	return errs
}
