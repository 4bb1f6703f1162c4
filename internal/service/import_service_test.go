package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/venuealloc/internal/contract"
	"github.com/alexanderramin/venuealloc/internal/domain"
	"github.com/alexanderramin/venuealloc/internal/importer"
	"github.com/alexanderramin/venuealloc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func validLayoutSchema(eventID string) *importer.LayoutSchema {
	return &importer.LayoutSchema{
		EventID: eventID,
		Types: []importer.TypeImport{
			{Ref: "hall", Label: "Hall", SubUnitLabel: "place"},
			{Ref: "row", Label: "Row"},
			{Ref: "seat", Label: "Seat", IsUnit: true},
		},
		Nodes: []importer.NodeImport{
			{Ref: "main", Name: "Main Hall", TypeRef: "hall"},
			{Ref: "row-a", ParentRef: strPtr("main"), Name: "Row A", TypeRef: "row", Order: 1},
			{Ref: "a1", ParentRef: strPtr("row-a"), Name: "A1", TypeRef: "seat", Order: 1},
			{Ref: "a2", ParentRef: strPtr("row-a"), Name: "A2", TypeRef: "seat", Order: 2},
			{Ref: "pit", ParentRef: strPtr("main"), Name: "Pit", TypeRef: "hall", Capacity: intPtr(4), Order: 2},
		},
	}
}

func TestImportLayout_CreatesTreeUsableByEngine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	eventID := testutil.NewTestEventID()

	svc := NewImportService(h.uow)
	result, err := svc.ImportLayoutFromSchema(ctx, validLayoutSchema(eventID))
	require.NoError(t, err)
	assert.Equal(t, 3, result.TypeCount)
	assert.Equal(t, 5, result.NodeCount)
	require.Len(t, result.Roots, 1)
	assert.Equal(t, "Main Hall", result.Roots[0].Name)

	seq, err := h.tree.Descendants(ctx, result.Roots[0].ID)
	require.NoError(t, err)
	var names []string
	var pit *domain.VenueNode
	for n := range seq {
		names = append(names, n.Name)
		if n.Name == "Pit" {
			pit = n
		}
	}
	assert.Equal(t, []string{"Row A", "A1", "A2", "Pit"}, names)

	require.NotNil(t, pit)
	_, err = h.engine.Assign(ctx, contract.AssignRequest{UserID: "u1", EventID: eventID, NodeID: pit.ID, SubUnitIndex: intPtr(3)})
	require.NoError(t, err)
}

func TestImportLayout_FromFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"event_id": "file-event",
		"types": [{"ref": "seat", "label": "Seat", "is_unit": true}],
		"nodes": [{"ref": "s1", "name": "S1", "type_ref": "seat"}]
	}`), 0o644))

	result, err := NewImportService(h.uow).ImportLayout(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "file-event", result.EventID)
	assert.Equal(t, 1, result.NodeCount)

	_, err = NewImportService(h.uow).ImportLayout(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "loading layout file")
}

func TestImportLayout_ValidationWritesNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	eventID := testutil.NewTestEventID()

	schema := validLayoutSchema(eventID)
	schema.Nodes[2].TypeRef = "ghost"
	schema.Nodes[4].Capacity = intPtr(-2)

	_, err := NewImportService(h.uow).ImportLayoutFromSchema(ctx, schema)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "(2 errors)")

	types, err := h.catalog.ListTypes(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, types)
}

func TestImportLayout_RollbackOnNodeCreateFailure(t *testing.T) {
	database := testutil.NewTestDB(t)
	h := newHarnessWithUoW(database, testutil.NewTestUoW(database))
	ctx := context.Background()
	eventID := testutil.NewTestEventID()

	// ExecContext calls: #1-#3 = types, #4 = Main Hall, #5 = Row A.
	failUoW := &testutil.FailOnNthExecUoW{
		DB:     database,
		FailOn: 5,
		Err:    fmt.Errorf("injected node create failure"),
	}

	_, err := NewImportService(failUoW).ImportLayoutFromSchema(ctx, validLayoutSchema(eventID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected node create failure")
	assert.Contains(t, err.Error(), `creating node "Row A"`)

	types, err := h.catalog.ListTypes(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, types, "no types should exist after rollback")

	nodes, err := h.tree.ListNodes(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, nodes, "no nodes should exist after rollback")
}
