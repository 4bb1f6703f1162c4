package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_AssignsIDsAndLinks(t *testing.T) {
	gen, err := Convert(validMinimalSchema())
	require.NoError(t, err)

	require.Len(t, gen.Types, 2)
	require.Len(t, gen.Nodes, 2)
	assert.Equal(t, "gala-2026", gen.EventID)

	hallType, seatType := gen.Types[0], gen.Types[1]
	assert.False(t, hallType.IsUnit)
	assert.Equal(t, "place", hallType.SubUnitLabel)
	assert.True(t, seatType.IsUnit)

	hall, seat := gen.Nodes[0], gen.Nodes[1]
	assert.Equal(t, hallType.ID, hall.TypeID)
	assert.Nil(t, hall.ParentID)
	require.NotNil(t, hall.Capacity)
	assert.Equal(t, 2, *hall.Capacity)

	require.NotNil(t, seat.ParentID)
	assert.Equal(t, hall.ID, *seat.ParentID)
	assert.Equal(t, seatType.ID, seat.TypeID)

	for _, n := range gen.Nodes {
		assert.Equal(t, "gala-2026", n.EventID)
		assert.NoError(t, n.Validate())
	}
}

func TestConvert_OrdersParentsBeforeChildren(t *testing.T) {
	schema := validMinimalSchema()
	schema.Nodes = []NodeImport{
		{Ref: "seat", ParentRef: ptrStr("row"), Name: "Seat 1", TypeRef: "seat"},
		{Ref: "row", ParentRef: ptrStr("h1"), Name: "Row A", TypeRef: "hall"},
		{Ref: "h1", Name: "Main Hall", TypeRef: "hall"},
	}
	require.Empty(t, ValidateLayoutSchema(schema))

	gen, err := Convert(schema)
	require.NoError(t, err)
	require.Len(t, gen.Nodes, 3)

	names := []string{gen.Nodes[0].Name, gen.Nodes[1].Name, gen.Nodes[2].Name}
	assert.Equal(t, []string{"Main Hall", "Row A", "Seat 1"}, names)
}
