package binlog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/artie-labs/binlog-reader/lib/mysql/schema"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	{
		// Nothing observed yet
		_, ok := registry.Lookup(1)
		assert.False(t, ok)
		assert.Equal(t, 0, registry.Len())
	}
	{
		registry.Observe(TableDescriptor{TableID: 1, Table: "users", Columns: []ColumnSpec{{Name: "id", Type: schema.BigInt}}})
		desc, ok := registry.Lookup(1)
		assert.True(t, ok)
		assert.Equal(t, "users", desc.Table)
		assert.Equal(t, 1, registry.Len())

		_, ok = registry.Lookup(2)
		assert.False(t, ok)
	}
	{
		// Redefinition replaces the previous descriptor
		registry.Observe(TableDescriptor{TableID: 1, Table: "users", Columns: []ColumnSpec{
			{Name: "id", Type: schema.BigInt},
			{Ordinal: 1, Name: "email", Type: schema.Varchar},
		}})
		desc, ok := registry.Lookup(1)
		assert.True(t, ok)
		assert.Len(t, desc.Columns, 2)
		assert.Equal(t, 1, registry.Len())
	}
}

func TestRegistry_LastObserveWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		registry := NewRegistry()
		expected := make(map[uint64]TableDescriptor)

		count := rapid.IntRange(1, 50).Draw(t, "count")
		for i := 0; i < count; i++ {
			tableID := rapid.Uint64Range(1, 5).Draw(t, "tableID")
			columnCount := rapid.IntRange(0, 4).Draw(t, "columnCount")
			desc := TableDescriptor{TableID: tableID, Table: fmt.Sprintf("table_%d", tableID)}
			for ordinal := 0; ordinal < columnCount; ordinal++ {
				desc.Columns = append(desc.Columns, ColumnSpec{Ordinal: ordinal, Name: fmt.Sprintf("col_%d_%d", i, ordinal)})
			}

			registry.Observe(desc)
			expected[tableID] = desc
		}

		if registry.Len() != len(expected) {
			t.Fatalf("expected %d tables, got %d", len(expected), registry.Len())
		}

		for tableID, want := range expected {
			got, ok := registry.Lookup(tableID)
			if !ok {
				t.Fatalf("table %d is missing", tableID)
			}
			if fmt.Sprint(got) != fmt.Sprint(want) {
				t.Fatalf("table %d: expected %v, got %v", tableID, want, got)
			}
		}
	})
}
