package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogShape(t *testing.T) {
	catalog := Catalog()
	require.Len(t, catalog, 7)

	names := map[string]bool{}
	files := map[string]bool{}
	labels := map[string]bool{}
	for _, k := range catalog {
		require.False(t, names[k.Name], "duplicate kind %s", k.Name)
		require.False(t, files[k.File], "duplicate file %s", k.File)
		names[k.Name] = true
		files[k.File] = true
		require.Greater(t, k.BatchSize, 0)
		require.NotEmpty(t, k.Fields)

		if k.IsEntity() {
			labels[k.Entity.Label] = true
			// The natural key must be a required field.
			f, ok := k.Field(k.Entity.Key)
			require.True(t, ok, "%s key %s missing from fields", k.Name, k.Entity.Key)
			require.True(t, f.Required)
		} else {
			require.NotNil(t, k.Rel)
			for _, p := range []string{k.Rel.FromParam, k.Rel.ToParam} {
				f, ok := k.Field(p)
				require.True(t, ok, "%s endpoint %s missing from fields", k.Name, p)
				require.True(t, f.Required)
			}
		}
	}
}

func TestCatalogEntitiesPrecedeRelationships(t *testing.T) {
	catalog := Catalog()
	sawRel := false
	for _, k := range catalog {
		if !k.IsEntity() {
			sawRel = true
		} else {
			require.False(t, sawRel, "entity kind %s listed after a relationship kind", k.Name)
		}
	}
	require.Equal(t, 3, len(EntityKinds(catalog)))
	require.Equal(t, 4, len(RelationshipKinds(catalog)))
}

func TestRelationshipEndpointsExist(t *testing.T) {
	catalog := Catalog()
	labels := map[string]bool{}
	for _, k := range EntityKinds(catalog) {
		labels[k.Entity.Label] = true
	}
	for _, k := range RelationshipKinds(catalog) {
		require.True(t, labels[k.Rel.FromLabel], "%s references unknown label %s", k.Name, k.Rel.FromLabel)
		if !k.Rel.CreateTo {
			require.True(t, labels[k.Rel.ToLabel], "%s references unknown label %s", k.Name, k.Rel.ToLabel)
		}
	}
}

func TestKeyParams(t *testing.T) {
	catalog := Catalog()
	for _, k := range catalog {
		if k.IsEntity() {
			require.Equal(t, []string{k.Entity.Key}, k.KeyParams())
		} else {
			require.Equal(t, []string{k.Rel.FromParam, k.Rel.ToParam}, k.KeyParams())
		}
	}
}
