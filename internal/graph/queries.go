package graph

import (
	"fmt"
	"strings"

	"github.com/medgraph/loader/internal/schema"
)

// Queries are generated from the schema catalog rather than written as
// constants: every kind follows the same UNWIND + MERGE shape, only labels,
// keys, and property lists differ.

// ConstraintQuery returns the uniqueness constraint statement for a label's
// natural key. The constraint-backed index is what makes MERGE by key fast;
// without it a large load degrades to label scans.
func ConstraintQuery(label, key string) string {
	name := strings.ToLower(label) + "_" + key
	return fmt.Sprintf(
		"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		name, label, key,
	)
}

// ConstraintTargets returns every (label, key) pair the catalog merges on,
// including relationship targets created on the fly.
func ConstraintTargets(catalog []schema.Kind) [][2]string {
	var out [][2]string
	seen := make(map[string]bool)
	add := func(label, key string) {
		id := label + "." + key
		if !seen[id] {
			seen[id] = true
			out = append(out, [2]string{label, key})
		}
	}
	for _, k := range catalog {
		if k.IsEntity() {
			add(k.Entity.Label, k.Entity.Key)
		} else if k.Rel.CreateTo {
			add(k.Rel.ToLabel, k.Rel.ToKey)
		}
	}
	return out
}

// UpsertQuery builds the batched upsert statement for a kind. Rows are bound
// as $rows; re-running the same batch is a no-op thanks to MERGE on natural
// keys.
func UpsertQuery(k schema.Kind) string {
	if k.IsEntity() {
		return entityUpsert(k)
	}
	return relationshipUpsert(k)
}

func entityUpsert(k schema.Kind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "UNWIND $rows AS row\n")
	fmt.Fprintf(&b, "MERGE (n:%s {%s: row.%s})", k.Entity.Label, k.Entity.Key, k.Entity.Key)

	var props []string
	for _, f := range k.Fields {
		if f.Property != k.Entity.Key {
			props = append(props, f.Property)
		}
	}
	writeSet(&b, "n", props)
	return b.String()
}

func relationshipUpsert(k schema.Kind) string {
	r := k.Rel
	var b strings.Builder
	fmt.Fprintf(&b, "UNWIND $rows AS row\n")
	fmt.Fprintf(&b, "MATCH (a:%s {%s: row.%s})\n", r.FromLabel, r.FromKey, r.FromParam)

	created := make(map[string]bool, len(r.ToCreateProps))
	if r.CreateTo {
		fmt.Fprintf(&b, "MERGE (b:%s {%s: row.%s})", r.ToLabel, r.ToKey, r.ToParam)
		for i, p := range r.ToCreateProps {
			created[p] = true
			if i == 0 {
				fmt.Fprintf(&b, "\nON CREATE SET b.%s = row.%s", p, p)
			} else {
				fmt.Fprintf(&b, ",\n              b.%s = row.%s", p, p)
			}
		}
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "MATCH (b:%s {%s: row.%s})\n", r.ToLabel, r.ToKey, r.ToParam)
	}

	fmt.Fprintf(&b, "MERGE (a)-[r:%s]->(b)", r.Type)

	var props []string
	for _, f := range k.Fields {
		if f.Property == r.FromParam || f.Property == r.ToParam || created[f.Property] {
			continue
		}
		props = append(props, f.Property)
	}
	writeSet(&b, "r", props)
	return b.String()
}

func writeSet(b *strings.Builder, variable string, props []string) {
	for i, p := range props {
		if i == 0 {
			fmt.Fprintf(b, "\nSET %s.%s = row.%s", variable, p, p)
		} else {
			fmt.Fprintf(b, ",\n    %s.%s = row.%s", variable, p, p)
		}
	}
	b.WriteString("\n")
}
