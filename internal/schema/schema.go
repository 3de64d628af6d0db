// Package schema describes the delimited source files and how each maps onto
// the graph: field types, natural keys, and per-kind batch sizes. The catalog
// is enumerated once at startup and never mutated afterwards.
package schema

type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
	TypeDate   FieldType = "date"
	TypeID     FieldType = "id"
)

// Field maps one source column to one graph property.
type Field struct {
	Column   string // header name in the source file
	Property string // property name in the graph and in batch parameters
	Type     FieldType
	Required bool
}

// EntitySpec describes an entity kind: a node label merged by its natural key.
type EntitySpec struct {
	Label string
	Key   string // property name of the natural key
}

// RelSpec describes a relationship kind between two already-defined labels.
// FromParam/ToParam name the batch parameters carrying the endpoint keys,
// which may differ from the graph key property when both endpoints share a
// label (paper citations reference pmid twice).
type RelSpec struct {
	Type      string
	FromLabel string
	FromKey   string
	FromParam string
	ToLabel   string
	ToKey     string
	ToParam   string

	// CreateTo merges the target node instead of matching it, setting
	// ToCreateProps on first creation. Used for kinds whose target entities
	// only exist inside the relationship file (journals, bioentity mentions).
	CreateTo      bool
	ToCreateProps []string
}

// Kind is one loadable file. Exactly one of Entity or Rel is set.
type Kind struct {
	Name      string
	File      string
	BatchSize int
	Fields    []Field
	Entity    *EntitySpec
	Rel       *RelSpec
}

// IsEntity reports whether this kind loads nodes rather than relationships.
func (k Kind) IsEntity() bool { return k.Entity != nil }

// KeyParams returns the parameter names whose values identify a record,
// used when logging per-record failures.
func (k Kind) KeyParams() []string {
	if k.Entity != nil {
		return []string{k.Entity.Key}
	}
	return []string{k.Rel.FromParam, k.Rel.ToParam}
}

// Field returns the field with the given property name.
func (k Kind) Field(property string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Property == property {
			return f, true
		}
	}
	return Field{}, false
}

// Catalog returns the full load set in dependency order: all entity kinds
// precede all relationship kinds. Batch sizes follow record weight — wide
// records load in smaller transactions.
func Catalog() []Kind {
	return []Kind{
		{
			Name:      "papers",
			File:      "C01_Papers.tsv",
			BatchSize: 2000,
			Entity:    &EntitySpec{Label: "Paper", Key: "pmid"},
			Fields: []Field{
				{Column: "PMID", Property: "pmid", Type: TypeInt, Required: true},
				{Column: "PubYear", Property: "pubyear", Type: TypeInt},
				{Column: "ArticleTitle", Property: "title", Type: TypeString},
				{Column: "AuthorNum", Property: "author_num", Type: TypeInt},
				{Column: "CitedCount", Property: "cited_count", Type: TypeInt},
				{Column: "StdCitedCount", Property: "std_cited_count", Type: TypeFloat},
				{Column: "MedlineCitation_Status", Property: "medline_status", Type: TypeString},
				{Column: "IsClinicalArticle", Property: "is_clinical_article", Type: TypeBool},
				{Column: "IsResearchArticle", Property: "is_research_article", Type: TypeBool},
			},
		},
		{
			Name:      "authors",
			File:      "C07_Authors.tsv",
			BatchSize: 5000,
			Entity:    &EntitySpec{Label: "Author", Key: "aid"},
			Fields: []Field{
				{Column: "AID", Property: "aid", Type: TypeInt, Required: true},
				{Column: "BeginYear", Property: "begin_year", Type: TypeInt},
				{Column: "RecentYear", Property: "recent_year", Type: TypeInt},
				{Column: "PaperNum", Property: "paper_num", Type: TypeInt},
				{Column: "h_index", Property: "h_index", Type: TypeInt},
			},
		},
		{
			Name:      "bioentities",
			File:      "C23_BioEntities.tsv",
			BatchSize: 10000,
			Entity:    &EntitySpec{Label: "BioEntity", Key: "entity_id"},
			Fields: []Field{
				{Column: "EntityId", Property: "entity_id", Type: TypeID, Required: true},
				{Column: "Type", Property: "type", Type: TypeString},
				{Column: "Mention", Property: "mention", Type: TypeString},
			},
		},
		{
			Name:      "papers_authors",
			File:      "C02_Link_Papers_Authors.tsv",
			BatchSize: 10000,
			Rel: &RelSpec{
				Type:      "AUTHORED_BY",
				FromLabel: "Author", FromKey: "aid", FromParam: "aid",
				ToLabel: "Paper", ToKey: "pmid", ToParam: "pmid",
			},
			Fields: []Field{
				{Column: "PMID", Property: "pmid", Type: TypeInt, Required: true},
				{Column: "AID", Property: "aid", Type: TypeInt, Required: true},
				{Column: "AuthorOrder", Property: "author_order", Type: TypeInt},
			},
		},
		{
			Name:      "papers_references",
			File:      "C04_ReferenceList_Papers.tsv",
			BatchSize: 10000,
			Rel: &RelSpec{
				Type:      "CITES_PAPER",
				FromLabel: "Paper", FromKey: "pmid", FromParam: "pmid",
				ToLabel: "Paper", ToKey: "pmid", ToParam: "ref_pmid",
			},
			Fields: []Field{
				{Column: "PMID", Property: "pmid", Type: TypeInt, Required: true},
				{Column: "ReferencePMID", Property: "ref_pmid", Type: TypeInt, Required: true},
				{Column: "ReferenceOrder", Property: "reference_order", Type: TypeInt},
			},
		},
		{
			Name:      "papers_journals",
			File:      "C10_Link_Papers_Journals.tsv",
			BatchSize: 10000,
			Rel: &RelSpec{
				Type:      "PUBLISHED_IN",
				FromLabel: "Paper", FromKey: "pmid", FromParam: "pmid",
				ToLabel: "Journal", ToKey: "journal_issn", ToParam: "journal_issn",
				CreateTo:      true,
				ToCreateProps: []string{"journal_title", "journal_sjr", "journal_hindex"},
			},
			Fields: []Field{
				{Column: "PMID", Property: "pmid", Type: TypeInt, Required: true},
				{Column: "Journal_ISSN", Property: "journal_issn", Type: TypeID, Required: true},
				{Column: "Journal_Title", Property: "journal_title", Type: TypeString},
				{Column: "Journal_SJR", Property: "journal_sjr", Type: TypeFloat},
				{Column: "Journal_Hindex", Property: "journal_hindex", Type: TypeFloat},
			},
		},
		{
			Name:      "papers_bioentities",
			File:      "C06_Link_Papers_BioEntities.tsv",
			BatchSize: 5000,
			Rel: &RelSpec{
				Type:      "MENTIONS_IN_PAPER",
				FromLabel: "Paper", FromKey: "pmid", FromParam: "pmid",
				ToLabel: "BioEntity", ToKey: "entity_id", ToParam: "entity_id",
				CreateTo:      true,
				ToCreateProps: []string{"entity_type", "mention_text"},
			},
			Fields: []Field{
				{Column: "PMID", Property: "pmid", Type: TypeInt, Required: true},
				{Column: "EntityId", Property: "entity_id", Type: TypeID, Required: true},
				{Column: "Type", Property: "entity_type", Type: TypeString},
				{Column: "Mention", Property: "mention_text", Type: TypeString},
				{Column: "prob", Property: "probability", Type: TypeFloat},
			},
		},
	}
}

// EntityKinds returns the entity subset of the catalog in load order.
func EntityKinds(catalog []Kind) []Kind {
	var out []Kind
	for _, k := range catalog {
		if k.IsEntity() {
			out = append(out, k)
		}
	}
	return out
}

// RelationshipKinds returns the relationship subset of the catalog in load order.
func RelationshipKinds(catalog []Kind) []Kind {
	var out []Kind
	for _, k := range catalog {
		if !k.IsEntity() {
			out = append(out, k)
		}
	}
	return out
}
