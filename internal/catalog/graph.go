// Package catalog holds the pure catalog logic of the storefront: category
// graph normalization, ancestor-path resolution, product filtering and
// pagination. Nothing in this package touches the network or the database.
package catalog

import (
	"encoding/json"
	"sort"
	"strconv"

	"storefront-service/internal/domain"
)

// Ref is a category reference as it appears in external payloads. Legacy
// data carries identifiers as strings, numbers, or nested objects with an
// "id"/"_id" field; Ref canonicalizes all of those to a string exactly once,
// at the unmarshalling boundary, so internal logic never re-sniffs shapes.
// An absent, null, or unusable value yields the zero Ref.
type Ref struct {
	id string
}

// NewRef returns a Ref for an already-canonical identifier.
func NewRef(id string) Ref { return Ref{id: id} }

// ID returns the canonical string identifier, empty for the zero Ref.
func (r Ref) ID() string { return r.id }

// IsZero reports whether the reference is absent.
func (r Ref) IsZero() bool { return r.id == "" }

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	// Malformed references normalize to the zero Ref rather than failing
	// the surrounding record.
	r.id = normalizeRawID(b)
	return nil
}

func normalizeRawID(b []byte) string {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return ""
	}
	return NormalizeID(v)
}

// NormalizeID converts a decoded JSON value into its canonical string
// identifier form. Object-shaped references are unwrapped via an "id" or
// "_id" field; numbers are rendered without an exponent; anything else
// unusable normalizes to the empty string.
func NormalizeID(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case map[string]any:
		if id, ok := val["_id"]; ok {
			return NormalizeID(id)
		}
		if id, ok := val["id"]; ok {
			return NormalizeID(id)
		}
		return ""
	default:
		return ""
	}
}

// RawCategory is a category record as received from an external source,
// before identifier normalization. MongoID covers legacy "_id" payloads.
type RawCategory struct {
	ID       Ref    `json:"id"`
	MongoID  Ref    `json:"_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Parent   Ref    `json:"parent"`
	IsActive *bool  `json:"is_active"`
}

func (rc RawCategory) canonicalID() string {
	if !rc.MongoID.IsZero() {
		return rc.MongoID.ID()
	}
	return rc.ID.ID()
}

// RawTreeNode is one node of an externally supplied nested category tree.
type RawTreeNode struct {
	RawCategory
	Children []RawTreeNode `json:"children"`
}

// NormalizeRecords canonicalizes a flat batch of raw category records and
// builds the id -> category lookup. Records without a usable identifier are
// omitted; a single malformed record never fails the batch.
func NormalizeRecords(records []RawCategory) ([]domain.Category, map[string]domain.Category) {
	categories := make([]domain.Category, 0, len(records))
	byID := make(map[string]domain.Category, len(records))

	for _, rec := range records {
		cat, ok := normalizeRecord(rec)
		if !ok {
			continue
		}
		categories = append(categories, cat)
		byID[cat.ID] = cat
	}
	return categories, byID
}

func normalizeRecord(rec RawCategory) (domain.Category, bool) {
	id := rec.canonicalID()
	if id == "" {
		return domain.Category{}, false
	}
	cat := domain.Category{
		ID:       id,
		Name:     rec.Name,
		Slug:     rec.Slug,
		IsActive: true,
	}
	if rec.IsActive != nil {
		cat.IsActive = *rec.IsActive
	}
	if parent := rec.Parent.ID(); parent != "" {
		cat.Parent = &parent
	}
	return cat, true
}

// NormalizeNode applies the same identifier normalization recursively to a
// server-provided nested tree node. Returns nil for nodes without a usable
// identifier; such nodes are pruned together with their subtree.
func NormalizeNode(node RawTreeNode) *domain.CategoryNode {
	cat, ok := normalizeRecord(node.RawCategory)
	if !ok {
		return nil
	}
	out := &domain.CategoryNode{Category: cat, Children: []*domain.CategoryNode{}}
	for _, child := range node.Children {
		if normalized := NormalizeNode(child); normalized != nil {
			out.Children = append(out.Children, normalized)
		}
	}
	return out
}

// FlattenTree normalizes a nested category dump into flat parent-linked
// records. Children get their parent from the nesting itself; only root
// nodes keep an explicit parent reference. Nodes pruned by NormalizeNode
// disappear together with their subtree.
func FlattenTree(nodes []RawTreeNode) []domain.Category {
	categories := make([]domain.Category, 0, len(nodes))
	var walk func(n *domain.CategoryNode, parent string)
	walk = func(n *domain.CategoryNode, parent string) {
		cat := n.Category
		if parent != "" {
			p := parent
			cat.Parent = &p
		}
		categories = append(categories, cat)
		for _, child := range n.Children {
			walk(child, cat.ID)
		}
	}
	for _, node := range nodes {
		if normalized := NormalizeNode(node); normalized != nil {
			walk(normalized, "")
		}
	}
	return categories
}

// BuildTree assembles the nested forest from a flat list of normalized
// categories. Roots are categories without a parent; children are ordered
// by name. Nodes whose parent chain never reaches a root (orphans, or
// members of a corrupt parent cycle) are left out, which also guarantees
// termination on bad data.
func BuildTree(categories []domain.Category) []*domain.CategoryNode {
	byParent := make(map[string][]domain.Category)
	for _, cat := range categories {
		parent := ""
		if cat.Parent != nil {
			parent = *cat.Parent
		}
		byParent[parent] = append(byParent[parent], cat)
	}
	for _, siblings := range byParent {
		sort.SliceStable(siblings, func(i, j int) bool { return siblings[i].Name < siblings[j].Name })
	}

	visited := make(map[string]bool, len(categories))
	var build func(parent string) []*domain.CategoryNode
	build = func(parent string) []*domain.CategoryNode {
		children := byParent[parent]
		if len(children) == 0 {
			return []*domain.CategoryNode{}
		}
		nodes := make([]*domain.CategoryNode, 0, len(children))
		for _, cat := range children {
			if visited[cat.ID] {
				continue
			}
			visited[cat.ID] = true
			nodes = append(nodes, &domain.CategoryNode{
				Category: cat,
				Children: build(cat.ID),
			})
		}
		return nodes
	}
	return build("")
}

// MapByID builds the lookup table for already-canonical categories.
func MapByID(categories []domain.Category) map[string]domain.Category {
	byID := make(map[string]domain.Category, len(categories))
	for _, cat := range categories {
		if cat.ID != "" {
			byID[cat.ID] = cat
		}
	}
	return byID
}
