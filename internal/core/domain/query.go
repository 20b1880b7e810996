package domain

// QueryName identifies a query document in the registry.
type QueryName string

const (
	QueryShopPolicies QueryName = "shopPolicies"
	QueryShopDetails  QueryName = "shopDetails"
	QueryPages        QueryName = "pages"
	QueryMenu         QueryName = "menu"
)

// AllQueryNames returns the known query names.
func AllQueryNames() []QueryName {
	return []QueryName{QueryShopPolicies, QueryShopDetails, QueryPages, QueryMenu}
}

// Known reports whether the registry defines a default for this name.
func (q QueryName) Known() bool {
	switch q {
	case QueryShopPolicies, QueryShopDetails, QueryPages, QueryMenu:
		return true
	default:
		return false
	}
}

// QuerySet maps query names to GraphQL documents.
type QuerySet map[QueryName]string

// Get returns the document for a name, or "" if absent.
func (q QuerySet) Get(name QueryName) string {
	return q[name]
}

// Clone returns a shallow copy.
func (q QuerySet) Clone() QuerySet {
	out := make(QuerySet, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}

// Merge returns a copy of q with every non-empty override applied.
// Names missing from overrides keep their defaults.
func (q QuerySet) Merge(overrides map[string]string) QuerySet {
	out := q.Clone()
	for name, doc := range overrides {
		if doc == "" {
			continue
		}
		out[QueryName(name)] = doc
	}
	return out
}

// MenuHandles are the menu handles looked up on every navigation run.
var MenuHandles = []string{"main-menu", "footer", "policy-menu"}
