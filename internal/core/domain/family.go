package domain

import (
	"fmt"
	"strings"
)

// ContentFamily names a group of content sourced together.
type ContentFamily string

const (
	// FamilyShop covers shop policies (and shop details when enabled).
	FamilyShop ContentFamily = "shop"

	// FamilyContent covers pages and their metafields.
	FamilyContent ContentFamily = "content"

	// FamilyNavigation covers menus.
	FamilyNavigation ContentFamily = "navigation"
)

// AllFamilies returns every content family.
func AllFamilies() []ContentFamily {
	return []ContentFamily{FamilyShop, FamilyContent, FamilyNavigation}
}

// ParseFamily converts a string into a ContentFamily.
func ParseFamily(s string) (ContentFamily, error) {
	switch f := ContentFamily(strings.ToLower(strings.TrimSpace(s))); f {
	case FamilyShop, FamilyContent, FamilyNavigation:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown connection %q", ErrInvalidInput, s)
	}
}

// Kinds returns the node kinds a family can produce.
func (f ContentFamily) Kinds() []NodeKind {
	switch f {
	case FamilyShop:
		return []NodeKind{KindShopPolicy, KindShopDetails}
	case FamilyContent:
		return []NodeKind{KindPage, KindPageMetafield}
	case FamilyNavigation:
		return []NodeKind{KindMenu}
	default:
		return nil
	}
}

// ConnectionSelector is the set of families to source in one run.
type ConnectionSelector map[ContentFamily]struct{}

// NewConnectionSelector builds a selector from family names.
// Duplicates collapse; unknown names are rejected.
func NewConnectionSelector(names ...string) (ConnectionSelector, error) {
	sel := make(ConnectionSelector, len(names))
	for _, name := range names {
		f, err := ParseFamily(name)
		if err != nil {
			return nil, err
		}
		sel[f] = struct{}{}
	}
	return sel, nil
}

// Has reports whether the family is selected.
func (s ConnectionSelector) Has(f ContentFamily) bool {
	_, ok := s[f]
	return ok
}

// Families returns the selected families in canonical order.
func (s ConnectionSelector) Families() []ContentFamily {
	var out []ContentFamily
	for _, f := range AllFamilies() {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// NodeTypes returns the node types owned by the selected families.
func (s ConnectionSelector) NodeTypes() []string {
	var out []string
	for _, f := range s.Families() {
		for _, k := range f.Kinds() {
			out = append(out, k.TypeName())
		}
	}
	return out
}
