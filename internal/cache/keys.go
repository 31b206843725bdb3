package cache

import "fmt"

// Category names the cacheable CMS content types.
type Category string

const (
	CategoryGowns       Category = "gowns"
	CategoryAddons      Category = "addons"
	CategoryCollections Category = "collections"
)

// Categories lists every cacheable category, in invalidation order.
var Categories = []Category{CategoryGowns, CategoryAddons, CategoryCollections}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryGowns, CategoryAddons, CategoryCollections:
		return true
	}
	return false
}

// ListKey returns the cache key for a category listing. The variant
// distinguishes filtered listings (e.g. a gown category filter); empty means
// the unfiltered list.
func ListKey(cat Category, variant string) string {
	if variant == "" {
		return fmt.Sprintf("cms:%s:list", cat)
	}
	return fmt.Sprintf("cms:%s:list:%s", cat, variant)
}

// ItemKey returns the cache key for a single entry.
func ItemKey(cat Category, slug string) string {
	return fmt.Sprintf("cms:%s:item:%s", cat, slug)
}

// Patterns returns the key glob patterns covering a category's list and
// item key shapes.
func Patterns(cat Category) []string {
	return []string{
		fmt.Sprintf("cms:%s:list*", cat),
		fmt.Sprintf("cms:%s:item:*", cat),
	}
}
