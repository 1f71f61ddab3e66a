package content

import "fmt"

// Category selects a family of stored content for listing.
type Category string

const (
	CategoryAll    Category = "all"
	CategoryTexts  Category = "texts"
	CategoryImages Category = "images"
	CategoryPDFs   Category = "pdfs"
)

// Categories lists every Category in display order.
var Categories = []Category{CategoryAll, CategoryTexts, CategoryImages, CategoryPDFs}

// ParseCategory parses a category name. The empty string is CategoryAll.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryAll, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (want one of %v)", s, Categories)
}

// Prefix returns the storage-key prefix that selects the category.
func (c Category) Prefix() string {
	switch c {
	case CategoryTexts:
		return keyScheme + "/text/"
	case CategoryImages:
		return keyScheme + "/image/"
	case CategoryPDFs:
		return keyScheme + "/" + ApplicationPDF.String() + "/"
	default:
		return keyScheme + "/"
	}
}
