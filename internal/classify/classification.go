package classify

import "strings"

// Category is the folder-like bucket a message is sorted into.
type Category string

const (
	CategoryWork          Category = "Work"
	CategorySchool        Category = "School"
	CategoryShopping      Category = "Shopping"
	CategoryUncategorized Category = "Uncategorized"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryWork, CategorySchool, CategoryShopping, CategoryUncategorized}

// Known reports whether c is one of the four categories.
func (c Category) Known() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Priority is how urgent a message is. The empty value means unknown.
type Priority string

const (
	PriorityImportant Priority = "Important"
	PriorityNormal    Priority = "Normal"
)

// Response tells whether the message expects a reply. The empty value means unknown.
type Response string

const (
	ResponseYes Response = "Yes"
	ResponseNo  Response = "No"
)

// Classification is the structured result for one message.
// The JSON keys are the ones the model is prompted to emit.
type Classification struct {
	Category         Category `json:"Category"`
	Priority         Priority `json:"Priority"`
	RequiresResponse Response `json:"RequiresResponse"`
}

// Fallback is the classification used when the model output cannot be used.
func Fallback() Classification {
	return Classification{Category: CategoryUncategorized}
}

// IsFallback reports whether c carries no information beyond the default bucket.
func (c Classification) IsFallback() bool {
	return c == Fallback()
}

func canonicalCategory(s string) Category {
	for _, k := range Categories {
		if strings.EqualFold(strings.TrimSpace(s), string(k)) {
			return k
		}
	}
	return CategoryUncategorized
}

func canonicalPriority(s string) Priority {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(PriorityImportant)):
		return PriorityImportant
	case strings.EqualFold(s, string(PriorityNormal)):
		return PriorityNormal
	}
	return ""
}

func canonicalResponse(s string) Response {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(ResponseYes)):
		return ResponseYes
	case strings.EqualFold(s, string(ResponseNo)):
		return ResponseNo
	}
	return ""
}
