package vocabulary

import (
	"path"
	"strings"
)

// Sample is one training or inference row: a sparse presence map over the
// vocabulary plus its class label
type Sample struct {
	Attributes map[string]int `json:"attributes"`
	Class      string         `json:"class"`
	Extension  string         `json:"extension,omitempty"`
}

// NewSample creates an empty sample for class
func NewSample(class string) *Sample {
	return &Sample{
		Attributes: make(map[string]int),
		Class:      class,
	}
}

// Has reports whether term is present in the sample
func (s *Sample) Has(term string) bool {
	return s.Attributes[term] == 1
}

// Dense expands the sample into a 0/1 vector ordered like schema
func (s *Sample) Dense(schema []string) []uint8 {
	vec := make([]uint8, len(schema))
	for i, term := range schema {
		if s.Has(term) {
			vec[i] = 1
		}
	}
	return vec
}

// ExtensionOf returns the text after the last dot of the file name, or the
// whole name when it has no dot
func ExtensionOf(filePath string) string {
	name := path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
