package knowledge

import "slices"

// Entry is a single question/answer pair in the knowledge base.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Question  string    `json:"question" yaml:"question"`
	Answer    string    `json:"answer" yaml:"answer"`
	Tags      []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Embedding []float32 `json:"-" yaml:"-"`
}

// HasTag reports whether the entry carries tag (case-sensitive).
func (e Entry) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

// SharesTag reports whether e and other have at least one tag in common.
func (e Entry) SharesTag(other Entry) bool {
	for _, t := range e.Tags {
		if other.HasTag(t) {
			return true
		}
	}
	return false
}

// document is the text indexed for lexical retrieval.
func (e Entry) document() string {
	text := e.Question + " " + e.Answer
	for _, t := range e.Tags {
		text += " " + t
	}
	return text
}

func (e Entry) clone() Entry {
	e.Tags = slices.Clone(e.Tags)
	e.Embedding = slices.Clone(e.Embedding)
	return e
}
