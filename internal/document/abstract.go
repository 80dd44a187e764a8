package document

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// MarshalJSON serializes a single-language abstract as a bare string and a
// multi-language abstract as a list of {language,text} entries, matching the
// consumer contract.
func (a Abstract) MarshalJSON() ([]byte, error) {
	switch len(a.Entries) {
	case 0:
		return []byte("null"), nil
	case 1:
		return sonic.Marshal(a.Entries[0].Text)
	default:
		return sonic.Marshal(a.Entries)
	}
}

// UnmarshalJSON accepts both shapes produced by MarshalJSON.
func (a *Abstract) UnmarshalJSON(data []byte) error {
	var s string
	if err := sonic.Unmarshal(data, &s); err == nil {
		if s == "" {
			a.Entries = nil
			return nil
		}
		a.Entries = []AbstractEntry{{Text: s}}
		return nil
	}
	var entries []AbstractEntry
	if err := sonic.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("abstract: %w", err)
	}
	a.Entries = entries
	return nil
}

// Text returns the abstract in the preferred language, falling back to the
// first entry when that language is absent.
func (a *Abstract) Text(language string) string {
	if a == nil || len(a.Entries) == 0 {
		return ""
	}
	for _, e := range a.Entries {
		if e.Language == language {
			return e.Text
		}
	}
	return a.Entries[0].Text
}
