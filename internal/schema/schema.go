// Package schema validates raw add-on entries before they are accepted
// into the entry store. Entries arrive as decoded JSON objects; validation
// is all-or-nothing per source so a malformed source never half-loads.
package schema

import "fmt"

// Error reports a malformed entry. A load call that returns *Error leaves
// the entry store untouched.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

func errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// fieldKind is the declared type of an entry field.
type fieldKind int

const (
	kindString fieldKind = iota
	kindStringMap
	kindStringList
)

// entryFields is the declarative schema: every recognized key with its
// declared type, plus whether it must be present.
var entryFields = map[string]struct {
	kind     fieldKind
	required bool
}{
	"id":           {kind: kindString, required: true},
	"owner":        {kind: kindString, required: true},
	"branch":       {kind: kindString},
	"assets":       {kind: kindStringMap},
	"asset_prefix": {kind: kindString},
	"repository":   {kind: kindString},
	"platforms":    {kind: kindStringList},
}

// ValidateEntry checks a single raw entry against the field schema.
func ValidateEntry(entry any) error {
	m, ok := entry.(map[string]any)
	if !ok {
		return errorf("expecting object for entry, got %T", entry)
	}
	for key, field := range entryFields {
		if _, present := m[key]; field.required && !present {
			return errorf("key %q is required", key)
		}
	}
	for key, value := range m {
		field, known := entryFields[key]
		if !known {
			return errorf("key %q is not valid", key)
		}
		switch field.kind {
		case kindString:
			if _, ok := value.(string); !ok {
				return errorf("expected string for %q, got %T", key, value)
			}
		case kindStringMap:
			vm, ok := value.(map[string]any)
			if !ok {
				return errorf("expected object for %q, got %T", key, value)
			}
			for k, v := range vm {
				if _, ok := v.(string); !ok {
					return errorf("expected string values in %q, got %T for %q", key, v, k)
				}
			}
		case kindStringList:
			vl, ok := value.([]any)
			if !ok {
				return errorf("expected array for %q, got %T", key, value)
			}
			for _, v := range vl {
				if _, ok := v.(string); !ok {
					return errorf("expected string elements in %q, got %T", key, v)
				}
			}
		}
	}
	return nil
}

// ValidateEntries checks a whole source worth of entries. The first
// invalid entry fails the call; callers must not load any entry from a
// source that failed validation.
func ValidateEntries(entries []any) error {
	for i, entry := range entries {
		if err := ValidateEntry(entry); err != nil {
			return errorf("entry %d: %v", i, err)
		}
	}
	return nil
}
