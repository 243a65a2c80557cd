package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Unlabeled is the bucket for clips no table entry matches. It always exists
// alongside the party buckets so upload steps can treat it uniformly.
const Unlabeled = "unlabeled"

// TableEntry maps one speaker-name pattern to a party identifier.
type TableEntry struct {
	Pattern string
	Party   string
}

// Table is the speaker→party lookup. Entry order is semantically significant:
// classification is first-match-wins in authored order, so one speaker name
// being a substring of another resolves by position, not by best match.
// Read-only after load and safe to share across videos.
type Table struct {
	entries []TableEntry
}

// LoadTable reads the JSON object file preserving its key order, which a map
// would destroy. The file shape is {"<speaker pattern>": "<party id>", ...}.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open party table: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read party table: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("party table: expected JSON object, got %v", tok)
	}

	var t Table
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read party table key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("party table: expected string key, got %T", keyTok)
		}
		var party string
		if err := dec.Decode(&party); err != nil {
			return nil, fmt.Errorf("read party for %q: %w", key, err)
		}
		t.entries = append(t.entries, TableEntry{Pattern: key, Party: party})
	}
	return &t, nil
}

// Classify returns the party of the first entry whose pattern occurs as a
// literal substring of filename, or Unlabeled when nothing matches.
func (t *Table) Classify(filename string) string {
	for _, e := range t.entries {
		if strings.Contains(filename, e.Pattern) {
			return e.Party
		}
	}
	return Unlabeled
}

// Parties lists the distinct party identifiers in first-seen order.
func (t *Table) Parties() []string {
	seen := make(map[string]struct{}, len(t.entries))
	var out []string
	for _, e := range t.entries {
		if _, ok := seen[e.Party]; ok {
			continue
		}
		seen[e.Party] = struct{}{}
		out = append(out, e.Party)
	}
	return out
}

func (t *Table) Len() int {
	return len(t.entries)
}
