// Package bins holds the request-bin data model, the identifier rules and the
// storage contract used by the server, together with the in-memory store.
package bins

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// IDPattern is the textual form of a bin identifier: a version 4, RFC 4122
// variant UUID in any case. It is not anchored so that it can be embedded in
// larger patterns (paths, headers).
const IDPattern = `(?i:[a-f0-9]{8}-[a-f0-9]{4}-4[a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12})`

var idRegexp = regexp.MustCompile(`^` + IDPattern + `$`)

// ID identifies a bin. It marshals to JSON as a bare string.
type ID string

// NewID returns a random identifier. Callers that need uniqueness must check
// it against the live key set.
func NewID() ID {
	return ID(uuid.New().String())
}

// ParseID validates s as a bin identifier. Identifiers are canonicalised to
// lower case so that any casing addresses the same bin.
func ParseID(s string) (ID, bool) {
	if !idRegexp.MatchString(s) {
		return "", false
	}
	return ID(strings.ToLower(s)), true
}

func (id ID) String() string { return string(id) }
