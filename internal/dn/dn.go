// Package dn canonicalizes LDAP distinguished names and tests subtree
// containment. Matching is structural and case-insensitive on attribute
// types; attribute values keep their case (value matching rules are
// schema-specific and not modeled here).
package dn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

// DN is an ordered sequence of RDNs, most-specific component first, the
// way DNs are conventionally written.
type DN []RDN

// RDN is one relative distinguished name: a set of attribute=value pairs
// (multi-valued RDNs carry more than one).
type RDN []AttributeValue

type AttributeValue struct {
	Type  string
	Value string
}

// Parse parses and normalizes a DN: attribute types lower-cased, whitespace
// around separators dropped, values trimmed but otherwise untouched.
// Multi-valued RDN components are sorted so structurally equal RDNs compare
// equal regardless of written order.
func Parse(s string) (DN, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty DN")
	}
	if hasUnescapedQuote(s) {
		// RFC 4514 requires '"' to be escaped. ldap.ParseDN accepts a bare
		// quote as a literal value character, which would let quoted or
		// half-quoted input slip through canonicalization.
		return nil, fmt.Errorf("malformed DN %q: unescaped quote", s)
	}
	parsed, err := ldap.ParseDN(s)
	if err != nil {
		return nil, fmt.Errorf("malformed DN %q: %w", s, err)
	}
	if len(parsed.RDNs) == 0 {
		return nil, fmt.Errorf("empty DN")
	}

	out := make(DN, 0, len(parsed.RDNs))
	for _, r := range parsed.RDNs {
		if len(r.Attributes) == 0 {
			return nil, fmt.Errorf("empty RDN component in %q", s)
		}
		rdn := make(RDN, 0, len(r.Attributes))
		for _, av := range r.Attributes {
			t := strings.ToLower(strings.TrimSpace(av.Type))
			v := strings.TrimSpace(av.Value)
			if t == "" || v == "" {
				return nil, fmt.Errorf("empty attribute or value in %q", s)
			}
			rdn = append(rdn, AttributeValue{Type: t, Value: v})
		}
		sort.Slice(rdn, func(i, j int) bool {
			if rdn[i].Type != rdn[j].Type {
				return rdn[i].Type < rdn[j].Type
			}
			// Fold value case so equal RDNs sort identically.
			return strings.ToLower(rdn[i].Value) < strings.ToLower(rdn[j].Value)
		})
		out = append(out, rdn)
	}
	return out, nil
}

func hasUnescapedQuote(s string) bool {
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			return true
		}
	}
	return false
}

// Normalize returns the canonical string form of a DN. Stored branch
// restrictions and cache bucket keys use this form.
func Normalize(s string) (string, error) {
	d, err := Parse(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

func (d DN) String() string {
	parts := make([]string, 0, len(d))
	for _, r := range d {
		avs := make([]string, 0, len(r))
		for _, av := range r {
			avs = append(avs, av.Type+"="+av.Value)
		}
		parts = append(parts, strings.Join(avs, "+"))
	}
	return strings.Join(parts, ",")
}

func rdnEqual(a, b RDN) bool {
	if len(a) != len(b) {
		return false
	}
	// Both sides sorted at parse time.
	for i := range a {
		if a[i].Type != b[i].Type || !strings.EqualFold(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

// Within reports whether d lies inside the subtree rooted at branch:
// d's tail components must match branch's full sequence. Equal DNs are
// within their own subtree.
func (d DN) Within(branch DN) bool {
	if len(d) < len(branch) {
		return false
	}
	offset := len(d) - len(branch)
	for i := range branch {
		if !rdnEqual(d[offset+i], branch[i]) {
			return false
		}
	}
	return true
}

// IsWithinSubtree is the string-level containment test. Any parse failure
// on either side fails the test: a DN that cannot be canonicalized is not
// within any branch.
func IsWithinSubtree(target, branch string) bool {
	t, err := Parse(target)
	if err != nil {
		return false
	}
	b, err := Parse(branch)
	if err != nil {
		return false
	}
	return t.Within(b)
}
