// Package store implements the sharded in-memory keyspace: tagged values,
// per-key expiration, and the primitive operations every command handler
// is built from.
package store

import "strconv"

// Kind tags the variant a Value currently holds.
type Kind int

const (
	KindString Kind = iota
	KindList
	KindHash
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	default:
		return "none"
	}
}

// Encoding-hint thresholds. Mirrors upstream Redis defaults per the
// spec's open question on OBJECT ENCODING boundaries.
const (
	embstrMaxLen        = 44
	hashMaxListpackLen  = 128
	hashMaxListpackVal  = 64
	setMaxIntsetEntries = 512
)

// Value is the tagged union stored behind every key. Only one of the
// payload fields is meaningful for a given Kind.
type Value struct {
	Kind Kind

	Str []byte

	List [][]byte

	hashKeys []string
	hashVals map[string][]byte
	hashBig  bool // one-directional promotion to hashtable encoding

	setMembers map[string]struct{}
	setBig     bool // one-directional promotion to hashtable encoding
}

// NewString builds a string Value.
func NewString(b []byte) Value {
	return Value{Kind: KindString, Str: b}
}

// NewList builds an empty list Value.
func NewList() Value {
	return Value{Kind: KindList}
}

// NewHash builds an empty hash Value.
func NewHash() Value {
	return Value{Kind: KindHash, hashVals: make(map[string][]byte)}
}

// NewSet builds an empty set Value.
func NewSet() Value {
	return Value{Kind: KindSet, setMembers: make(map[string]struct{})}
}

// IsIntString reports whether b parses as a 64-bit signed integer with no
// surrounding whitespace and no leading zeros (other than "0" itself),
// matching Redis's "int" encoding eligibility.
func IsIntString(b []byte) (int64, bool) {
	if len(b) == 0 || len(b) > 20 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	// Reject non-canonical forms like "+1", "01", "-0" so the encoding
	// hint only fires for values that round-trip byte-for-byte.
	if strconv.FormatInt(n, 10) != string(b) {
		return 0, false
	}
	return n, true
}

// StringEncoding reports the OBJECT ENCODING hint for a string value.
// Unlike hash/set, string encoding has no hysteresis: it is a pure
// function of the current bytes, so once APPEND/SETRANGE make the content
// stop parsing as an int it reports "embstr" or "raw" by length like any
// other string; a short mutated string reports "embstr", not "raw".
func (v Value) StringEncoding() string {
	if _, ok := IsIntString(v.Str); ok {
		return "int"
	}
	if len(v.Str) <= embstrMaxLen {
		return "embstr"
	}
	return "raw"
}

// HashFields returns the fields in insertion order.
func (v *Value) HashFields() []string {
	out := make([]string, len(v.hashKeys))
	copy(out, v.hashKeys)
	return out
}

// HashGet returns a field's value.
func (v *Value) HashGet(field string) ([]byte, bool) {
	b, ok := v.hashVals[field]
	return b, ok
}

// HashLen returns the number of fields.
func (v *Value) HashLen() int { return len(v.hashKeys) }

// HashSet inserts or overwrites a field, returning true if the field was
// newly created. Promotes encoding to hashtable permanently once the
// listpack thresholds are crossed.
func (v *Value) HashSet(field string, val []byte) bool {
	_, existed := v.hashVals[field]
	if !existed {
		v.hashKeys = append(v.hashKeys, field)
	}
	v.hashVals[field] = val
	if len(field) > hashMaxListpackVal || len(val) > hashMaxListpackVal || len(v.hashKeys) > hashMaxListpackLen {
		v.hashBig = true
	}
	return !existed
}

// HashDel removes a field, returning true if it existed.
func (v *Value) HashDel(field string) bool {
	if _, ok := v.hashVals[field]; !ok {
		return false
	}
	delete(v.hashVals, field)
	for i, f := range v.hashKeys {
		if f == field {
			v.hashKeys = append(v.hashKeys[:i], v.hashKeys[i+1:]...)
			break
		}
	}
	return true
}

// HashEncoding reports the OBJECT ENCODING hint for a hash value.
func (v *Value) HashEncoding() string {
	if v.hashBig {
		return "hashtable"
	}
	return "listpack"
}

// SetMembers returns a snapshot of the set's members.
func (v *Value) SetMembers() []string {
	out := make([]string, 0, len(v.setMembers))
	for m := range v.setMembers {
		out = append(out, m)
	}
	return out
}

// SetHas reports membership.
func (v *Value) SetHas(member string) bool {
	_, ok := v.setMembers[member]
	return ok
}

// SetLen returns the cardinality.
func (v *Value) SetLen() int { return len(v.setMembers) }

// SetAdd inserts a member, returning true if it was newly added.
func (v *Value) SetAdd(member string) bool {
	if _, ok := v.setMembers[member]; ok {
		return false
	}
	v.setMembers[member] = struct{}{}
	if _, isInt := IsIntString([]byte(member)); !isInt {
		v.setBig = true
	}
	if len(v.setMembers) > setMaxIntsetEntries {
		v.setBig = true
	}
	return true
}

// SetRem removes a member, returning true if it existed.
func (v *Value) SetRem(member string) bool {
	if _, ok := v.setMembers[member]; !ok {
		return false
	}
	delete(v.setMembers, member)
	return true
}

// SetEncoding reports the OBJECT ENCODING hint for a set value.
func (v *Value) SetEncoding() string {
	if v.setBig {
		return "hashtable"
	}
	return "intset"
}

// Clone deep-copies the value so that mutating the copy can never affect
// the original. Used by COPY.
func (v Value) Clone() Value {
	out := Value{Kind: v.Kind, hashBig: v.hashBig, setBig: v.setBig}
	if v.Str != nil {
		out.Str = append([]byte(nil), v.Str...)
	}
	if v.List != nil {
		out.List = make([][]byte, len(v.List))
		for i, b := range v.List {
			out.List[i] = append([]byte(nil), b...)
		}
	}
	if v.hashVals != nil {
		out.hashKeys = append([]string(nil), v.hashKeys...)
		out.hashVals = make(map[string][]byte, len(v.hashVals))
		for k, b := range v.hashVals {
			out.hashVals[k] = append([]byte(nil), b...)
		}
	}
	if v.setMembers != nil {
		out.setMembers = make(map[string]struct{}, len(v.setMembers))
		for m := range v.setMembers {
			out.setMembers[m] = struct{}{}
		}
	}
	return out
}
