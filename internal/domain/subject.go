package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SubjectKind tells whether a token subject names an identity key.
type SubjectKind int

const (
	SubjectNonNumeric SubjectKind = iota
	SubjectNumeric
)

// Subject is the coerced form of a token's "sub" claim.
// Only Numeric subjects resolve to a user.
type Subject struct {
	Kind SubjectKind
	ID   int64  // set when Kind is SubjectNumeric
	Raw  string // original claim rendered as text
}

// FormatSubject renders an identity key the way tokens carry it.
func FormatSubject(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseSubject coerces a decoded claim value. Decimal strings and integral
// JSON numbers become Numeric; everything else is NonNumeric.
func ParseSubject(claim any) Subject {
	switch v := claim.(type) {
	case string:
		return parseSubjectString(v)
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return Subject{Kind: SubjectNumeric, ID: id, Raw: v.String()}
		}

		f, err := v.Float64()
		if err != nil {
			return Subject{Kind: SubjectNonNumeric, Raw: v.String()}
		}

		return parseSubjectFloat(f)
	case float64:
		return parseSubjectFloat(v)
	case int64:
		return Subject{Kind: SubjectNumeric, ID: v, Raw: strconv.FormatInt(v, 10)}
	case int:
		return Subject{Kind: SubjectNumeric, ID: int64(v), Raw: strconv.Itoa(v)}
	default:
		return Subject{Kind: SubjectNonNumeric, Raw: fmt.Sprint(v)}
	}
}

// parseSubjectFloat accepts integral values such as 1.0.
func parseSubjectFloat(v float64) Subject {
	if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
		return Subject{Kind: SubjectNumeric, ID: int64(v), Raw: strconv.FormatFloat(v, 'f', -1, 64)}
	}

	return Subject{Kind: SubjectNonNumeric, Raw: strconv.FormatFloat(v, 'g', -1, 64)}
}

func parseSubjectString(s string) Subject {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return Subject{Kind: SubjectNonNumeric, Raw: s}
	}

	return Subject{Kind: SubjectNumeric, ID: id, Raw: s}
}

// IdentityKey returns the user id when the subject is numeric.
func (s Subject) IdentityKey() (int64, bool) {
	return s.ID, s.Kind == SubjectNumeric
}
