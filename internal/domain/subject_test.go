package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/collabgames/internal/domain"
)

func TestParseSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		claim   any
		wantID  int64
		wantNum bool
	}{
		{name: "numeric string", claim: "42", wantID: 42, wantNum: true},
		{name: "json number", claim: json.Number("7"), wantID: 7, wantNum: true},
		{name: "integral float", claim: float64(3), wantID: 3, wantNum: true},
		{name: "fractional float", claim: 3.5},
		{name: "non-numeric string", claim: "alice"},
		{name: "empty string", claim: ""},
		{name: "integral decimal json number", claim: json.Number("1.0"), wantID: 1, wantNum: true},
		{name: "exponent json number", claim: json.Number("2e1"), wantID: 20, wantNum: true},
		{name: "fractional json number", claim: json.Number("1.5")},
		{name: "bool", claim: true},
		{name: "nil", claim: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, ok := domain.ParseSubject(tt.claim).IdentityKey()
			assert.Equal(t, tt.wantNum, ok)

			if tt.wantNum {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestFormatSubject_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range []int64{1, 0, 9007199254740993} {
		got, ok := domain.ParseSubject(domain.FormatSubject(id)).IdentityKey()
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
}

func TestParseAuthorizationHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   domain.BearerToken
	}{
		{header: "", want: domain.BearerToken{}},
		{header: "Bearer abc.def.ghi", want: domain.BearerToken{Raw: "abc.def.ghi", Present: true}},
		{header: "bearer   abc ", want: domain.BearerToken{Raw: "abc", Present: true}},
		{header: "Bearer", want: domain.BearerToken{}},
		{header: "Bearer    ", want: domain.BearerToken{}},
		{header: "Basic dXNlcjpwYXNz", want: domain.BearerToken{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.ParseAuthorizationHeader(tt.header), "header %q", tt.header)
	}
}

func TestCategories(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", domain.EncodeCategories(nil))
	assert.Equal(t, "x,y", domain.EncodeCategories([]string{"x", "y"}))
	assert.Equal(t, []string{}, domain.DecodeCategories(""))
	assert.Equal(t, []string{"x", "y"}, domain.DecodeCategories("x,y"))
}
