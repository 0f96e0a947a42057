package patient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	p := Patient{Name: "Alice", Document: "123", Active: true}
	require.Nil(t, p.Validate())
}

func TestValidateFieldReport(t *testing.T) {
	cases := []struct {
		name   string
		record Patient
		fields []string
	}{
		{"empty name", Patient{Document: "123"}, []string{"name"}},
		{"blank name", Patient{Name: "   ", Document: "123"}, []string{"name"}},
		{"long name", Patient{Name: strings.Repeat("a", MaxNameLen+1), Document: "123"}, []string{"name"}},
		{"empty document", Patient{Name: "Alice"}, []string{"document"}},
		{"long document", Patient{Name: "Alice", Document: strings.Repeat("9", MaxDocumentLen+1)}, []string{"document"}},
		{"both missing", Patient{}, []string{"name", "document"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verr := tc.record.Validate()
			require.NotNil(t, verr)
			require.Len(t, verr.Fields, len(tc.fields))
			for _, field := range tc.fields {
				require.Contains(t, verr.Fields, field)
			}
		})
	}
}

func TestValidateBoundsAreInclusive(t *testing.T) {
	p := Patient{
		Name:     strings.Repeat("a", MaxNameLen),
		Document: strings.Repeat("9", MaxDocumentLen),
	}
	require.Nil(t, p.Validate())
}
