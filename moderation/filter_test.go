package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskReplacesMatchedSpans(t *testing.T) {
	req := require.New(t)
	filter, err := NewFilter([]string{"badword"}, '*')
	req.NoError(err)

	req.Equal("this is a *******", filter.Mask("this is a badword"))
	req.Equal("clean text stays clean", filter.Mask("clean text stays clean"))
}

func TestMaskFoldsObfuscations(t *testing.T) {
	req := require.New(t)
	filter, err := NewFilter([]string{"badword"}, '*')
	req.NoError(err)

	tests := []struct {
		name  string
		input string
	}{
		{"Uppercase", "BADWORD"},
		{"Leet", "b4dw0rd"},
		{"Dotted", "b.a.d.w.o.r.d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			masked := filter.Mask(tt.input)
			require.NotEqual(t, tt.input, masked)
			require.NotContains(t, masked, "bad")
		})
	}
}

func TestEmbeddedWordListLoads(t *testing.T) {
	req := require.New(t)
	filter, err := NewEmbeddedFilter('*')
	req.NoError(err)
	req.Equal("a ******* here", filter.Mask("a badword here"))
}
