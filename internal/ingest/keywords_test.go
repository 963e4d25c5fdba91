package ingest

import (
	"reflect"
	"testing"
)

func TestParseKeywords(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{"  a, b\nb ,,c ", []string{"a", "b", "c"}},
		{"landscape", []string{"landscape"}},
		{"a,a,a", []string{"a"}},
		{"one two, three", []string{"one two", "three"}},
		{"\n,\n , ", nil},
		{"", nil},
		{"z,a,m", []string{"z", "a", "m"}},
	}

	for _, tc := range cases {
		got := ParseKeywords(tc.input)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseKeywords(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}
