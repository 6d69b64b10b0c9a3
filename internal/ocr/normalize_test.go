package ocr

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs and runs of spaces", "a\t\tb   c", "a b c"},
		{"blank line runs collapse", "a\n\n\n\nb", "a\n\nb"},
		{"trailing spaces trimmed", "a  \nb", "a\nb"},
		{"box noise lines dropped", "ACME\n-----\nTotal", "ACME\n\nTotal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLines(t *testing.T) {
	pages := PageText{"ACME Ltd\n\n  Main St  ", "Total: 10.00\n"}
	want := []string{"ACME Ltd", "Main St", "Total: 10.00"}
	if got := Lines(pages); !reflect.DeepEqual(got, want) {
		t.Errorf("Lines = %v, want %v", got, want)
	}
	if got := Lines(nil); got != nil {
		t.Errorf("Lines(nil) = %v, want nil", got)
	}
}
