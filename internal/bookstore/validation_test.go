package bookstore

import (
	"strings"
	"testing"
)

func TestValidISBN(t *testing.T) {
	tests := []struct {
		isbn string
		want bool
	}{
		{"0-306-40615-2", true},
		{"0306406152", true},
		{"080442957X", true},
		{"978-0-306-40615-7", true},
		{"9780306406157", true},
		{"978 0 306 40615 7", true},
		{"0306406153", false},
		{"9780306406158", false},
		{"X306406152", false},
		{"12345", false},
		{"978030640615a", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.isbn, func(t *testing.T) {
			if got := ValidISBN(tt.isbn); got != tt.want {
				t.Fatalf("ValidISBN(%q) = %v, want %v", tt.isbn, got, tt.want)
			}
		})
	}
}

func TestValidateBook(t *testing.T) {
	tests := []struct {
		name      string
		book      Book
		wantPaths []string
	}{
		{
			name: "valid",
			book: Book{Title: "Dune", ISBN: "9780441013593"},
		},
		{
			name: "isbn is optional",
			book: Book{Title: "Dune"},
		},
		{
			name:      "blank title",
			book:      Book{Title: "  "},
			wantPaths: []string{"title"},
		},
		{
			name:      "title too long",
			book:      Book{Title: strings.Repeat("a", 256)},
			wantPaths: []string{"title"},
		},
		{
			name: "multibyte title at the limit",
			book: Book{Title: strings.Repeat("é", 255)},
		},
		{
			name:      "blank title and bad isbn",
			book:      Book{ISBN: "123"},
			wantPaths: []string{"title", "isbn"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations := ValidateBook(&tt.book)
			if len(violations) != len(tt.wantPaths) {
				t.Fatalf("got %d violations (%v), want %d", len(violations), violations, len(tt.wantPaths))
			}
			for i, v := range violations {
				if v.PropertyPath != tt.wantPaths[i] {
					t.Errorf("violation %d: got path %q, want %q", i, v.PropertyPath, tt.wantPaths[i])
				}
				if v.Message == "" || v.Code == "" {
					t.Errorf("violation %d: message and code must be set: %+v", i, v)
				}
			}
		})
	}
}

func TestValidateBookMessages(t *testing.T) {
	violations := ValidateBook(&Book{Title: "", ISBN: "0306406153"})
	if len(violations) != 2 {
		t.Fatalf("got %d violations, want 2", len(violations))
	}
	if got, want := violations[0].Message, "This value should not be blank."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := violations[1].Message, "This value is neither a valid ISBN-10 nor a valid ISBN-13."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestValidateAuthor(t *testing.T) {
	if v := ValidateAuthor(&Author{Name: "Frank Herbert"}); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
	v := ValidateAuthor(&Author{Name: " "})
	if len(v) != 1 || v[0].PropertyPath != "name" {
		t.Fatalf("got %v, want a single name violation", v)
	}
}
