package bookstore

import (
	"strings"
	"unicode/utf8"

	"github.com/information-sharing-networks/apitest/hydra"
)

// violation codes, shared with API clients
const (
	CodeNotBlank    = "c1051bb4-d103-4f74-8988-acbcafc7fdc3"
	CodeTooLong     = "d94b19cc-114f-4f44-9cc4-4138e80a87b9"
	CodeInvalidISBN = "949acbb0-8ef5-43ed-a0e9-032dfd08ae45"
)

const maxTitleLength = 255

// ValidateBook checks a book after an input was applied.
func ValidateBook(b *Book) []hydra.Violation {
	var violations []hydra.Violation

	title := strings.TrimSpace(b.Title)
	switch {
	case title == "":
		violations = append(violations, hydra.Violation{
			PropertyPath: "title",
			Message:      "This value should not be blank.",
			Code:         CodeNotBlank,
		})
	case utf8.RuneCountInString(b.Title) > maxTitleLength:
		violations = append(violations, hydra.Violation{
			PropertyPath: "title",
			Message:      "This value is too long. It should have 255 characters or less.",
			Code:         CodeTooLong,
		})
	}

	if b.ISBN != "" && !ValidISBN(b.ISBN) {
		violations = append(violations, hydra.Violation{
			PropertyPath: "isbn",
			Message:      "This value is neither a valid ISBN-10 nor a valid ISBN-13.",
			Code:         CodeInvalidISBN,
		})
	}

	return violations
}

// ValidateAuthor checks an author.
func ValidateAuthor(a *Author) []hydra.Violation {
	if strings.TrimSpace(a.Name) == "" {
		return []hydra.Violation{{
			PropertyPath: "name",
			Message:      "This value should not be blank.",
			Code:         CodeNotBlank,
		}}
	}
	return nil
}

// ValidISBN reports whether s is a valid ISBN-10 or ISBN-13. Hyphens and spaces are ignored.
func ValidISBN(s string) bool {
	digits := strings.NewReplacer("-", "", " ", "").Replace(s)
	switch len(digits) {
	case 10:
		return validISBN10(digits)
	case 13:
		return validISBN13(digits)
	default:
		return false
	}
}

func validISBN10(s string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		c := s[i]
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case (c == 'X' || c == 'x') && i == 9:
			v = 10
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		v := int(c - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}
