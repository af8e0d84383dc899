package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnake(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Username", "username"},
		{"FullName", "full_name"},
		{"HTTPCode", "http_code"},
		{"AuthorID", "author_id"},
		{"already_snake", "already_snake"},
		{"A", "a"},
		{"", ""},
		{"firstName", "first_name"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, snake(tt.input))
		})
	}
}

func TestPhpName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"book", "Book"},
		{"book_author", "BookAuthor"},
		{"author_id", "AuthorId"},
		{"ID", "Id"},
		{"firstName", "Firstname"},
		{"_private__name_", "PrivateName"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, PhpName(tt.input))
		})
	}
}

func TestConstantName(t *testing.T) {
	assert.Equal(t, "AUTHOR_ID", ConstantName("author_id"))
	assert.Equal(t, "AUTHOR_ID", ConstantName("authorId"))
	assert.Equal(t, "TITLE", ConstantName("title"))
}

func TestCamel(t *testing.T) {
	assert.Equal(t, "authorId", Camel("author_id"))
	assert.Equal(t, "title", Camel("title"))
	assert.Equal(t, "", Camel(""))
}

func TestInflectPluralizer(t *testing.T) {
	p := NewInflectPluralizer()
	assert.Equal(t, "Books", p.Plural("Book"))
	assert.Equal(t, "Categories", p.Plural("Category"))
	p.AddIrregular("foo", "fooz")
	assert.Equal(t, "fooz", p.Plural("foo"))
}
