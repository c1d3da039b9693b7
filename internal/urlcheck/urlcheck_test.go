package urlcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddScheme(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "without_scheme", input: "google.ca", expected: "http://google.ca"},
		{name: "with_http", input: "http://google.ca", expected: "http://google.ca"},
		{name: "with_https", input: "https://google.ca", expected: "https://google.ca"},
		{name: "uppercase_scheme_is_not_recognized", input: "HTTP://google.ca", expected: "http://HTTP://google.ca"},
		{name: "empty", input: "", expected: "http://"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, AddScheme(testCase.input))
		})
	}
}

func TestAddSchemeIsIdempotent(t *testing.T) {
	for _, input := range []string{"", "google.ca", "http://google.ca", "https://x.y/z?q=1", "ftp://files", " spaced "} {
		once := AddScheme(input)
		assert.Equal(t, once, AddScheme(once), "AddScheme(AddScheme(%q)) should equal AddScheme(%q)", input, input)
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "plain_http", input: "http://google.ca", expected: true},
		{name: "https_with_path_and_query", input: "https://example.com/a/b?c=d#e", expected: true},
		{name: "with_port", input: "http://localhost:8080", expected: true},
		{name: "scheme_only", input: "http://", expected: false},
		{name: "empty", input: "", expected: false},
		{name: "space_in_host", input: "http://a b.ca", expected: false},
		{name: "space_in_path", input: "http://ab.ca/c d", expected: false},
		{name: "trailing_newline", input: "http://ab.ca\n", expected: false},
		{name: "no_scheme", input: "google.ca", expected: false},
		{name: "port_without_host", input: "http://:80", expected: false},
		{name: "malformed_escape", input: "http://%zz", expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, Validate(testCase.input))
		})
	}
}

func TestNormalize(t *testing.T) {
	normalized, ok := Normalize("example.com")
	assert.True(t, ok)
	assert.Equal(t, "http://example.com", normalized)

	_, ok = Normalize("")
	assert.False(t, ok)

	_, ok = Normalize("a b")
	assert.False(t, ok)
}
