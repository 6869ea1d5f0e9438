package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchKey(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"simple query", "hello", "search:hello"},
		{"case folded", "Hello World", "search:hello world"},
		{"whitespace collapsed", "  hello   world  ", "search:hello world"},
		{"equivalent queries share a key", "HELLO  WORLD", "search:hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchKey(tt.query))
		})
	}
}

func TestPostKeys(t *testing.T) {
	assert.Equal(t, "post:p1", PostKey("p1"))
	assert.Equal(t, "posts:2:10", PostPageKey(2, 10))
}
