package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPost_Validate(t *testing.T) {
	tests := []struct {
		name    string
		post    Post
		wantErr error
	}{
		{
			name: "valid post",
			post: Post{
				ID:        "p1",
				AuthorID:  "u1",
				Content:   "hello world",
				CreatedAt: time.Now(),
			},
			wantErr: nil,
		},
		{
			name:    "missing author",
			post:    Post{ID: "p1", Content: "hello"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "empty content",
			post:    Post{ID: "p1", AuthorID: "u1", Content: "   "},
			wantErr: ErrInvalidInput,
		},
		{
			name: "content too long",
			post: Post{
				ID:       "p1",
				AuthorID: "u1",
				Content:  strings.Repeat("a", MaxContentLength+1),
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
