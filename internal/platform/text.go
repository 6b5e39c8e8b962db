package platform

import (
	"strings"

	"github.com/maheshrc27/postflow/internal/models"
)

// ComposeText renders the body sent to a platform: the content, then the
// hashtags, then the mentions, each group separated by a blank line.
func ComposeText(post *models.Post) string {
	var parts []string
	if content := strings.TrimSpace(post.Content); content != "" {
		parts = append(parts, post.Content)
	}
	if tags := prefixed(post.Hashtags, "#"); tags != "" {
		parts = append(parts, tags)
	}
	if mentions := prefixed(post.Mentions, "@"); mentions != "" {
		parts = append(parts, mentions)
	}
	return strings.Join(parts, "\n\n")
}

func prefixed(tokens []string, prefix string) string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" || t == prefix {
			continue
		}
		if !strings.HasPrefix(t, prefix) {
			t = prefix + t
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}
