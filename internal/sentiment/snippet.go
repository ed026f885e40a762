package sentiment

import (
	"strings"

	"github.com/marketscribe/sentisheet/pkg/models"
)

// Snippets converts raw news items into the short text units fed to the
// scorer: the headline alone, or "headline. summary" when a summary is
// present. Items with an empty headline are dropped. Input order is
// preserved.
func Snippets(items []models.NewsItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		h := strings.TrimSpace(it.Headline)
		if h == "" {
			continue
		}
		if s := strings.TrimSpace(it.Summary); s != "" {
			out = append(out, h+". "+s)
		} else {
			out = append(out, h)
		}
	}
	return out
}
