package query

import (
	"regexp"
	"slices"
	"strings"

	"github.com/jonwraymond/domquery/dom"
)

// Relevance weights.
const (
	scoreExact     = 100
	scorePrefix    = 50
	scoreWord      = 30
	scoreSubstring = 10
	scoreRendered  = 5
	scoreSemantic  = 10
)

var skippedTags = map[string]bool{
	"script": true,
	"style":  true,
}

var semanticTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"button": true, "a": true, "label": true,
}

// match is a search hit with its score.
type match struct {
	node  dom.Node
	score int
}

// rank returns the elements matching text, best first. Equal scores keep
// document order.
func rank(nodes []dom.Node, text string) []match {
	needle := strings.ToLower(text)
	word := regexp.MustCompile(`\b` + regexp.QuoteMeta(needle) + `\b`)

	var matches []match
	for _, n := range nodes {
		tag := strings.ToLower(n.TagName)
		if skippedTags[tag] {
			continue
		}

		direct := strings.ToLower(strings.TrimSpace(n.DirectText))
		inText := strings.Contains(direct, needle)
		if !inText && !attributeContains(n.Attributes, needle) {
			continue
		}

		score := 0
		switch {
		case !inText:
		case direct == needle:
			score += scoreExact
		case strings.HasPrefix(direct, needle):
			score += scorePrefix
		case word.MatchString(direct):
			score += scoreWord
		default:
			score += scoreSubstring
		}
		if n.Rect.HasArea() {
			score += scoreRendered
		}
		if semanticTags[tag] {
			score += scoreSemantic
		}

		matches = append(matches, match{node: n, score: score})
	}

	slices.SortStableFunc(matches, func(a, b match) int {
		return b.score - a.score
	})
	return matches
}

func attributeContains(attrs dom.Attributes, needle string) bool {
	for _, a := range attrs {
		if strings.Contains(strings.ToLower(a.Value), needle) {
			return true
		}
	}
	return false
}
