package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// Explanation returned when the collaborator is not configured.
const UnavailableExplanation = "AI-powered recommendation"

var leadingNumber = regexp.MustCompile(`^\d+\.\s*`)

// RecommendationPrompt asks for three "Title by Author" lines similar to favorites.
func RecommendationPrompt(favorites []string) string {
	var b strings.Builder
	b.WriteString("Based on someone who likes these books: ")
	for i, f := range favorites {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(`"` + f + `"`)
	}
	b.WriteString("\n\nPlease recommend 3 similar books that this person would enjoy. ")
	b.WriteString("For each recommendation, provide the title and author in the format: ")
	b.WriteString("'Title by Author'. One book per line. ")
	b.WriteString("Only provide the book recommendations, no additional explanations.")
	return b.String()
}

// ExplanationPrompt asks for a one-sentence reason that rec suits favorites.
func ExplanationPrompt(rec string, favorites []string) string {
	return fmt.Sprintf(
		"Someone who likes %s might also enjoy \"%s\". In one short sentence, explain why this recommendation makes sense based on genre, theme, or style similarities.",
		strings.Join(favorites, ", "), rec)
}

// FallbackExplanation is used when an explanation request fails.
func FallbackExplanation(favorites []string) string {
	subject := "your previous selections"
	if len(favorites) > 0 {
		subject = favorites[0]
	}
	return fmt.Sprintf("Because you liked %s, you might enjoy this similar book.", subject)
}

// ParseRecommendations extracts "Title by Author" lines from a completion.
// Headings ("#"), bullets ("-") and blank lines are skipped and a leading
// "1. " style number is stripped.
func ParseRecommendations(content string) []string {
	var recs []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		line = leadingNumber.ReplaceAllString(line, "")
		if strings.Contains(line, " by ") {
			recs = append(recs, line)
		}
	}
	return recs
}

// SplitTitleAuthor splits a candidate on its last " by ".
// A line without the separator is all title.
func SplitTitleAuthor(line string) (title, author string) {
	i := strings.LastIndex(line, " by ")
	if i < 0 {
		return strings.TrimSpace(line), ""
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+len(" by "):])
}
