package advisor

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	thinkBlock    = regexp.MustCompile(`(?s)<think>.*?</think>`)
	bulletPrefix  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	hasNumber     = regexp.MustCompile(`\d`)
	forbiddenWord = regexp.MustCompile(`(?i)\b(increase|reduce|consider|potentially)\w*`)
)

// Validate checks an answer against the output rules of the setup prompt
// and returns one message per violation. Reasoning blocks are ignored.
func Validate(text string) []string {
	text = thinkBlock.ReplaceAllString(text, "")

	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		if loc := bulletPrefix.FindStringIndex(line); loc != nil {
			bullets = append(bullets, strings.TrimSpace(line[loc[1]:]))
		}
	}

	var violations []string
	if n := len(bullets); n < 1 || n > 3 {
		violations = append(violations, fmt.Sprintf("expected 1 to 3 bullet points, got %d", n))
	}
	for i, b := range bullets {
		if !hasNumber.MatchString(b) {
			violations = append(violations, fmt.Sprintf("bullet %d has no numeric adjustment: %q", i+1, b))
		}
	}

	seen := make(map[string]bool)
	for _, m := range forbiddenWord.FindAllStringSubmatch(text, -1) {
		word := strings.ToLower(m[1])
		if !seen[word] {
			seen[word] = true
			violations = append(violations, fmt.Sprintf("uses forbidden word %q", word))
		}
	}

	return violations
}
