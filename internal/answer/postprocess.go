package answer

import (
	"fmt"
	"regexp"
	"strings"
)

const Ellipsis = "..."

var (
	mdLink     = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeading  = regexp.MustCompile(`^\s*#{1,6}\s+`)
	mdBullet   = regexp.MustCompile(`^\s*(?:[-*+•]|>)\s+`)
	mdBold     = regexp.MustCompile(`(\*\*|__)(.+?)(\*\*|__)`)
	mdItalic   = regexp.MustCompile(`\*([^*]+)\*`)
	mdLeftover = strings.NewReplacer("*", "", "`", "")
)

// Pipeline post-processes raw completions. It is safe for concurrent use.
type Pipeline struct {
	rules    Rules
	identity []*regexp.Regexp
	maxWords int
}

func NewPipeline(rules Rules, maxWords int) (*Pipeline, error) {
	if maxWords <= 0 {
		return nil, fmt.Errorf("max words must be positive, got %d", maxWords)
	}
	p := &Pipeline{rules: rules, maxWords: maxWords}
	for _, pat := range rules.AIIdentityPatterns {
		words := strings.Fields(pat)
		if len(words) == 0 {
			continue
		}
		for i := range words {
			words[i] = regexp.QuoteMeta(words[i])
		}
		re, err := regexp.Compile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile identity pattern %q: %w", pat, err)
		}
		p.identity = append(p.identity, re)
	}
	return p, nil
}

func (p *Pipeline) MaxWords() int {
	return p.maxWords
}

// Process runs the completion through markdown stripping, the sentinel passthrough,
// the question off-topic check, the AI identity check and word truncation, in that order.
func (p *Pipeline) Process(question, raw string) string {
	clean := StripMarkdown(raw)
	if strings.Contains(strings.ToLower(clean), strings.ToLower(OffTopicSentinel)) {
		return OffTopicSentinel
	}
	if p.QuestionOffTopic(question) {
		return OffTopicSentinel
	}
	if p.SelfReference(clean) {
		return OffTopicSentinel
	}
	return Truncate(clean, p.maxWords)
}

// QuestionOffTopic reports whether the question contains an off-topic trigger phrase.
func (p *Pipeline) QuestionOffTopic(question string) bool {
	q := strings.ToLower(question)
	for _, phrase := range p.rules.OffTopicPhrases {
		if phrase != "" && strings.Contains(q, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

// SelfReference reports whether the answer discloses an AI identity without
// mentioning any domain term.
func (p *Pipeline) SelfReference(answer string) bool {
	hit := false
	for _, re := range p.identity {
		if re.MatchString(answer) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	low := strings.ToLower(answer)
	for _, term := range p.rules.DomainTerms {
		if term != "" && strings.Contains(low, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// StripMarkdown removes emphasis, heading and bullet markers, keeps link text and
// collapses all whitespace runs, including blank lines, to single spaces.
func StripMarkdown(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = mdLink.ReplaceAllString(s, "$1")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = mdHeading.ReplaceAllString(line, "")
		line = mdBullet.ReplaceAllString(line, "")
		line = mdBold.ReplaceAllString(line, "$2")
		line = mdItalic.ReplaceAllString(line, "$1")
		lines[i] = mdLeftover.Replace(line)
	}
	return strings.Join(strings.Fields(strings.Join(lines, "\n")), " ")
}

// Truncate keeps the first max whitespace-separated words and appends Ellipsis
// when any were dropped.
func Truncate(s string, max int) string {
	words := strings.Fields(s)
	if len(words) <= max {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:max], " ") + Ellipsis
}
