package answer

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// OffTopicSentinel is the one sentence returned for anything outside the real-estate domain.
const OffTopicSentinel = "I can only help with questions about ABS Developers' real estate projects, properties and payment plans."

// Rules holds the fixed phrase lists the pipeline matches against.
type Rules struct {
	// OffTopicPhrases are matched as case-insensitive substrings of the question.
	OffTopicPhrases []string `toml:"off_topic_phrases"`
	// AIIdentityPatterns are matched as case-insensitive whole words or phrases of the answer.
	AIIdentityPatterns []string `toml:"ai_identity_patterns"`
	// DomainTerms suppress the AI identity override when any appears in the answer.
	DomainTerms []string `toml:"domain_terms"`
}

func DefaultRules() Rules {
	return Rules{
		OffTopicPhrases: []string{
			"poem", "joke", "weather", "current time", "time is it",
			"today's date", "what is the date", "what's the date", "what day is it",
			"write a story", "song", "lyrics", "recipe",
		},
		AIIdentityPatterns: []string{
			"ai", "chatbot", "as an ai", "language model", "artificial intelligence", "virtual assistant",
		},
		DomainTerms: []string{
			"abs", "developer", "property", "real estate", "project", "apartment", "flat", "payment",
		},
	}
}

// LoadRules returns DefaultRules with every list named in the TOML file at path
// replacing its default. An empty path yields the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read filter rules: %w", err)
	}
	var override Rules
	if err := toml.Unmarshal(data, &override); err != nil {
		return Rules{}, fmt.Errorf("parse filter rules %s: %w", path, err)
	}
	if override.OffTopicPhrases != nil {
		rules.OffTopicPhrases = override.OffTopicPhrases
	}
	if override.AIIdentityPatterns != nil {
		rules.AIIdentityPatterns = override.AIIdentityPatterns
	}
	if override.DomainTerms != nil {
		rules.DomainTerms = override.DomainTerms
	}
	return rules, nil
}
