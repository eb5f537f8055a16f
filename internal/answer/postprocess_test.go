package answer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(DefaultRules(), 80)
	require.NoError(t, err)
	return p
}

func TestStripMarkdown(t *testing.T) {
	out := StripMarkdown("**Hello** *world*\n\n- item1\n- item2")
	require.Equal(t, "Hello world item1 item2", out)
	require.NotContains(t, out, "*")
	require.NotContains(t, out, "-")
}

func TestStripMarkdownHeadingsLinksAndBullets(t *testing.T) {
	in := "## Payment plans\r\n\r\n* 20% down on [ABS Mall](https://abs.example/mall)\n+ __40__ monthly instalments\n> call `0300`"
	require.Equal(t, "Payment plans 20% down on ABS Mall 40 monthly instalments call 0300", StripMarkdown(in))
}

func TestStripMarkdownKeepsHyphenatedWords(t *testing.T) {
	require.Equal(t, "A 2-bed flat - ready now", StripMarkdown("A 2-bed flat - ready now"))
}

func TestProcessOffTopicQuestionIgnoresAnswer(t *testing.T) {
	p := newPipeline(t)
	require.Equal(t, OffTopicSentinel, p.Process("tell me a joke", "ABS Mall apartments start at 10 million."))
	require.Equal(t, OffTopicSentinel, p.Process("what time is it", ""))
	require.Equal(t, OffTopicSentinel, p.Process("What's The WEATHER in Lahore?", "Sunny."))
}

func TestProcessTimelineQuestionsPassThrough(t *testing.T) {
	p := newPipeline(t)
	ans := "Possession is planned for 2027 with a 3 year installment payment plan."
	require.Equal(t, ans, p.Process("What timeline do you offer for possession of the apartments?", ans))
	require.Equal(t, ans, p.Process("What timeframe is the payment plan spread over?", ans))
	require.Equal(t, OffTopicSentinel, p.Process("Tell me the current time please", ans))
}

func TestProcessSentinelPassthrough(t *testing.T) {
	p := newPipeline(t)
	raw := "**Sorry.** " + strings.ToUpper(OffTopicSentinel) + " Thanks!"
	require.Equal(t, OffTopicSentinel, p.Process("who won the match", raw))
}

func TestProcessSelfReference(t *testing.T) {
	p := newPipeline(t)
	require.Equal(t, OffTopicSentinel, p.Process("who are you", "I am an AI trained by a large company."))
	require.Equal(t, OffTopicSentinel, p.Process("who are you", "Just a friendly Chatbot here."))

	// a domain term marks the mention as incidental
	ok := "Our AI powered smart home apartments are in Block B."
	require.Equal(t, ok, p.Process("smart homes?", ok))

	// whole words only
	plain := "The main entrance faces the park."
	require.Equal(t, plain, p.Process("entrance?", plain))
}

func TestProcessTruncatesToMaxWords(t *testing.T) {
	p := newPipeline(t)
	words := make([]string, 120)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i+1)
	}
	out := p.Process("Tell me about ABS Mall", strings.Join(words, " "))
	tokens := strings.Fields(out)
	require.Len(t, tokens, 80)
	require.Equal(t, "w80"+Ellipsis, tokens[79])
	require.True(t, strings.HasSuffix(out, Ellipsis))
}

func TestTruncateShortInputUnchanged(t *testing.T) {
	require.Equal(t, "a b c", Truncate("a  b\nc", 3))
	require.Equal(t, "a b...", Truncate("a b c", 2))
}

func TestNewPipelineRejectsNonPositiveLimit(t *testing.T) {
	_, err := NewPipeline(DefaultRules(), 0)
	require.Error(t, err)
}
