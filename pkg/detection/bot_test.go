package detection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terrizoaguimor/kore-shield/pkg/detection"
)

func TestDetectBot_AICrawler(t *testing.T) {
	c := detection.NewBotClassifier(detection.DefaultRuleSet())

	match := c.DetectBot("Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; GPTBot/1.2; +https://openai.com/gptbot)")

	assert.True(t, match.IsBot)
	assert.Equal(t, "GPTBot", match.Name)
	assert.True(t, match.AI)
}

func TestDetectBot_CaseInsensitive(t *testing.T) {
	c := detection.NewBotClassifier(detection.DefaultRuleSet())

	match := c.DetectBot("CLAUDEBOT/1.0")

	assert.True(t, match.IsBot)
	assert.Equal(t, "ClaudeBot", match.Name)
}

func TestDetectBot_SearchCrawlerNotAI(t *testing.T) {
	c := detection.NewBotClassifier(detection.DefaultRuleSet())

	match := c.DetectBot("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

	assert.True(t, match.IsBot)
	assert.Equal(t, "Googlebot", match.Name)
	assert.False(t, match.AI)
}

func TestDetectBot_Browser(t *testing.T) {
	c := detection.NewBotClassifier(detection.DefaultRuleSet())

	match := c.DetectBot("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	assert.False(t, match.IsBot)
	assert.Empty(t, match.Name)
}

func TestDetectBot_EmptyAgent(t *testing.T) {
	c := detection.NewBotClassifier(detection.DefaultRuleSet())

	assert.False(t, c.DetectBot("").IsBot)
}

func TestIsAIAgent(t *testing.T) {
	c := detection.NewBotClassifier(detection.DefaultRuleSet())

	assert.True(t, c.IsAIAgent("PerplexityBot"))
	assert.False(t, c.IsAIAgent("Googlebot"))
	assert.False(t, c.IsAIAgent("unknown"))
}
