package detection

import "strings"

// BotMatch is the bot classifier verdict.
type BotMatch struct {
	IsBot bool   `json:"is_bot"`
	Name  string `json:"bot_name,omitempty"`
	AI    bool   `json:"is_ai_agent,omitempty"`
}

type BotClassifier struct {
	bots []BotAgent
}

func NewBotClassifier(rules RuleSet) *BotClassifier {
	return &BotClassifier{
		bots: rules.Bots,
	}
}

// DetectBot matches the client identifier against the known agent list,
// case-insensitively; the first match wins.
func (c *BotClassifier) DetectBot(userAgent string) BotMatch {
	if userAgent == "" {
		return BotMatch{}
	}
	uaLower := strings.ToLower(userAgent)
	for _, bot := range c.bots {
		if strings.Contains(uaLower, bot.Match) {
			return BotMatch{
				IsBot: true,
				Name:  bot.Name,
				AI:    bot.AI,
			}
		}
	}
	return BotMatch{}
}

// IsAIAgent reports whether a matched bot name belongs to an AI
// content-ingestion agent. Used by the stats aggregator.
func (c *BotClassifier) IsAIAgent(name string) bool {
	for _, bot := range c.bots {
		if bot.Name == name {
			return bot.AI
		}
	}
	return false
}
