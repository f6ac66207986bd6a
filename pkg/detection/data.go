package detection

import "regexp"

type AttackType string

const (
	SQL              AttackType = "sql_injection"
	XSS              AttackType = "xss"
	CommandInjection AttackType = "command_injection"
	PathTraversal    AttackType = "path_traversal"
)

var attackPatterns = map[AttackType]*regexp.Regexp{
	SQL: regexp.MustCompile(`(?i)(` +
		`['"]\s*OR\s*['"]?\s*['"]?\d+['"]?\s*=\s*['"]?\d+['"]?\s*['"]?|` +
		`['"]\s*OR\s*\d+\s*=\s*\d+\s*['"]?|` +
		`UNION\s+(?:ALL\s+)?SELECT\s+(?:\*|[a-z_][a-z0-9_]*(?:\s*,\s*[a-z_][a-z0-9_]*)*)\s+FROM|` +
		`(?:SLEEP|BENCHMARK|WAITFOR\s+DELAY)\s*\(\s*\d+\s*\)|` +
		`['";]\s*;\s*(?:INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE)\s+(?:INTO|FROM|TABLE|DATABASE|SCHEMA|VIEW|INDEX)|` +
		`\b(?:DROP|DELETE|TRUNCATE)\s+(?:TABLE|DATABASE|SCHEMA)\s+\w+|` +
		`(?:['";]|\s)\s*(?:\-\-[^\r\n]*|#[^\r\n]*)` +
		`)`),

	XSS: regexp.MustCompile(`(?i)(` +
		`<[^>]*script.*?>|` +
		`\bon\w+\s*=|` +
		`javascript:|` +
		`alert\s*\(|confirm\s*\(|prompt\s*\(|eval\s*\(|` +
		`data:text/javascript|` +
		`expression\s*\(|` +
		`<[^>]*iframe|<[^>]*object|<[^>]*embed|<[^>]*applet` +
		`)`),

	CommandInjection: regexp.MustCompile(`(?i)(` +
		`\|\s*(?:cmd|command|sh|bash|powershell|cmd\.exe)|` +
		`[;&\|]\s*(?:ls|dir|cat|type|more|wget|curl|nc|netcat)|` +
		`system\s*\(|exec\s*\(|shell_exec\s*\(|` +
		`(?:nc|netcat|ncat)\s+-[ev]|` +
		`python\s+-c\s*['"]import|` +
		`ruby\s+-[er]|perl\s+-e|` +
		`powershell\s+-[ec]|` +
		`IEX\s*\(|Invoke-Expression|` +
		`echo\s+[A-Za-z0-9+/=]+\s*\|\s*base64\s*-d` +
		`)`),

	PathTraversal: regexp.MustCompile(`(?i)(` +
		`\.\.\/|\.\.\\|` +
		`\/(?:bin|etc|proc)\/|` +
		`%2e%2e%2f|%2e%2e\/|\.\.%2f|%2e%2e%5c|` +
		`(?:etc|usr|var|opt|root|home)\/[^\/]+\/(?:passwd|shadow|bash_history|ssh|id_rsa)` +
		`)`),
}

// scannerAgents are client identifiers of well-known attack tooling.
var scannerAgents = []string{
	"sqlmap",
	"nikto",
	"nmap",
	"masscan",
	"zgrab",
	"dirbuster",
	"gobuster",
	"wpscan",
	"acunetix",
	"nessus",
	"openvas",
	"metasploit",
	"hydra",
	"havij",
}

// sensitiveSuffixes are file extensions and dotfiles that legitimate
// traffic has no reason to request.
var sensitiveSuffixes = []string{
	".env",
	".git",
	".htaccess",
	".htpasswd",
	".bak",
	".backup",
	".old",
	".config",
	".conf",
	".ini",
	".log",
	".sql",
	".swp",
	".pem",
	".key",
}

type BotAgent struct {
	Name  string
	Match string
	AI    bool
}

// knownBots lists recognized automated agents. AI marks content-ingestion
// crawlers for model training or retrieval.
var knownBots = []BotAgent{
	{Name: "GPTBot", Match: "gptbot", AI: true},
	{Name: "ChatGPT-User", Match: "chatgpt-user", AI: true},
	{Name: "OAI-SearchBot", Match: "oai-searchbot", AI: true},
	{Name: "ClaudeBot", Match: "claudebot", AI: true},
	{Name: "anthropic-ai", Match: "anthropic-ai", AI: true},
	{Name: "PerplexityBot", Match: "perplexitybot", AI: true},
	{Name: "Google-Extended", Match: "google-extended", AI: true},
	{Name: "Applebot-Extended", Match: "applebot-extended", AI: true},
	{Name: "CCBot", Match: "ccbot", AI: true},
	{Name: "Bytespider", Match: "bytespider", AI: true},
	{Name: "meta-externalagent", Match: "meta-externalagent", AI: true},
	{Name: "cohere-ai", Match: "cohere-ai", AI: true},
	{Name: "Googlebot", Match: "googlebot", AI: false},
	{Name: "Bingbot", Match: "bingbot", AI: false},
	{Name: "DuckDuckBot", Match: "duckduckbot", AI: false},
	{Name: "Baiduspider", Match: "baiduspider", AI: false},
	{Name: "YandexBot", Match: "yandexbot", AI: false},
	{Name: "Applebot", Match: "applebot", AI: false},
	{Name: "AhrefsBot", Match: "ahrefsbot", AI: false},
	{Name: "SemrushBot", Match: "semrushbot", AI: false},
	{Name: "MJ12bot", Match: "mj12bot", AI: false},
	{Name: "DotBot", Match: "dotbot", AI: false},
	{Name: "facebookexternalhit", Match: "facebookexternalhit", AI: false},
	{Name: "Slackbot", Match: "slackbot", AI: false},
	{Name: "TelegramBot", Match: "telegrambot", AI: false},
}

// DefaultRuleSet returns the process-wide static rule tables. The tables
// are built once at load and must be treated as immutable; rule updates
// require constructing a new classifier.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		ScannerAgents:     scannerAgents,
		AttackPatterns:    attackPatterns,
		SensitiveSuffixes: sensitiveSuffixes,
		MaxQueryParams:    20,
		Bots:              knownBots,
	}
}
