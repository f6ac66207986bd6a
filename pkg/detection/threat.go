package detection

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
)

// RuleSet holds the static tables the classifier matches against. It is
// injected at construction so the classifier stays a pure function of its
// inputs and the tables.
type RuleSet struct {
	ScannerAgents     []string
	AttackPatterns    map[AttackType]*regexp.Regexp
	SensitiveSuffixes []string
	MaxQueryParams    int
	Bots              []BotAgent
}

// ThreatAnalysis is the classifier verdict for one request.
type ThreatAnalysis struct {
	IsThreat    bool                   `json:"is_threat"`
	ThreatLevel visit.ThreatLevel      `json:"threat_level"`
	Threats     []string               `json:"threats"`
	ShouldBlock bool                   `json:"should_block"`
	Detail      map[string]interface{} `json:"detail,omitempty"`
}

type ThreatClassifier struct {
	rules  RuleSet
	logger *logrus.Logger
}

func NewThreatClassifier(rules RuleSet, logger *logrus.Logger) *ThreatClassifier {
	return &ThreatClassifier{
		rules:  rules,
		logger: logger,
	}
}

// Classify evaluates every rule independently and combines the outcomes by
// taking the maximum severity observed. It performs no network or storage
// access, so it runs inline on the request path.
func (c *ThreatClassifier) Classify(path, method, userAgent string, body []byte) ThreatAnalysis {
	level := visit.LevelNone
	var threats []string
	detail := make(map[string]interface{})

	uaLower := strings.ToLower(userAgent)
	for _, scanner := range c.rules.ScannerAgents {
		if strings.Contains(uaLower, scanner) {
			threats = append(threats, "scanner_agent")
			detail["scanner"] = scanner
			level = level.Max(visit.LevelHigh)
			break
		}
	}

	for attackType, pattern := range c.rules.AttackPatterns {
		if pattern.MatchString(path) {
			threats = append(threats, string(attackType)+"_in_path")
			level = level.Max(visit.LevelMedium)
		}
		if len(body) > 0 && pattern.Match(body) {
			threats = append(threats, string(attackType)+"_in_body")
			level = level.Max(visit.LevelHigh)
		}
	}

	if suffix := c.sensitiveSuffix(path); suffix != "" {
		threats = append(threats, "sensitive_file_access")
		detail["suffix"] = suffix
		level = level.Max(visit.LevelHigh)
	}

	// Asymmetric by design of the rule set: excessive parameters only ever
	// raise the level from none, never downgrade.
	if n := queryParamCount(path); n > c.rules.MaxQueryParams {
		threats = append(threats, "excessive_parameters")
		detail["param_count"] = n
		if level == visit.LevelNone {
			level = visit.LevelLow
		}
	}

	// Traversal sequences in the path force critical over everything else.
	pathLower := strings.ToLower(path)
	if strings.Contains(pathLower, "..") || strings.Contains(pathLower, "%2e%2e") {
		threats = append(threats, "path_traversal_sequence")
		level = visit.LevelCritical
	}

	analysis := ThreatAnalysis{
		IsThreat:    level != visit.LevelNone,
		ThreatLevel: level,
		Threats:     threats,
		ShouldBlock: level == visit.LevelHigh || level == visit.LevelCritical,
	}
	if len(detail) > 0 {
		analysis.Detail = detail
	}

	if analysis.ShouldBlock {
		c.logger.WithFields(logrus.Fields{
			"path":    truncate(path, 200),
			"method":  method,
			"level":   string(level),
			"threats": threats,
		}).Warn("threat detected")
	}

	return analysis
}

func (c *ThreatClassifier) sensitiveSuffix(path string) string {
	clean := path
	if idx := strings.IndexByte(clean, '?'); idx != -1 {
		clean = clean[:idx]
	}
	clean = strings.ToLower(clean)
	for _, suffix := range c.rules.SensitiveSuffixes {
		if strings.HasSuffix(clean, suffix) {
			return suffix
		}
	}
	return ""
}

func queryParamCount(path string) int {
	idx := strings.IndexByte(path, '?')
	if idx == -1 || idx == len(path)-1 {
		return 0
	}
	return strings.Count(path[idx+1:], "&") + 1
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
