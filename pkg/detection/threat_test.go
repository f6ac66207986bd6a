package detection_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/terrizoaguimor/kore-shield/pkg/detection"
	"github.com/terrizoaguimor/kore-shield/pkg/domain/visit"
)

func newClassifier() *detection.ThreatClassifier {
	logger := logrus.New()
	logger.SetOutput(new(strings.Builder))
	return detection.NewThreatClassifier(detection.DefaultRuleSet(), logger)
}

func TestClassify_CleanRequest(t *testing.T) {
	c := newClassifier()

	analysis := c.Classify("/api/products?page=2", "GET", "Mozilla/5.0 (Macintosh; Intel Mac OS X)", nil)

	assert.False(t, analysis.IsThreat)
	assert.Equal(t, visit.LevelNone, analysis.ThreatLevel)
	assert.False(t, analysis.ShouldBlock)
	assert.Empty(t, analysis.Threats)
}

func TestClassify_TraversalAlwaysCritical(t *testing.T) {
	c := newClassifier()

	paths := []string{
		"/static/../../etc/passwd",
		"/..",
		"/download?file=..%2f..%2fsecret",
		"/a/%2e%2e/%2e%2e/etc/shadow",
		"/files/..\\windows\\system32",
	}

	for _, path := range paths {
		analysis := c.Classify(path, "GET", "Mozilla/5.0", nil)
		assert.Equal(t, visit.LevelCritical, analysis.ThreatLevel, "path %q", path)
		assert.True(t, analysis.ShouldBlock, "path %q", path)
	}
}

func TestClassify_TraversalOverridesLowerRules(t *testing.T) {
	c := newClassifier()

	// SQL in path would normally be medium; traversal forces critical.
	analysis := c.Classify("/items?id=1' OR 1=1 --&file=../../etc/passwd", "GET", "Mozilla/5.0", nil)

	assert.Equal(t, visit.LevelCritical, analysis.ThreatLevel)
	assert.True(t, analysis.ShouldBlock)
	assert.Contains(t, analysis.Threats, "path_traversal_sequence")
}

func TestClassify_SQLInjectionInPath(t *testing.T) {
	c := newClassifier()

	analysis := c.Classify("/search?q=1' OR '1'='1", "GET", "Mozilla/5.0", nil)

	assert.True(t, analysis.IsThreat)
	assert.Equal(t, visit.LevelMedium, analysis.ThreatLevel)
	assert.False(t, analysis.ShouldBlock)
	assert.Contains(t, analysis.Threats, "sql_injection_in_path")
}

func TestClassify_SQLInjectionInBodyEscalates(t *testing.T) {
	c := newClassifier()

	body := []byte(`{"username": "admin' OR 1=1 --"}`)
	analysis := c.Classify("/api/login", "POST", "Mozilla/5.0", body)

	assert.Equal(t, visit.LevelHigh, analysis.ThreatLevel)
	assert.True(t, analysis.ShouldBlock)
	assert.Contains(t, analysis.Threats, "sql_injection_in_body")
}

func TestClassify_XSSInPath(t *testing.T) {
	c := newClassifier()

	analysis := c.Classify("/comment?text=<script>alert(1)</script>", "GET", "Mozilla/5.0", nil)

	assert.True(t, analysis.IsThreat)
	assert.True(t, analysis.ThreatLevel.Rank() >= visit.LevelMedium.Rank())
}

func TestClassify_ScannerAgent(t *testing.T) {
	c := newClassifier()

	analysis := c.Classify("/", "GET", "sqlmap/1.7.2#stable (https://sqlmap.org)", nil)

	assert.Equal(t, visit.LevelHigh, analysis.ThreatLevel)
	assert.True(t, analysis.ShouldBlock)
	assert.Contains(t, analysis.Threats, "scanner_agent")
	assert.Equal(t, "sqlmap", analysis.Detail["scanner"])
}

func TestClassify_SensitiveFile(t *testing.T) {
	c := newClassifier()

	for _, path := range []string{"/.env", "/backup/db.sql", "/.git", "/site.conf?x=1"} {
		analysis := c.Classify(path, "GET", "Mozilla/5.0", nil)
		assert.Equal(t, visit.LevelHigh, analysis.ThreatLevel, "path %q", path)
		assert.True(t, analysis.ShouldBlock, "path %q", path)
	}
}

func TestClassify_ExcessiveParamsOnlyRaisesFromNone(t *testing.T) {
	c := newClassifier()

	var params []string
	for i := 0; i < 25; i++ {
		params = append(params, fmt.Sprintf("p%d=%d", i, i))
	}
	query := strings.Join(params, "&")

	analysis := c.Classify("/api/filter?"+query, "GET", "Mozilla/5.0", nil)
	assert.Equal(t, visit.LevelLow, analysis.ThreatLevel)
	assert.False(t, analysis.ShouldBlock)
	assert.Contains(t, analysis.Threats, "excessive_parameters")

	// With a high-severity rule already matched the level must not drop.
	analysis = c.Classify("/.env?"+query, "GET", "Mozilla/5.0", nil)
	assert.Equal(t, visit.LevelHigh, analysis.ThreatLevel)
	assert.Contains(t, analysis.Threats, "excessive_parameters")
}

func TestClassify_Deterministic(t *testing.T) {
	c := newClassifier()

	path := "/search?q=<script>alert(1)</script>"
	first := c.Classify(path, "GET", "Mozilla/5.0", nil)
	second := c.Classify(path, "GET", "Mozilla/5.0", nil)

	assert.Equal(t, first.ThreatLevel, second.ThreatLevel)
	assert.Equal(t, first.ShouldBlock, second.ShouldBlock)
	assert.ElementsMatch(t, first.Threats, second.Threats)
}
