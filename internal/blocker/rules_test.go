package blocker

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTotalBlock(t *testing.T) {
	rules := Compile(Resolution{TotalBlock: true, Hosts: map[string]struct{}{"facebook.com": {}}})

	require.Len(t, rules, 1)
	assert.Equal(t, ".*", rules[0].Trigger.URLFilter)
	require.NotNil(t, rules[0].Trigger.URLFilterIsCaseSensitive)
	assert.False(t, *rules[0].Trigger.URLFilterIsCaseSensitive)
	assert.Equal(t, ActionBlock, rules[0].Action.Type)
}

func TestCompileEmptyResolution(t *testing.T) {
	assert.Nil(t, Compile(Resolution{Hosts: map[string]struct{}{}}))
	assert.Nil(t, Compile(Resolution{}))
}

func TestCompileIsDeterministic(t *testing.T) {
	resolution := Resolution{Hosts: map[string]struct{}{
		"zebra.com":    {},
		"facebook.com": {},
		"apple.com":    {},
	}}

	first := Compile(resolution)
	second := Compile(resolution)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	// Sorted by host
	assert.Contains(t, first[0].Trigger.URLFilter, "apple\\.com")
	assert.Contains(t, first[1].Trigger.URLFilter, "facebook\\.com")
	assert.Contains(t, first[2].Trigger.URLFilter, "zebra\\.com")
}

func TestCompileHostRules(t *testing.T) {
	rules := Compile(Resolution{Hosts: map[string]struct{}{"facebook.com": {}}})

	require.Len(t, rules, 1)
	assert.Equal(t, `.*://(www\.)?(.+\.)?facebook\.com/.*`, rules[0].Trigger.URLFilter)
	require.NotNil(t, rules[0].Trigger.URLFilterIsCaseSensitive)
	assert.False(t, *rules[0].Trigger.URLFilterIsCaseSensitive)
	assert.Equal(t, ActionBlock, rules[0].Action.Type)
	assert.Empty(t, rules[0].Trigger.IfDomain)
}

func TestURLFilterForEntry(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  string
	}{
		{
			name:  "bare domain",
			entry: "facebook.com",
			want:  `.*://(www\.)?(.+\.)?facebook\.com/.*`,
		},
		{
			name:  "scheme is stripped",
			entry: "https://facebook.com",
			want:  `.*://(www\.)?(.+\.)?facebook\.com/.*`,
		},
		{
			name:  "http scheme is stripped",
			entry: "http://news.ycombinator.com",
			want:  `.*://(www\.)?(.+\.)?news\.ycombinator\.com/.*`,
		},
		{
			name:  "domain with path narrows the match",
			entry: "reddit.com/r/all",
			want:  `.*://(www\.)?(.+\.)?reddit\.com/r/all`,
		},
		{
			name:  "scheme and path together",
			entry: "https://youtube.com/shorts",
			want:  `.*://(www\.)?(.+\.)?youtube\.com/shorts`,
		},
		{
			name:  "regex metacharacters are escaped",
			entry: "ex.ample(1).com",
			want:  `.*://(www\.)?(.+\.)?ex\.ample\(1\)\.com/.*`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, urlFilterForEntry(tt.entry))
		})
	}
}

func TestURLFilterMatchesExpectedURLs(t *testing.T) {
	pattern := regexp.MustCompile("^" + urlFilterForEntry("facebook.com") + "$")

	matches := []string{
		"https://facebook.com/",
		"https://www.facebook.com/feed",
		"https://m.facebook.com/home",
		"http://facebook.com/anything/at/all",
	}
	for _, url := range matches {
		assert.True(t, pattern.MatchString(url), "expected match: %s", url)
	}

	misses := []string{
		"https://notfacebook.org/",
		"https://facebook.com", // No trailing path separator
	}
	for _, url := range misses {
		assert.False(t, pattern.MatchString(url), "expected no match: %s", url)
	}
}

func TestURLFilterTreatsMetacharactersLiterally(t *testing.T) {
	pattern := regexp.MustCompile("^" + urlFilterForEntry("ex.ample(1).com") + "$")

	matches := []string{
		"https://ex.ample(1).com/",
		"https://www.ex.ample(1).com/path",
	}
	for _, url := range matches {
		assert.True(t, pattern.MatchString(url), "expected match: %s", url)
	}

	// Without escaping, the dot would match any byte and the parentheses
	// would group instead of matching literally
	misses := []string{
		"https://ex.ample1.com/path",
		"https://exXample(1).com/path",
	}
	for _, url := range misses {
		assert.False(t, pattern.MatchString(url), "expected no match: %s", url)
	}
}

func TestAllowAllRules(t *testing.T) {
	rules := AllowAllRules()

	require.Len(t, rules, 1)
	assert.Equal(t, ".*", rules[0].Trigger.URLFilter)
	assert.Equal(t, []string{"domain.com"}, rules[0].Trigger.IfDomain)
	assert.Equal(t, ActionIgnorePreviousRules, rules[0].Action.Type)
}

func TestRuleSerialization(t *testing.T) {
	rules := Compile(Resolution{Hosts: map[string]struct{}{"facebook.com": {}}})
	data, err := json.Marshal(rules)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)

	trigger := decoded[0]["trigger"].(map[string]interface{})
	assert.Contains(t, trigger, "url-filter")
	assert.Equal(t, false, trigger["url-filter-is-case-sensitive"])
	assert.NotContains(t, trigger, "if-domain")

	action := decoded[0]["action"].(map[string]interface{})
	assert.Equal(t, "block", action["type"])
}
