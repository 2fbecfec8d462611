package blocker

import (
	"regexp"
	"sort"
	"strings"
)

// Action types understood by the content-filtering subsystem
const (
	ActionBlock               = "block"
	ActionIgnorePreviousRules = "ignore-previous-rules"
)

// Trigger is the matching half of a content-blocker rule
type Trigger struct {
	URLFilter                string   `json:"url-filter"`
	URLFilterIsCaseSensitive *bool    `json:"url-filter-is-case-sensitive,omitempty"`
	IfDomain                 []string `json:"if-domain,omitempty"`
}

// Action is the effect half of a content-blocker rule
type Action struct {
	Type string `json:"type"`
}

// Rule is a single trigger/action pair in the platform's declarative
// block-rule format.
type Rule struct {
	Trigger Trigger `json:"trigger"`
	Action  Action  `json:"action"`
}

// Compile transforms a resolution into the rule list to publish. A total
// block compiles to a single match-all block rule. An empty host set
// compiles to nil; the publisher substitutes the explicit allow-all rule
// so an empty rule file is never written. Compilation is a pure function
// of the resolution.
func Compile(resolution Resolution) []Rule {
	if resolution.TotalBlock {
		return []Rule{totalBlockRule()}
	}
	if len(resolution.Hosts) == 0 {
		return nil
	}

	hosts := make([]string, 0, len(resolution.Hosts))
	for host := range resolution.Hosts {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	rules := make([]Rule, 0, len(hosts))
	for _, host := range hosts {
		rules = append(rules, Rule{
			Trigger: Trigger{
				URLFilter:                urlFilterForEntry(host),
				URLFilterIsCaseSensitive: boolPtr(false),
			},
			Action: Action{Type: ActionBlock},
		})
	}
	return rules
}

// totalBlockRule matches every URL
func totalBlockRule() Rule {
	return Rule{
		Trigger: Trigger{
			URLFilter:                ".*",
			URLFilterIsCaseSensitive: boolPtr(false),
		},
		Action: Action{Type: ActionBlock},
	}
}

// AllowAllRules is the explicit no-restriction rule set. The filter treats
// an empty rule array as ambiguous, so the empty case publishes a single
// ignore-previous-rules object scoped with an if-domain exemption instead.
func AllowAllRules() []Rule {
	return []Rule{
		{
			Trigger: Trigger{
				URLFilter: ".*",
				IfDomain:  []string{"domain.com"},
			},
			Action: Action{Type: ActionIgnorePreviousRules},
		},
	}
}

// urlFilterForEntry builds the URL-matching pattern for one blocklist
// entry. The pattern matches the host with or without a www. prefix and
// with or without arbitrary subdomains, anchored to the scheme separator
// and requiring a path separator after the domain. An entry carrying a
// path narrows the match to that path.
func urlFilterForEntry(entry string) string {
	domainAndPath := strings.TrimPrefix(entry, "http://")
	domainAndPath = strings.TrimPrefix(domainAndPath, "https://")

	domain := domainAndPath
	path := ""
	if idx := strings.Index(domainAndPath, "/"); idx >= 0 {
		domain = domainAndPath[:idx]
		path = domainAndPath[idx+1:]
	}

	escapedDomain := regexp.QuoteMeta(domain)
	if path == "" {
		return `.*://(www\.)?(.+\.)?` + escapedDomain + `/.*`
	}
	escapedPath := regexp.QuoteMeta(path)
	return `.*://(www\.)?(.+\.)?` + escapedDomain + `/` + escapedPath
}

func boolPtr(b bool) *bool {
	return &b
}
