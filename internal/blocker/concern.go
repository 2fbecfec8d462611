package blocker

// Concern is one independently toggleable enforcement channel. Each concern
// has its own rule file and reload identifier; publishing one never touches
// another's file.
type Concern string

const (
	ConcernDistractions Concern = "distractions"
	ConcernAds          Concern = "ads"
	ConcernPrivacy      Concern = "privacy"
	ConcernSecurity     Concern = "security"
)

// AllConcerns returns every filter concern
func AllConcerns() []Concern {
	return []Concern{ConcernDistractions, ConcernAds, ConcernPrivacy, ConcernSecurity}
}

// FileName returns the rule file name for the concern inside the shared
// container directory.
func (c Concern) FileName() string {
	switch c {
	case ConcernDistractions:
		return "masterDistractionsBlocklist.json"
	case ConcernAds:
		return "masterAdsBlocklist.json"
	case ConcernPrivacy:
		return "masterPrivacyBlocklist.json"
	case ConcernSecurity:
		return "masterSecurityBlocklist.json"
	}
	return "master" + string(c) + "Blocklist.json"
}

// Identifier returns the reload identifier passed to the platform hook
func (c Concern) Identifier() string {
	return "quietweb.blocker." + string(c)
}
