package catalog

// Group is one of the fixed categories distraction sources are bundled under
type Group string

const (
	GroupAdult        Group = "adult"
	GroupBlogs        Group = "blogs"
	GroupDating       Group = "dating"
	GroupFoodDelivery Group = "food-delivery"
	GroupForums       Group = "forums"
	GroupGambling     Group = "gambling"
	GroupGaming       Group = "gaming"
	GroupMessaging    Group = "messaging"
	GroupMusic        Group = "music"
	GroupNews         Group = "news"
	GroupPolitics     Group = "politics"
	GroupSearch       Group = "search"
	GroupShopping     Group = "shopping"
	GroupSocialMedia  Group = "social-media"
	GroupSports       Group = "sports"
	GroupVideo        Group = "video"
)

// AllGroups returns every catalog group in display order
func AllGroups() []Group {
	return []Group{
		GroupAdult,
		GroupBlogs,
		GroupDating,
		GroupFoodDelivery,
		GroupForums,
		GroupGambling,
		GroupGaming,
		GroupMessaging,
		GroupMusic,
		GroupNews,
		GroupPolitics,
		GroupSearch,
		GroupShopping,
		GroupSocialMedia,
		GroupSports,
		GroupVideo,
	}
}

// Name returns the human-readable group name
func (g Group) Name() string {
	switch g {
	case GroupAdult:
		return "Adult"
	case GroupBlogs:
		return "Blogs"
	case GroupDating:
		return "Dating"
	case GroupFoodDelivery:
		return "Food Delivery"
	case GroupForums:
		return "Forums"
	case GroupGambling:
		return "Gambling"
	case GroupGaming:
		return "Gaming"
	case GroupMessaging:
		return "Messaging"
	case GroupMusic:
		return "Music"
	case GroupNews:
		return "News"
	case GroupPolitics:
		return "Politics"
	case GroupSearch:
		return "Search"
	case GroupShopping:
		return "Shopping"
	case GroupSocialMedia:
		return "Social Media"
	case GroupSports:
		return "Sports"
	case GroupVideo:
		return "Video"
	}
	return string(g)
}

// FileName returns the bundled data file name for the group
func (g Group) FileName() string {
	return string(g) + ".json"
}

// Valid reports whether g is one of the fixed catalog groups
func (g Group) Valid() bool {
	for _, known := range AllGroups() {
		if g == known {
			return true
		}
	}
	return false
}
