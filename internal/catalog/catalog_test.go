package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quietweb/pkg/logger"
)

func testCatalog() *Catalog {
	return Load(logger.New(logger.Config{Level: "error"}))
}

func TestLoadBundlesEveryGroup(t *testing.T) {
	c := testCatalog()

	for _, group := range AllGroups() {
		sources := c.Sources(group)
		assert.NotEmpty(t, sources, "group %s has no bundled sources", group)
		for _, src := range sources {
			assert.NotEmpty(t, src.ID)
			assert.NotEmpty(t, src.Hosts)
			assert.Equal(t, group, src.Group)
		}
	}
}

func TestSourceIDsAreUniqueAcrossGroups(t *testing.T) {
	c := testCatalog()

	seen := make(map[string]Group)
	for _, group := range AllGroups() {
		for _, src := range c.Sources(group) {
			previous, dup := seen[src.ID]
			require.False(t, dup, "source id %q appears in both %s and %s", src.ID, previous, group)
			seen[src.ID] = group
		}
	}
}

func TestHostsForSourceIDs(t *testing.T) {
	c := testCatalog()

	hosts := c.HostsForSourceIDs(map[string]struct{}{"facebook": {}, "twitter": {}})
	assert.Contains(t, hosts, "facebook.com")
	assert.Contains(t, hosts, "fb.com")
	assert.Contains(t, hosts, "twitter.com")
	assert.NotContains(t, hosts, "instagram.com")
}

func TestHostsForSourceIDsEmptySelection(t *testing.T) {
	c := testCatalog()
	assert.Empty(t, c.HostsForSourceIDs(nil))
	assert.Empty(t, c.HostsForSourceIDs(map[string]struct{}{}))
}

func TestHostsForSourceIDsIgnoresUnknownIDs(t *testing.T) {
	c := testCatalog()
	hosts := c.HostsForSourceIDs(map[string]struct{}{"no-such-source": {}})
	assert.Empty(t, hosts)
}

func TestGroupHelpers(t *testing.T) {
	assert.Equal(t, "social-media.json", GroupSocialMedia.FileName())
	assert.Equal(t, "Social Media", GroupSocialMedia.Name())
	assert.Equal(t, "Food Delivery", GroupFoodDelivery.Name())
	assert.True(t, GroupGaming.Valid())
	assert.False(t, Group("podcasts").Valid())
	assert.Len(t, AllGroups(), 16)
}
