package blocker

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReloader struct {
	reloaded []string
}

func (r *recordingReloader) Reload(identifier string) error {
	r.reloaded = append(r.reloaded, identifier)
	return nil
}

func (r *recordingReloader) EnabledState(identifier string) (bool, error) {
	return true, nil
}

type failingReloader struct{}

func (failingReloader) Reload(string) error { return errors.New("hook missing") }

func (failingReloader) EnabledState(string) (bool, error) { return false, nil }

func TestPublishWritesConcernFile(t *testing.T) {
	sharedDir := t.TempDir()
	publisher := NewPublisher(sharedDir, &noopReloader{}, testLogger())

	rules := Compile(Resolution{Hosts: map[string]struct{}{"example.com": {}}})
	require.NoError(t, publisher.Publish(ConcernDistractions, rules))

	data, err := os.ReadFile(filepath.Join(sharedDir, "masterDistractionsBlocklist.json"))
	require.NoError(t, err)

	var decoded []Rule
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rules, decoded)
}

func TestPublishSubstitutesAllowAllForEmptyRules(t *testing.T) {
	sharedDir := t.TempDir()
	publisher := NewPublisher(sharedDir, &noopReloader{}, testLogger())

	require.NoError(t, publisher.Publish(ConcernDistractions, nil))

	data, err := os.ReadFile(filepath.Join(sharedDir, ConcernDistractions.FileName()))
	require.NoError(t, err)

	var decoded []Rule
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, ActionIgnorePreviousRules, decoded[0].Action.Type)
}

func TestPublishLeavesNoTempFile(t *testing.T) {
	sharedDir := t.TempDir()
	publisher := NewPublisher(sharedDir, &noopReloader{}, testLogger())

	require.NoError(t, publisher.Publish(ConcernDistractions, AllowAllRules()))

	entries, err := os.ReadDir(sharedDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ConcernDistractions.FileName(), entries[0].Name())
}

func TestPublishCreatesSharedDir(t *testing.T) {
	sharedDir := filepath.Join(t.TempDir(), "nested", "shared")
	publisher := NewPublisher(sharedDir, &noopReloader{}, testLogger())

	require.NoError(t, publisher.Publish(ConcernDistractions, AllowAllRules()))

	_, err := os.Stat(filepath.Join(sharedDir, ConcernDistractions.FileName()))
	assert.NoError(t, err)
}

func TestPublishRequestsReloadBeforeReturning(t *testing.T) {
	reloader := &recordingReloader{}
	publisher := NewPublisher(t.TempDir(), reloader, testLogger())

	require.NoError(t, publisher.Publish(ConcernDistractions, AllowAllRules()))

	// The request is issued by the time Publish returns, so a process that
	// exits immediately afterwards cannot lose it
	assert.Equal(t, []string{ConcernDistractions.Identifier()}, reloader.reloaded)
}

func TestPublishSucceedsWhenReloadFails(t *testing.T) {
	sharedDir := t.TempDir()
	publisher := NewPublisher(sharedDir, failingReloader{}, testLogger())

	require.NoError(t, publisher.Publish(ConcernDistractions, AllowAllRules()))

	_, err := os.Stat(filepath.Join(sharedDir, ConcernDistractions.FileName()))
	assert.NoError(t, err)
}

func TestInitializeStubConcerns(t *testing.T) {
	sharedDir := t.TempDir()
	publisher := NewPublisher(sharedDir, &noopReloader{}, testLogger())

	// Pre-existing file is left alone
	adsPath := filepath.Join(sharedDir, ConcernAds.FileName())
	require.NoError(t, os.WriteFile(adsPath, []byte("[]"), 0644))

	publisher.InitializeStubConcerns()

	for _, concern := range []Concern{ConcernPrivacy, ConcernSecurity} {
		data, err := os.ReadFile(filepath.Join(sharedDir, concern.FileName()))
		require.NoError(t, err)

		var decoded []Rule
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, ActionIgnorePreviousRules, decoded[0].Action.Type)
	}

	data, err := os.ReadFile(adsPath)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	// The distraction concern belongs to the pipeline, not the stubs
	_, err = os.Stat(filepath.Join(sharedDir, ConcernDistractions.FileName()))
	assert.True(t, os.IsNotExist(err))
}
