package identity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"temposquare/worklog"
)

type fakeDirectory struct {
	emails map[string]string
	errs   map[string]error
	calls  map[string]int
}

func (d *fakeDirectory) LookupEmail(_ context.Context, accountID string) (string, error) {
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[accountID]++
	if err := d.errs[accountID]; err != nil {
		return "", err
	}
	return d.emails[accountID], nil
}

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func authored(accountID, name string) worklog.Worklog {
	return worklog.Worklog{ID: "1", Author: worklog.Author{AccountID: accountID, DisplayName: name}}
}

func testRoster() *Roster {
	roster := NewRoster()
	roster.Add("Foo@Bar.com", "tm-foo")
	roster.Add("ada@example.com", "tm-ada")
	return roster
}

func TestRoster_JoinIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	roster := testRoster()
	id, ok := roster.Lookup("foo@bar.com")
	require.True(t, ok)
	assert.Equal(t, "tm-foo", id)

	id, ok = roster.Lookup("  FOO@BAR.COM ")
	require.True(t, ok)
	assert.Equal(t, "tm-foo", id)

	assert.False(t, roster.Add("foo@bar.com", "tm-other"), "first id for an email wins")
	assert.False(t, roster.Add("", "tm-empty"))
	assert.Equal(t, 2, roster.Len())
}

func TestDirectoryResolver_CachesLookupsPerAccount(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{emails: map[string]string{"acc-foo": "FOO@bar.com"}}
	logger, _ := newTestLogger()
	resolver := NewDirectoryResolver(directory, testRoster(), logger)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		id, ok := resolver.Resolve(ctx, authored("acc-foo", "Foo"))
		require.True(t, ok)
		assert.Equal(t, "tm-foo", id)
	}
	assert.Equal(t, 1, directory.calls["acc-foo"])
	assert.Len(t, directory.calls, 1)
}

func TestDirectoryResolver_MissingEmailWarnsAndSkips(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{emails: map[string]string{}}
	logger, logs := newTestLogger()
	resolver := NewDirectoryResolver(directory, testRoster(), logger)

	_, ok := resolver.Resolve(context.Background(), authored("acc-hidden", "Hidden User"))
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "Hidden User")
}

func TestDirectoryResolver_LookupFailureIsCachedAndNotRetried(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{errs: map[string]error{"acc-down": errors.New("jira unavailable")}}
	logger, logs := newTestLogger()
	resolver := NewDirectoryResolver(directory, testRoster(), logger)

	ctx := context.Background()
	_, ok := resolver.Resolve(ctx, authored("acc-down", "Down"))
	assert.False(t, ok)
	_, ok = resolver.Resolve(ctx, authored("acc-down", "Down"))
	assert.False(t, ok)

	assert.Equal(t, 1, directory.calls["acc-down"])
	assert.Contains(t, logs.String(), "level=ERROR")
	assert.Contains(t, logs.String(), "jira unavailable")
}

func TestDirectoryResolver_UnknownEmailWarnsWithEmailAndName(t *testing.T) {
	t.Parallel()

	directory := &fakeDirectory{emails: map[string]string{"acc-new": "new@example.com"}}
	logger, logs := newTestLogger()
	resolver := NewDirectoryResolver(directory, testRoster(), logger)

	_, ok := resolver.Resolve(context.Background(), authored("acc-new", "New Hire"))
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "new@example.com")
	assert.Contains(t, logs.String(), "New Hire")
}

func TestStaticResolver_SilentOnMiss(t *testing.T) {
	t.Parallel()

	logger, logs := newTestLogger()
	resolver, err := NewResolver(Options{
		Strategy: StrategyStatic,
		StaticMapping: map[string]string{
			"acc-ada":  "ADA@example.com",
			"acc-gone": "gone@example.com",
		},
		Logger: logger,
	}, testRoster())
	require.NoError(t, err)

	ctx := context.Background()
	id, ok := resolver.Resolve(ctx, authored("ACC-ADA", "Ada"))
	require.True(t, ok)
	assert.Equal(t, "tm-ada", id)

	_, ok = resolver.Resolve(ctx, authored("acc-unmapped", "Contractor"))
	assert.False(t, ok)
	_, ok = resolver.Resolve(ctx, authored("acc-gone", "Gone"))
	assert.False(t, ok)

	assert.Empty(t, logs.String())
}

func TestNewResolver_Selection(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(Options{Directory: &fakeDirectory{}}, testRoster())
	require.NoError(t, err)
	assert.IsType(t, &DirectoryResolver{}, resolver)

	_, err = NewResolver(Options{Strategy: StrategyDirectory}, testRoster())
	assert.Error(t, err)

	_, err = NewResolver(Options{Strategy: "ldap"}, testRoster())
	assert.ErrorContains(t, err, "unsupported identity strategy")
}

func TestLoadMappingFile_FlatAndListForms(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	flat := filepath.Join(dir, "flat.yaml")
	require.NoError(t, os.WriteFile(flat, []byte("557058:AbC: ada@example.com\nacc-2: bob@example.com\n"), 0o600))
	list := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(list, []byte("- account_id: 557058:AbC\n  email: ada@example.com\n"), 0o600))

	mapping, err := LoadMappingFile(flat)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"557058:AbC": "ada@example.com", "acc-2": "bob@example.com"}, mapping)

	mapping, err = LoadMappingFile(list)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"557058:AbC": "ada@example.com"}, mapping)

	_, err = ParseMapping([]byte("- account_id: only-id\n"))
	assert.Error(t, err)
}
