package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/illarion/lockpass/internal/configs"
	"github.com/illarion/lockpass/internal/core"
	"github.com/illarion/lockpass/internal/generate"
	"github.com/illarion/lockpass/internal/prompt"
	"github.com/illarion/lockpass/internal/secret"
	"github.com/illarion/lockpass/internal/storage"
	"github.com/illarion/lockpass/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

// scriptedPrompt answers every question with the next scripted value.
// Confirmation is treated as a single answer.
type scriptedPrompt struct {
	answers []string
	asked   []string
}

func (p *scriptedPrompt) next(label string) (*secret.Buffer, error) {
	p.asked = append(p.asked, label)
	if len(p.answers) == 0 {
		return nil, fmt.Errorf("unexpected prompt %q", label)
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return secret.FromString(answer), nil
}

func (p *scriptedPrompt) ReadMasterPassphrase() (*secret.Buffer, error) {
	return p.next("master password")
}

func (p *scriptedPrompt) ReadSecret(label string) (*secret.Buffer, error) {
	return p.next(label)
}

func (p *scriptedPrompt) ReadConfirmed(label string) (*secret.Buffer, error) {
	return p.next(label)
}

type fakeClipboard struct {
	copied string
	err    error
}

func (c *fakeClipboard) Copy(text *secret.Buffer) error {
	if c.err != nil {
		return c.err
	}
	c.copied = text.String()
	return nil
}

func (c *fakeClipboard) PasteShortcutDescription() string {
	return "Ctrl+V"
}

type testEnv struct {
	t      *testing.T
	app    *app
	prompt *scriptedPrompt
	clip   *fakeClipboard
	vault  string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gokeyring.MockInit()

	dir := t.TempDir()
	p := &scriptedPrompt{}
	c := &fakeClipboard{}
	return &testEnv{
		t: t,
		app: &app{
			prompt:    p,
			clipboard: c,
			newKDF:    testutil.FastKDF,
			lookupEnv: func(string) (string, bool) { return "", false },
		},
		prompt: p,
		clip:   c,
		vault:  filepath.Join(dir, "vault.lockpass"),
		config: filepath.Join(dir, "config.toml"),
	}
}

// run executes one lockpass invocation answering prompts in order.
func (e *testEnv) run(answers []string, args ...string) (string, error) {
	e.t.Helper()
	e.prompt.answers = answers
	e.prompt.asked = nil

	var out bytes.Buffer
	e.app.out = &out
	e.app.errOut = &out

	root := newRootCmd(e.app)
	root.SetArgs(append([]string{"--config", e.config, "--file", e.vault}, args...))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()

	assert.Empty(e.t, e.prompt.answers, "unused answers for %v", args)
	return out.String(), err
}

func (e *testEnv) mustRun(answers []string, args ...string) string {
	e.t.Helper()
	out, err := e.run(answers, args...)
	require.NoError(e.t, err, out)
	return out
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func pass(answers ...string) []string {
	return answers
}

func TestInitAddGetListDelete(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun(pass("hunter2"), "init")
	assert.Contains(t, out, "Created vault")
	assert.Equal(t, []string{"New master password"}, e.prompt.asked)

	out = e.mustRun(pass("hunter2", "p1"), "add", "mail", "me@x.com")
	assert.Contains(t, out, "Saved the password for")
	assert.Equal(t, []string{"master password", "Password for mail"}, e.prompt.asked)

	out = e.mustRun(pass("hunter2"), "get", "mail", "--show")
	assert.Contains(t, out, "me@x.com")
	assert.Equal(t, "p1", lastLine(out))

	out = e.mustRun(pass("hunter2"), "get", "mail")
	assert.Equal(t, "p1", e.clip.copied)
	assert.Contains(t, out, "Ctrl+V")
	assert.NotContains(t, out, "p1")

	e.mustRun(pass("hunter2", "b1"), "add", "bank", "acct")
	out = e.mustRun(pass("hunter2"), "list")
	assert.Less(t, strings.Index(out, "bank"), strings.Index(out, "mail"))
	assert.Contains(t, out, "acct")
	assert.NotContains(t, out, "b1")

	out = e.mustRun(pass("hunter2"), "delete", "mail")
	assert.Contains(t, out, "Deleted")

	_, err := e.run(pass("hunter2"), "get", "mail")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListEmptyVault(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")

	out := e.mustRun(pass("hunter2"), "ls")
	assert.Contains(t, out, "No passwords saved yet")
}

func TestInitRefusesExistingVault(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")

	_, err := e.run(nil, "init")
	assert.ErrorIs(t, err, core.ErrAlreadyExists)
}

func TestInitCreatesVaultDirectory(t *testing.T) {
	e := newTestEnv(t)
	e.vault = filepath.Join(t.TempDir(), "nested", "dir", "vault.lockpass")
	e.mustRun(pass("hunter2"), "init")

	info, err := os.Stat(e.vault)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(storage.FilePerm), info.Mode().Perm())
}

func TestInitWritesConfigOnce(t *testing.T) {
	e := newTestEnv(t)
	out := e.mustRun(pass("hunter2"), "init")
	assert.Contains(t, out, "Wrote settings to")

	config, err := configs.Load(e.config)
	require.NoError(t, err)
	assert.Equal(t, e.vault, config.VaultPath)

	// An existing config file is left alone.
	custom := []byte("[generator]\nlength = 12\n")
	require.NoError(t, os.WriteFile(e.config, custom, 0600))
	e.vault = filepath.Join(t.TempDir(), "second.lockpass")
	out = e.mustRun(pass("hunter2"), "init")
	assert.NotContains(t, out, "Wrote settings to")

	data, err := os.ReadFile(e.config)
	require.NoError(t, err)
	assert.Equal(t, custom, data)
}

func TestMissingVault(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.run(nil, "list")
	assert.ErrorIs(t, err, core.ErrFileNotFound)
}

func TestWrongMasterPassword(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")

	_, err := e.run(pass("hunter3"), "list")
	assert.ErrorIs(t, err, core.ErrWrongPasswordOrCorrupt)
}

func TestAddDuplicate(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")
	e.mustRun(pass("hunter2", "p1"), "add", "mail", "me")

	_, err := e.run(pass("hunter2", "p2"), "add", "mail", "me")
	assert.ErrorIs(t, err, core.ErrDuplicateName)
}

func TestGenerate(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")

	e.mustRun(pass("hunter2"), "generate", "mail", "me@x.com")
	assert.Len(t, e.clip.copied, generate.DefaultLength)
	generated := e.clip.copied

	out := e.mustRun(pass("hunter2"), "get", "mail", "--show")
	assert.Equal(t, generated, lastLine(out))

	out = e.mustRun(pass("hunter2"), "generate", "bank", "acct", "--alnum", "--length", "12", "--show")
	pw := lastLine(out)
	assert.Len(t, pw, 12)
	for _, c := range pw {
		assert.True(t, ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9'), "%q", c)
	}
}

func TestGenerateInvalidLengthFailsBeforePrompt(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")

	_, err := e.run(nil, "generate", "mail", "me", "--length=-3")
	assert.ErrorIs(t, err, generate.ErrInvalidLength)
}

func TestRegenerate(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")
	e.mustRun(pass("hunter2", "p1"), "add", "mail", "me@x.com")

	out := e.mustRun(pass("hunter2"), "regenerate", "mail", "--length", "40", "--show")
	pw := lastLine(out)
	assert.Len(t, pw, 40)

	out = e.mustRun(pass("hunter2"), "get", "mail", "--show")
	assert.Equal(t, pw, lastLine(out))
	assert.Contains(t, out, "me@x.com")

	_, err := e.run(pass("hunter2"), "regenerate", "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestChange(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")
	e.mustRun(pass("hunter2", "p1"), "add", "mail", "me@x.com")

	e.mustRun(pass("hunter2", "p2"), "change", "mail", "--username", "you@x.com")
	assert.Equal(t, []string{"master password", "New password for mail"}, e.prompt.asked)

	out := e.mustRun(pass("hunter2"), "get", "mail", "--show")
	assert.Contains(t, out, "you@x.com")
	assert.Equal(t, "p2", lastLine(out))

	// Unknown names fail before the new password is asked for.
	_, err := e.run(pass("hunter2"), "change", "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRename(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")
	e.mustRun(pass("hunter2", "p1"), "add", "mail", "me")

	e.mustRun(pass("hunter2"), "rename", "mail", "work-mail")
	out := e.mustRun(pass("hunter2"), "get", "work-mail", "--show")
	assert.Equal(t, "p1", lastLine(out))
}

func TestPasswd(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")
	e.mustRun(pass("hunter2", "p1"), "add", "mail", "me")

	out := e.mustRun(pass("hunter2", "correct horse"), "passwd")
	assert.Contains(t, out, "Master password changed")

	_, err := e.run(pass("hunter2"), "list")
	assert.ErrorIs(t, err, core.ErrWrongPasswordOrCorrupt)

	out = e.mustRun(pass("correct horse"), "get", "mail", "--show")
	assert.Equal(t, "p1", lastLine(out))
}

func TestKeyring(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")
	e.mustRun(pass("hunter2", "p1"), "add", "mail", "me")

	out := e.mustRun(nil, "keyring", "status")
	assert.Contains(t, out, "not stored")

	_, err := e.run(pass("wrong"), "keyring", "save")
	assert.ErrorIs(t, err, core.ErrWrongPasswordOrCorrupt)

	e.mustRun(pass("hunter2"), "keyring", "save")
	out = e.mustRun(nil, "keyring", "status")
	assert.Contains(t, out, "password stored")

	// No prompt: the keyring supplies the master password.
	out = e.mustRun(nil, "get", "mail", "--show")
	assert.Equal(t, "p1", lastLine(out))

	// passwd keeps the keyring in step.
	out = e.mustRun(pass("new master"), "passwd")
	assert.Contains(t, out, "Keyring updated")
	e.mustRun(nil, "list")

	e.mustRun(nil, "keyring", "delete")
	out = e.mustRun(nil, "keyring", "delete")
	assert.Contains(t, out, "No password stored")

	_, err = e.run(pass("hunter2"), "list")
	assert.ErrorIs(t, err, core.ErrWrongPasswordOrCorrupt)
}

func TestStaleKeyringFallsBackToPrompt(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")

	header, err := core.ReadHeader(e.vault)
	require.NoError(t, err)
	require.NoError(t, gokeyring.Set("lockpass", header.VaultID, "outdated"))

	out := e.mustRun(pass("hunter2"), "list")
	assert.Contains(t, out, "no longer opens this vault")
}

func TestStatus(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")

	out := e.mustRun(nil, "status")
	assert.Contains(t, out, "version 3")
	assert.Contains(t, out, "argon2id")
	assert.Contains(t, out, "not stored")
	assert.Empty(t, e.prompt.asked)
}

func TestLegacyVaultIsUpgraded(t *testing.T) {
	e := newTestEnv(t)
	body := []byte(`{"passwords":[{"app_name":"mail","username":"me","password":"cDE="}]}`)
	testutil.WriteLegacyVault(t, e.vault, storage.VersionV1, "hunter2", body)

	out := e.mustRun(nil, "status")
	assert.Contains(t, out, "version 1")
	assert.Contains(t, out, "pbkdf2-sha256")
	assert.Contains(t, out, "legacy format")

	out = e.mustRun(pass("hunter2"), "get", "mail", "--show")
	assert.Equal(t, "p1", lastLine(out))

	out = e.mustRun(nil, "status")
	assert.Contains(t, out, "version 3")
}

func TestClipboardFailureSuggestsShow(t *testing.T) {
	e := newTestEnv(t)
	e.mustRun(pass("hunter2"), "init")
	e.mustRun(pass("hunter2", "p1"), "add", "mail", "me")

	e.clip.err = errors.New("no display")
	out := e.mustRun(pass("hunter2"), "get", "mail")
	assert.Contains(t, out, "lockpass get mail --show")
	assert.NotContains(t, out, "p1")
}

func TestConfigDefaultsApply(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.WriteFile(e.config, []byte("[generator]\nlength = 10\nallow_symbols = false\n"), 0600))
	e.mustRun(pass("hunter2"), "init")

	out := e.mustRun(pass("hunter2"), "generate", "mail", "me", "--show")
	assert.Len(t, lastLine(out), 10)
}

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		err  error
		msg  string
		hint string
	}{
		{fmt.Errorf("%w: /tmp/v", core.ErrFileNotFound), "/tmp/v", "lockpass init"},
		{core.ErrAlreadyExists, "already exists", "lockpass status"},
		{core.ErrWrongPasswordOrCorrupt, "wrong master password", ""},
		{fmt.Errorf("%w: version 9", core.ErrUnsupportedFormat), "newer version", ""},
		{fmt.Errorf("%w: mail", core.ErrNotFound), "mail", "lockpass list"},
		{fmt.Errorf("%w: mail", core.ErrDuplicateName), "mail", "lockpass change"},
		{fmt.Errorf("%w: disk full", core.ErrPersist), "nothing was changed", ""},
		{prompt.ErrMismatch, "do not match", ""},
		{errors.New("boom"), "boom", ""},
	}
	for _, tc := range cases {
		msg, hint := errorMessage(tc.err)
		assert.Contains(t, msg, tc.msg)
		if tc.hint == "" {
			assert.Empty(t, hint)
		} else {
			assert.Contains(t, hint, tc.hint)
		}
	}
}
