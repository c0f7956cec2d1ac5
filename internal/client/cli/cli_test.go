package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiclient "github.com/nfaria/cofre/internal/client/api"
	"github.com/nfaria/cofre/internal/client/cache"
	"github.com/nfaria/cofre/internal/client/core"
	"github.com/nfaria/cofre/internal/client/keys"
	"github.com/nfaria/cofre/internal/naming"
)

// scriptedIO feeds canned answers to prompts and collects output.
type scriptedIO struct {
	inputs    []string
	passwords []string
	output    strings.Builder
}

func (s *scriptedIO) Println(a ...any) {
	s.output.WriteString(fmt.Sprintln(a...))
}

func (s *scriptedIO) Printf(format string, a ...any) {
	fmt.Fprintf(&s.output, format, a...)
}

func (s *scriptedIO) ReadInput(string) (string, error) {
	if len(s.inputs) == 0 {
		return "", fmt.Errorf("no scripted input left")
	}
	in := s.inputs[0]
	s.inputs = s.inputs[1:]
	return in, nil
}

func (s *scriptedIO) ReadPassword(string) (string, error) {
	if len(s.passwords) == 0 {
		return "", fmt.Errorf("no scripted password left")
	}
	pw := s.passwords[0]
	s.passwords = s.passwords[1:]
	return pw, nil
}

func newTestCli(t *testing.T, io *scriptedIO) *Cli {
	t.Helper()

	store, err := keys.NewStore(t.TempDir())
	require.NoError(t, err)

	fileCache, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = fileCache.Close() })

	// Points at an unresolvable registry; commands under test fail before
	// any network use.
	client := apiclient.NewClient(naming.NewClient("http://127.0.0.1:0"), "/cofre/server")
	return New(core.New(client, store, fileCache), io)
}

func TestRunUnknownCommand(t *testing.T) {
	io := &scriptedIO{}
	c := newTestCli(t, io)

	err := c.Run(context.Background(), "teleport", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
	assert.Contains(t, io.output.String(), "Usage:")
}

func TestRunHelp(t *testing.T) {
	io := &scriptedIO{}
	c := newTestCli(t, io)

	require.NoError(t, c.Run(context.Background(), "help", nil))
	out := io.output.String()
	for _, cmd := range []string{"register", "push", "pull", "unlock", "invite", "accept", "remove"} {
		assert.Contains(t, out, cmd)
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		command string
		args    []string
	}{
		{"push", nil},
		{"push", []string{"only-name"}},
		{"push", []string{"-rm", "only-name"}},
		{"pull", nil},
		{"pull", []string{"a", "b", "c"}},
		{"unlock", nil},
		{"unlock", []string{"a", "b", "c"}},
		{"invite", []string{"only-user"}},
		{"accept", nil},
		{"remove", []string{"only-user"}},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			c := newTestCli(t, &scriptedIO{})
			err := c.Run(context.Background(), tt.command, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "usage:")
		})
	}
}

func TestRegisterPassphraseMismatch(t *testing.T) {
	io := &scriptedIO{
		inputs:    []string{"alice"},
		passwords: []string{"first passphrase", "second passphrase"},
	}
	c := newTestCli(t, io)

	err := c.Run(context.Background(), "register", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "do not match")
}

func TestUnlockUnknownFile(t *testing.T) {
	// No scripted credentials: unlock must not prompt for a login.
	io := &scriptedIO{}
	c := newTestCli(t, io)

	err := c.Run(context.Background(), "unlock", []string{"ghost.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no local copy")
}

func TestListEmpty(t *testing.T) {
	io := &scriptedIO{}
	c := newTestCli(t, io)

	require.NoError(t, c.Run(context.Background(), "list", nil))
	assert.Contains(t, io.output.String(), "No files known locally")
}
