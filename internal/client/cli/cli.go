// Package cli implements the command line interface of the client.
package cli

import (
	"context"
	"fmt"

	"github.com/nfaria/cofre/internal/client/core"
	"github.com/nfaria/cofre/internal/client/iocli"
)

// Cli dispatches commands against the client core.
type Cli struct {
	core *core.Core
	io   iocli.IO
}

// New creates a Cli.
func New(c *core.Core, io iocli.IO) *Cli {
	return &Cli{core: c, io: io}
}

// Run executes one command.
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "push":
		return c.runPush(ctx, args)
	case "pull":
		return c.runPull(ctx, args)
	case "unlock":
		return c.runUnlock(args)
	case "list":
		return c.runList()
	case "invite":
		return c.runInvite(ctx, args)
	case "accept":
		return c.runAccept(ctx, args)
	case "remove":
		return c.runRemove(ctx, args)
	case "help", "":
		c.PrintUsage()
		return nil
	default:
		c.PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// PrintUsage lists the available commands.
func (c *Cli) PrintUsage() {
	c.io.Println("Usage: cofre <command> [args]")
	c.io.Println("")
	c.io.Println("Commands:")
	c.io.Println("  register                     create an identity and register it")
	c.io.Println("  push [-rm] <name> <path>     encrypt and upload a file; -rm removes the local copy")
	c.io.Println("  pull <name> [local-path]     download, verify and decrypt a file")
	c.io.Println("  unlock <name> [local-path]   decrypt the local copy without the server")
	c.io.Println("  list                         list files known locally")
	c.io.Println("  invite <user> <name>         share a file with another user")
	c.io.Println("  accept <name>                accept a pending invite")
	c.io.Println("  remove <user> <name>         revoke a collaborator and re-key")
	c.io.Println("  help                         show this help")
}

// login prompts for credentials and opens a session. Commands that talk to
// the server call it first; there is no persistent session between runs.
func (c *Cli) login(ctx context.Context) error {
	if c.core.LoggedIn() {
		return nil
	}

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	passphrase, err := c.io.ReadPassword("Passphrase: ")
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}

	pending, err := c.core.Login(ctx, username, passphrase)
	if err != nil {
		return err
	}

	if len(pending) > 0 {
		c.io.Println("You have pending invites:")
		for _, name := range pending {
			c.io.Printf("  %s (run 'accept %s')\n", name, name)
		}
	}
	return nil
}
