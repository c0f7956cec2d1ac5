package cli

import (
	"context"
	"fmt"
	"os"
)

func (c *Cli) runPush(ctx context.Context, args []string) error {
	removeLocal := false
	if len(args) > 0 && args[0] == "-rm" {
		removeLocal = true
		args = args[1:]
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: push [-rm] <name> <local-path>")
	}
	name, localPath := args[0], args[1]

	if err := c.login(ctx); err != nil {
		return err
	}

	plaintext, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	version, err := c.core.Push(ctx, name, plaintext)
	if err != nil {
		return err
	}

	c.io.Printf("Pushed %s as version %d\n", name, version)

	if removeLocal {
		if err := os.Remove(localPath); err != nil {
			return fmt.Errorf("pushed, but failed to remove %s: %w", localPath, err)
		}
		c.io.Printf("Removed local copy %s; use pull to restore it\n", localPath)
	}
	return nil
}

func (c *Cli) runPull(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: pull <name> [local-path]")
	}
	name := args[0]
	localPath := name
	if len(args) == 2 {
		localPath = args[1]
	}

	if err := c.login(ctx); err != nil {
		return err
	}

	plaintext, err := c.core.Pull(ctx, name)
	if err != nil {
		return err
	}

	if err := os.WriteFile(localPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	c.io.Printf("Pulled %s to %s (%d bytes)\n", name, localPath, len(plaintext))
	return nil
}

// runUnlock decrypts the local copy kept by the last push or pull. It never
// talks to the server and needs no session.
func (c *Cli) runUnlock(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: unlock <name> [local-path]")
	}
	name := args[0]
	localPath := name
	if len(args) == 2 {
		localPath = args[1]
	}

	plaintext, err := c.core.Unlock(name)
	if err != nil {
		return err
	}

	if err := os.WriteFile(localPath, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}

	c.io.Printf("Unlocked %s to %s from the local copy\n", name, localPath)
	return nil
}

func (c *Cli) runList() error {
	entries, err := c.core.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		c.io.Println("No files known locally. Use push, or accept an invite.")
		return nil
	}

	c.io.Println("NAME\tOWNER\tVERSION\tLAST MODIFIER")
	for _, e := range entries {
		c.io.Printf("%s\t%s\t%d\t%s\n", e.Name, e.Owner, e.Version, e.LastModifier)
	}
	return nil
}
