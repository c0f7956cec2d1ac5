package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runInvite(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: invite <user> <name>")
	}
	username, name := args[0], args[1]

	if err := c.login(ctx); err != nil {
		return err
	}

	if err := c.core.Invite(ctx, username, name); err != nil {
		return err
	}

	c.io.Printf("Invited %s to %s\n", username, name)
	return nil
}

func (c *Cli) runAccept(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: accept <name>")
	}
	name := args[0]

	if err := c.login(ctx); err != nil {
		return err
	}

	if err := c.core.Accept(ctx, name); err != nil {
		return err
	}

	c.io.Printf("Accepted invite to %s. Run 'pull %s' to fetch it.\n", name, name)
	return nil
}

func (c *Cli) runRemove(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: remove <user> <name>")
	}
	username, name := args[0], args[1]

	if err := c.login(ctx); err != nil {
		return err
	}

	reinvited, err := c.core.Remove(ctx, username, name)
	if err != nil {
		return err
	}

	c.io.Printf("Removed %s from %s and rotated its key.\n", username, name)
	if len(reinvited) > 0 {
		c.io.Println("Re-invited under the new key:")
		for _, u := range reinvited {
			c.io.Printf("  %s\n", u)
		}
	}
	return nil
}
