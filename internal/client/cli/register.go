package cli

import (
	"context"
	"fmt"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	passphrase, err := c.io.ReadPassword("Passphrase (min 8 chars): ")
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm passphrase: ")
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if passphrase != confirm {
		return fmt.Errorf("passphrases do not match")
	}

	if err := c.core.Register(ctx, username, passphrase); err != nil {
		return err
	}

	c.io.Println("Registered. Your private key is sealed under the passphrase;")
	c.io.Println("if you lose the passphrase, your files cannot be recovered.")
	return nil
}
