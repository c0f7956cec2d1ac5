package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	apiclient "github.com/nfaria/cofre/internal/client/api"
	"github.com/nfaria/cofre/internal/client/cache"
	"github.com/nfaria/cofre/internal/client/cli"
	"github.com/nfaria/cofre/internal/client/core"
	"github.com/nfaria/cofre/internal/client/iocli"
	"github.com/nfaria/cofre/internal/client/keys"
	"github.com/nfaria/cofre/internal/naming"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	namingURL := flag.String("naming", envOr("COFRE_NAMING_URL", "http://localhost:2181"), "Naming service URL")
	dataDir := flag.String("data-dir", defaultDataDir(), "Directory for keys and the local cache")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(*namingURL, *dataDir, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(namingURL, dataDir string, args []string) error {
	keyStore, err := keys.NewStore(filepath.Join(dataDir, "keys"))
	if err != nil {
		return err
	}

	fileCache, err := cache.Open(filepath.Join(dataDir, "cache.db"))
	if err != nil {
		return err
	}
	defer func() { _ = fileCache.Close() }()

	client := apiclient.NewClient(naming.NewClient(namingURL), naming.PrimaryPath)
	c := cli.New(core.New(client, keyStore, fileCache), iocli.NewStdio())

	command := ""
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}
	return c.Run(context.Background(), command, args)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cofre"
	}
	return filepath.Join(home, ".cofre")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printVersion() {
	fmt.Printf("Cofre Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
