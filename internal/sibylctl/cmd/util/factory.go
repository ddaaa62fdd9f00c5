package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/vantle/sibyl/internal/sibyl/api"
	"github.com/vantle/sibyl/internal/sibyl/store/boltdb"
	"github.com/vantle/sibyl/internal/sibyl/store/sqlite"
)

// Config keys resolved through viper; set via flags, env or the config file.
const (
	FlagServerAddr = "server"
	FlagToken      = "token"
	FlagDataDir    = "data-dir"
	FlagTimeout    = "timeout"
)

// Factory builds the shared dependencies of the sibylctl subcommands from
// the resolved configuration.
type Factory interface {
	// Client returns the backend API client with the bootstrap principal.
	Client() (*api.Client, error)
	// OpenArchive opens the local turn archive.
	OpenArchive() (*boltdb.DB, error)
	// OpenHistory opens the local query-history database.
	OpenHistory() (*sqlite.HistoryStore, error)
	// DataDir returns the local state directory, created on demand.
	DataDir() (string, error)
}

type defaultFactory struct{}

// NewFactory returns the viper-backed factory.
func NewFactory() Factory {
	return &defaultFactory{}
}

func (f *defaultFactory) Client() (*api.Client, error) {
	addr := viper.GetString(FlagServerAddr)
	if addr == "" {
		addr = "http://localhost:11789"
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}

	principal, err := f.principal()
	if err != nil {
		return nil, err
	}

	timeout := viper.GetDuration(FlagTimeout)
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return api.NewClient(api.Config{
		BaseURL:   addr,
		Token:     viper.GetString(FlagToken),
		Principal: principal,
		Timeout:   timeout,
	})
}

func (f *defaultFactory) OpenArchive() (*boltdb.DB, error) {
	dir, err := f.DataDir()
	if err != nil {
		return nil, err
	}
	return boltdb.Open(filepath.Join(dir, "turns.db"))
}

func (f *defaultFactory) OpenHistory() (*sqlite.HistoryStore, error) {
	dir, err := f.DataDir()
	if err != nil {
		return nil, err
	}
	return sqlite.Open(filepath.Join(dir, "history.db"))
}

func (f *defaultFactory) DataDir() (string, error) {
	dir := viper.GetString(FlagDataDir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".sibyl")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dir, nil
}

// principal loads the caller identity generated on first run. Identity is
// always passed explicitly into the client, never read from a global.
func (f *defaultFactory) principal() (uuid.UUID, error) {
	dir, err := f.DataDir()
	if err != nil {
		return uuid.Nil, err
	}
	path := filepath.Join(dir, "principal")

	raw, err := os.ReadFile(path)
	if err == nil {
		id, parseErr := uuid.Parse(strings.TrimSpace(string(raw)))
		if parseErr == nil {
			return id, nil
		}
		// Unreadable identity file: regenerate rather than fail every command.
	}

	id := uuid.New()
	if err := os.WriteFile(path, []byte(id.String()+"\n"), 0600); err != nil {
		return uuid.Nil, fmt.Errorf("persist principal: %w", err)
	}
	return id, nil
}
