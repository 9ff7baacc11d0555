package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is built once at startup and passed into each component constructor.
// Nothing in the engine reads the environment after this point.
type Config struct {
	// SnapshotPath is the local products file, the source of truth for reads.
	SnapshotPath string
	// AssetDir holds ingested attachments.
	AssetDir string
	// AllowedRoleIDs gates mutations. Empty means nobody is allowed.
	AllowedRoleIDs map[int64]struct{}

	// GitHub mirroring. Mirroring is disabled entirely unless Owner, Repo and
	// Token are all present.
	GitHubOwner  string
	GitHubRepo   string
	GitHubBranch string
	GitHubToken  string

	Port string
}

// FromEnv reads the configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		SnapshotPath:   getenvDefault("STOCKROOM_FILE", "products.json"),
		AssetDir:       getenvDefault("STOCKROOM_ASSET_DIR", "uploads"),
		AllowedRoleIDs: ParseAllowedRoles(os.Getenv("ALLOWED_ROLE_IDS")),
		GitHubOwner:    os.Getenv("GITHUB_OWNER"),
		GitHubRepo:     os.Getenv("GITHUB_REPO"),
		GitHubBranch:   getenvDefault("GITHUB_BRANCH", "main"),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		Port:           getenvDefault("PORT", "8888"),
	}
	return cfg
}

// MirrorEnabled reports whether remote mirroring is configured. With any of
// owner/repo/token missing the engine runs as a local-only store.
func (c Config) MirrorEnabled() bool {
	return c.GitHubOwner != "" && c.GitHubRepo != "" && c.GitHubToken != ""
}

// RoleAllowed reports whether any of the caller's role IDs is on the
// allow-list. An empty allow-list denies everyone.
func (c Config) RoleAllowed(roleIDs []int64) bool {
	if len(c.AllowedRoleIDs) == 0 {
		return false
	}
	for _, id := range roleIDs {
		if _, ok := c.AllowedRoleIDs[id]; ok {
			return true
		}
	}
	return false
}

// ParseAllowedRoles parses a comma-separated list of numeric role IDs.
// Malformed entries are skipped rather than failing startup.
func ParseAllowedRoles(raw string) map[int64]struct{} {
	roles := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		roles[id] = struct{}{}
	}
	return roles
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
