package install

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/rapids-dev/rapids/internal/validate"
)

// Credential sets environment values on one tool server.
type Credential struct {
	Server string
	Env    map[string]string
}

// CredentialsFromPreferences maps stored user credentials onto the
// servers that read them. Empty fields are omitted.
func CredentialsFromPreferences(c *configstore.Credentials) []Credential {
	if c == nil {
		return nil
	}
	var out []Credential
	add := func(server string, env map[string]string) {
		for k, v := range env {
			if v == "" {
				delete(env, k)
			}
		}
		if len(env) > 0 {
			out = append(out, Credential{Server: server, Env: env})
		}
	}
	add("dokploy", map[string]string{"DOKPLOY_URL": c.DokployURL, "DOKPLOY_API_KEY": c.DokployAPIKey})
	add("neon", map[string]string{"NEON_API_KEY": c.NeonAPIKey})
	add("github", map[string]string{"GITHUB_PERSONAL_ACCESS_TOKEN": c.GitHubToken})
	return out
}

// ValidateCredentials checks URL- and key-shaped values. It runs before any
// install step touches the filesystem.
func ValidateCredentials(creds []Credential) error {
	for _, cred := range creds {
		if strings.TrimSpace(cred.Server) == "" {
			return rerr.WithDetails(rerr.ValidationFailed, "credential has no server name",
				map[string]string{"field": "server"})
		}
		for key, value := range cred.Env {
			var err error
			switch {
			case strings.HasSuffix(key, "_URL"):
				err = validate.URL(value)
			case strings.HasSuffix(key, "_KEY"), strings.HasSuffix(key, "_TOKEN"):
				err = validate.APIKey(value)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// MergeServers overlays bundled entries on existing ones; bundled wins per
// name. Existing entries that the bundle does not name are kept verbatim.
func MergeServers(existing map[string]json.RawMessage, bundled map[string]configstore.ServerEntry) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(existing)+len(bundled))
	for name, raw := range existing {
		out[name] = raw
	}
	for name, entry := range bundled {
		entry.Name = ""
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("encode server %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// InjectCredentials writes credential values into the env map of matching
// servers and returns the servers it could not find.
func InjectCredentials(servers map[string]json.RawMessage, creds []Credential) ([]string, error) {
	var missing []string
	for _, cred := range creds {
		raw, ok := servers[cred.Server]
		if !ok {
			missing = append(missing, cred.Server)
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode server %s: %w", cred.Server, err)
		}
		env, _ := entry["env"].(map[string]any)
		if env == nil {
			env = map[string]any{}
		}
		for k, v := range cred.Env {
			env[k] = v
		}
		entry["env"] = env
		data, err := json.Marshal(entry)
		if err != nil {
			return nil, fmt.Errorf("encode server %s: %w", cred.Server, err)
		}
		servers[cred.Server] = data
	}
	sort.Strings(missing)
	return missing, nil
}

// mergeServers backs up the client file and then rewrites it with the
// merged registry. The backup and the write happen back to back.
func (e *Engine) mergeServers(creds []Credential) ([]string, bool, error) {
	resolver := e.Store.Paths()
	bundled, err := e.Store.LoadBundledServers(resolver.ServerRegistryFile())
	if err != nil {
		return nil, false, err
	}
	cfg, err := e.Store.LoadClientConfig()
	if err != nil {
		return nil, false, err
	}
	merged, err := MergeServers(cfg.Servers, bundled)
	if err != nil {
		return nil, false, err
	}
	missing, err := InjectCredentials(merged, creds)
	if err != nil {
		return nil, false, err
	}
	for _, name := range missing {
		clog.OrDiscard(e.Logger).Warn("credentials given for unknown server", "server", name)
	}
	cfg.Servers = merged

	clientFile := resolver.ClientConfigFile()
	backedUp, err := fileutil.Backup(clientFile, paths.BackupPath(clientFile))
	if err != nil {
		return nil, false, rerr.Wrap(rerr.PathInaccessible, "back up "+clientFile, err)
	}
	if err := e.Store.SaveClientConfig(cfg); err != nil {
		return nil, backedUp, err
	}
	return slices.Sorted(maps.Keys(merged)), backedUp, nil
}
