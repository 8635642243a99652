package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/rapids-dev/rapids/internal/stack"
	"github.com/rapids-dev/rapids/internal/validate"
)

// preferenceKey is one settable entry of the user preferences file.
type preferenceKey struct {
	Name   string
	Secret bool
	Get    func(p *configstore.UserPreferences) string
	Set    func(p *configstore.UserPreferences, value string) error
}

func credentials(p *configstore.UserPreferences) *configstore.Credentials {
	if p.Credentials == nil {
		p.Credentials = &configstore.Credentials{}
	}
	return p.Credentials
}

func savedCredential(p *configstore.UserPreferences, pick func(*configstore.Credentials) string) string {
	if p.Credentials == nil {
		return ""
	}
	return pick(p.Credentials)
}

var preferenceKeys = []preferenceKey{
	{
		Name: "defaultPackageManager",
		Get:  func(p *configstore.UserPreferences) string { return string(p.Preferences.DefaultPackageManager) },
		Set: func(p *configstore.UserPreferences, value string) error {
			pm, err := stack.ParsePackageManager(value)
			if err != nil {
				return rerr.Wrap(rerr.ValidationFailed, "defaultPackageManager", err)
			}
			p.Preferences.DefaultPackageManager = pm
			return nil
		},
	},
	{
		Name: "defaultStack",
		Get:  func(p *configstore.UserPreferences) string { return p.Preferences.DefaultStack },
		Set: func(p *configstore.UserPreferences, value string) error {
			preset, ok := stack.LookupPreset(value)
			if !ok {
				return rerr.Newf(rerr.ValidationFailed, "defaultStack must be one of %s", strings.Join(stack.PresetNames(), ", "))
			}
			p.Preferences.DefaultStack = preset.Name
			return nil
		},
	},
	{
		Name: "autoCleanup",
		Get: func(p *configstore.UserPreferences) string {
			if p.Preferences.AutoCleanup == nil {
				return ""
			}
			return strconv.FormatBool(*p.Preferences.AutoCleanup)
		},
		Set: func(p *configstore.UserPreferences, value string) error {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return rerr.Newf(rerr.ValidationFailed, "autoCleanup must be true or false, got %q", value)
			}
			p.Preferences.AutoCleanup = &b
			return nil
		},
	},
	{
		Name: "dokployUrl",
		Get: func(p *configstore.UserPreferences) string {
			return savedCredential(p, func(c *configstore.Credentials) string { return c.DokployURL })
		},
		Set: func(p *configstore.UserPreferences, value string) error {
			if err := validate.URL(value); err != nil {
				return err
			}
			credentials(p).DokployURL = value
			return nil
		},
	},
	{
		Name:   "dokployApiKey",
		Secret: true,
		Get: func(p *configstore.UserPreferences) string {
			return savedCredential(p, func(c *configstore.Credentials) string { return c.DokployAPIKey })
		},
		Set: func(p *configstore.UserPreferences, value string) error {
			if err := validate.APIKey(value); err != nil {
				return err
			}
			credentials(p).DokployAPIKey = value
			return nil
		},
	},
	{
		Name:   "neonApiKey",
		Secret: true,
		Get: func(p *configstore.UserPreferences) string {
			return savedCredential(p, func(c *configstore.Credentials) string { return c.NeonAPIKey })
		},
		Set: func(p *configstore.UserPreferences, value string) error {
			if err := validate.APIKey(value); err != nil {
				return err
			}
			credentials(p).NeonAPIKey = value
			return nil
		},
	},
	{
		Name:   "githubToken",
		Secret: true,
		Get: func(p *configstore.UserPreferences) string {
			return savedCredential(p, func(c *configstore.Credentials) string { return c.GitHubToken })
		},
		Set: func(p *configstore.UserPreferences, value string) error {
			if err := validate.APIKey(value); err != nil {
				return err
			}
			credentials(p).GitHubToken = value
			return nil
		},
	},
}

func lookupPreferenceKey(name string) (preferenceKey, error) {
	for _, key := range preferenceKeys {
		if strings.EqualFold(key.Name, name) {
			return key, nil
		}
	}
	names := make([]string, len(preferenceKeys))
	for i, key := range preferenceKeys {
		names[i] = key.Name
	}
	return preferenceKey{}, rerr.WithDetails(rerr.ValidationFailed,
		fmt.Sprintf("unknown config key %q (keys: %s)", name, strings.Join(names, ", ")),
		map[string]string{"field": "key"})
}

// maskSecret keeps the first four characters of a credential.
func maskSecret(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", 8)
}

func RunConfigGet(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	prefs, err := rt.Store.LoadUserPreferences()
	if err != nil {
		return err
	}

	keys := preferenceKeys
	if len(args) > 0 {
		key, err := lookupPreferenceKey(args[0])
		if err != nil {
			return err
		}
		keys = []preferenceKey{key}
	}
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		value := key.Get(prefs)
		if key.Secret && value != "" {
			value = maskSecret(value)
		}
		values[key.Name] = value
	}
	if asJSON {
		return fileutil.PrintJSON(values)
	}
	if len(args) > 0 {
		fmt.Println(values[keys[0].Name])
		return nil
	}
	for _, key := range keys {
		fmt.Printf("%s=%s\n", key.Name, values[key.Name])
	}
	return nil
}

func RunConfigSet(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return rerr.New(rerr.ValidationFailed, "usage: rapids config set <key> <value>")
	}
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	key, err := lookupPreferenceKey(args[0])
	if err != nil {
		return err
	}
	prefs, err := rt.Store.LoadUserPreferences()
	if err != nil {
		return err
	}
	if err := key.Set(prefs, strings.TrimSpace(args[1])); err != nil {
		return err
	}
	if err := rt.Store.SaveUserPreferences(prefs); err != nil {
		return err
	}
	fmt.Printf("%s updated in %s\n", key.Name, rt.Paths.UserPreferencesFile())
	return nil
}

func RunConfigPath(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	fmt.Println(rt.Paths.UserPreferencesFile())
	return nil
}
