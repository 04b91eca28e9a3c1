// Package bundle describes how the front-end asset tree is emitted into the
// directory the serving binary embeds, and the dev-server proxy and alias
// rules that go with it.
package bundle

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Config mirrors the front-end build settings. It is read once at startup.
type Config struct {
	Plugins []string `koanf:"plugins" json:"plugins"`

	// Base is the public path the bundle is served under.
	Base string `koanf:"base" json:"base"`

	// OutDir receives the emitted files. The web host embeds this directory,
	// so it must stay in sync with internal/web.
	OutDir      string `koanf:"out_dir" json:"out_dir"`
	AssetsDir   string `koanf:"assets_dir" json:"assets_dir"`
	Sourcemap   bool   `koanf:"sourcemap" json:"sourcemap"`
	EmptyOutDir bool   `koanf:"empty_out_dir" json:"empty_out_dir"`
	Target      string `koanf:"target" json:"target"`

	Server ServerConfig `koanf:"server" json:"server"`

	// Alias maps an import prefix to a source directory, e.g. "@" -> "./src".
	Alias map[string]string `koanf:"alias" json:"alias"`
}

// ServerConfig holds the dev server settings.
type ServerConfig struct {
	Port int `koanf:"port" json:"port"`

	// Proxy maps a path prefix to the origin requests are forwarded to.
	Proxy map[string]string `koanf:"proxy" json:"proxy"`
}

// ProxyRule is one entry of ServerConfig.Proxy.
type ProxyRule struct {
	Prefix string
	Target string
}

// Defaults.
const (
	DefaultBase      = "/"
	DefaultOutDir    = "internal/web/dist"
	DefaultAssetsDir = "assets"
	DefaultTarget    = "es2017"
	DefaultPort      = 5173
	DefaultAPIPrefix = "/api"
	DefaultAPITarget = "http://localhost:8080"
)

// Default returns the build configuration the project ships with.
func Default() Config {
	return Config{
		Plugins:     []string{"vue", "vue-devtools"},
		Base:        DefaultBase,
		OutDir:      DefaultOutDir,
		AssetsDir:   DefaultAssetsDir,
		Sourcemap:   false,
		EmptyOutDir: true,
		Target:      DefaultTarget,
		Server: ServerConfig{
			Port:  DefaultPort,
			Proxy: map[string]string{DefaultAPIPrefix: DefaultAPITarget},
		},
		Alias: map[string]string{"@": "./src"},
	}
}

// Validate reports the first problem found, wrapped in ErrInvalid.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.Base, "/") {
		return fmt.Errorf("%w: base %q must start with /", ErrInvalid, c.Base)
	}
	if strings.TrimSpace(c.OutDir) == "" {
		return fmt.Errorf("%w: out_dir must not be empty", ErrInvalid)
	}
	if c.AssetsDir == "" || filepath.IsAbs(c.AssetsDir) || hasDotDot(c.AssetsDir) {
		return fmt.Errorf("%w: assets_dir %q must be a relative path inside out_dir", ErrInvalid, c.AssetsDir)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	}
	for prefix, target := range c.Server.Proxy {
		if !strings.HasPrefix(prefix, "/") {
			return fmt.Errorf("%w: proxy prefix %q must start with /", ErrInvalid, prefix)
		}
		u, err := url.Parse(target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: proxy target %q for %s must be an absolute http(s) URL", ErrInvalid, target, prefix)
		}
	}
	for from := range c.Alias {
		if from == "" {
			return fmt.Errorf("%w: empty alias", ErrInvalid)
		}
	}
	return nil
}

// ResolveAlias rewrites p using the longest matching alias. An alias matches
// the whole path or a leading path segment. Paths with no alias are returned
// unchanged.
func (c Config) ResolveAlias(p string) string {
	best := ""
	for from := range c.Alias {
		if (p == from || strings.HasPrefix(p, from+"/")) && len(from) > len(best) {
			best = from
		}
	}
	if best == "" {
		return p
	}
	return c.Alias[best] + p[len(best):]
}

// MatchProxy returns the rule with the longest prefix of p. Prefixes match
// as plain string prefixes, the way the dev server compares them.
func (c Config) MatchProxy(p string) (ProxyRule, bool) {
	var (
		rule ProxyRule
		ok   bool
	)
	for prefix, target := range c.Server.Proxy {
		if strings.HasPrefix(p, prefix) && len(prefix) > len(rule.Prefix) {
			rule = ProxyRule{Prefix: prefix, Target: target}
			ok = true
		}
	}
	return rule, ok
}

// ProxyRules returns the proxy table ordered by prefix.
func (c Config) ProxyRules() []ProxyRule {
	rules := make([]ProxyRule, 0, len(c.Server.Proxy))
	for prefix, target := range c.Server.Proxy {
		rules = append(rules, ProxyRule{Prefix: prefix, Target: target})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Prefix < rules[j].Prefix })
	return rules
}

// AssetPath returns the URL path assets are served under, e.g. "/assets/".
func (c Config) AssetPath() string {
	return path.Join(c.Base, c.AssetsDir) + "/"
}

func hasDotDot(p string) bool {
	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}
