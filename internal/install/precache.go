package install

import (
	"context"
	"log/slog"
	"maps"
	"os/exec"
	"slices"
	"time"

	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/configstore"
)

// PrecacheTimeout bounds each package download.
const PrecacheTimeout = 30 * time.Second

// Precacher warms the package cache for one tool-server package.
type Precacher interface {
	Precache(ctx context.Context, pkg string) error
}

// ExecPrecacher runs `npx -y <pkg>@latest --help`.
type ExecPrecacher struct{}

func (ExecPrecacher) Precache(ctx context.Context, pkg string) error {
	cmd := exec.CommandContext(ctx, "npx", "-y", pkg+"@latest", "--help")
	return cmd.Run()
}

type PrecacheResult struct {
	Server   string        `json:"server"`
	Package  string        `json:"package"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// RunPrecache warms every server with an installable package, one at a
// time. A failure is recorded and the loop continues.
func RunPrecache(ctx context.Context, p Precacher, servers map[string]configstore.ServerEntry, logger *slog.Logger) []PrecacheResult {
	log := clog.OrDiscard(logger)
	var results []PrecacheResult
	for _, name := range slices.Sorted(maps.Keys(servers)) {
		entry := servers[name]
		pkg := entry.PackageRef()
		if pkg == "" || entry.Disabled {
			continue
		}
		if ctx.Err() != nil {
			results = append(results, PrecacheResult{Server: name, Package: pkg, Err: ctx.Err().Error()})
			continue
		}
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, PrecacheTimeout)
		err := p.Precache(stepCtx, pkg)
		cancel()

		r := PrecacheResult{Server: name, Package: pkg, Duration: time.Since(start)}
		if err != nil {
			r.Err = err.Error()
			log.Warn("precache failed", "server", name, "package", pkg, clog.Err(err))
		}
		results = append(results, r)
	}
	return results
}
