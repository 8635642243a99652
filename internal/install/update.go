package install

import (
	"context"

	"github.com/rapids-dev/rapids/internal/archive"
	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/rerr"
)

type UpdateResult struct {
	Source          string  `json:"source"`
	PreviousVersion string  `json:"previous_version,omitempty"`
	Version         string  `json:"version,omitempty"`
	Install         *Result `json:"install"`
}

// Update downloads the latest release and installs its configuration tree
// over the current one. Local overrides survive because the copy step
// never writes them.
func (e *Engine) Update(ctx context.Context, f archive.Fetcher, opts Options) (*UpdateResult, error) {
	if !e.Store.IsInstalled() {
		return nil, rerr.New(rerr.NotInstalled, "rapids is not installed; run `rapids install` first")
	}
	out := &UpdateResult{
		Source:          f.Source(),
		PreviousVersion: archive.ReadVersion(e.Store.Paths().MethodFile()),
	}

	rel, err := archive.Download(ctx, f)
	if err != nil {
		return out, rerr.Wrap(rerr.PathInaccessible, "download "+f.Source(), err)
	}
	defer func() {
		if cerr := rel.Close(); cerr != nil {
			clog.OrDiscard(e.Logger).Warn("temp dir not removed", "dir", rel.Dir, clog.Err(cerr))
		}
	}()
	out.Version = rel.Version

	opts.SourceDir = rel.ConfigDir()
	out.Install, err = e.Run(ctx, opts)
	return out, err
}
