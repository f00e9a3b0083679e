package nas

import (
	"context"
	"fmt"

	"github.com/reefctl-io/reefctl/internal/appdef"
	"github.com/reefctl-io/reefctl/internal/logging"
)

// FetchDeployed queries the platform once for the full deployed inventory:
// the application list plus each application's current config snapshot.
// Any failure aborts the fetch; diffing against a partial inventory would
// misclassify everything missing from it as CREATE.
func FetchDeployed(ctx context.Context, api API) (map[string]*appdef.RemoteApp, error) {
	entries, err := api.QueryApps(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployed apps: %w", err)
	}

	remote := make(map[string]*appdef.RemoteApp, len(entries))
	for _, entry := range entries {
		cfg, err := api.AppConfig(ctx, entry.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch config for app %s: %w", entry.Name, err)
		}
		remote[entry.Name] = &appdef.RemoteApp{
			Name:   entry.Name,
			ID:     entry.ID,
			State:  entry.State,
			Config: appdef.NormalizeMap(cfg),
		}
	}
	logging.Debug("fetched deployed inventory", "apps", len(remote))
	return remote, nil
}
