package content

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"tamilstream/config"
)

// Open builds the repository selected by settings. The backend is fixed for the life of
// the process.
func Open(ctx context.Context, settings config.StorageSettings) (Repository, error) {
	switch settings.Backend {
	case config.StorageBackendMemory, "":
		return NewMemoryStore(nil, nil), nil
	case config.StorageBackendJSON:
		return NewJSONStore(afero.NewOsFs(), settings.Path)
	case config.StorageBackendSQLite:
		return OpenSQLStore(ctx, DialectSQLite, settings.Path)
	case config.StorageBackendPostgres:
		return OpenSQLStore(ctx, DialectPostgres, settings.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", settings.Backend)
	}
}
