package canvas

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/matzehuels/sketchcanvas/pkg/config"
)

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile, "":
		dir := cfg.Dir
		if dir == "" {
			data, err := config.DataDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(data, "canvases")
		}
		return NewFileStore(dir)
	case config.BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL)
	case config.BackendMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
