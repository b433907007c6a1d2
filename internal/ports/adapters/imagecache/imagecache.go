// Package imagecache memoizes generated images so repeated scene prompts
// across runs skip the remote generator.
package imagecache

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/forPelevin/storyreel/internal/ports"
)

const (
	DefaultTTL      = 30 * time.Minute
	cleanupInterval = time.Hour
)

type Generator struct {
	next  ports.ImageGenerator
	store *cache.Cache
}

func New(next ports.ImageGenerator, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{next: next, store: cache.New(ttl, cleanupInterval)}
}

func (g *Generator) GenerateImage(ctx context.Context, prompt string, width, height int, outPath string) error {
	key := cacheKey(prompt, width, height)
	if v, ok := g.store.Get(key); ok {
		return os.WriteFile(outPath, v.([]byte), 0o644)
	}
	if err := g.next.GenerateImage(ctx, prompt, width, height, outPath); err != nil {
		return err
	}
	b, err := os.ReadFile(outPath)
	if err != nil {
		// The generator claimed success; let the caller's existence check decide.
		return nil
	}
	g.store.SetDefault(key, b)
	return nil
}

func (g *Generator) size() int { return g.store.ItemCount() }

func cacheKey(prompt string, width, height int) string {
	return fmt.Sprintf("%dx%d|%s", width, height, prompt)
}
