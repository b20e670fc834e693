package asset

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// TextureCache decodes each texture file once and shares the image afterwards.
// It is safe for concurrent use.
type TextureCache struct {
	dir string

	mu     sync.Mutex
	images map[string]image.Image
}

func NewTextureCache(dir string) *TextureCache {
	return &TextureCache{
		dir:    dir,
		images: make(map[string]image.Image),
	}
}

// Get returns the decoded texture, reading it from disk on first use.
func (c *TextureCache) Get(name string) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.images[name]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	img, err := decodeFile(filepath.Join(c.dir, filepath.FromSlash(name)))
	if err != nil {
		return nil, errors.Wrapf(err, "texture %s", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.images[name]; ok {
		return prev, nil
	}
	c.images[name] = img
	return img, nil
}

// Warm decodes the named textures concurrently. The first failure is returned; textures
// that decoded before it stay cached.
func (c *TextureCache) Warm(ctx context.Context, names ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.Get(name)
			return err
		})
	}
	return g.Wait()
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	return img, nil
}
