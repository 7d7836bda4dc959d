package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/fwojciec/csvstory"
)

// Compile-time interface verification.
var _ csvstory.Backend = (*CachingBackend)(nil)

// CachingBackend wraps a Backend with file-based caching of Analyze results.
// Analysis depends only on the uploaded bytes and the form fields, so the
// same request is answered from disk. Generation requests always go to the
// backend because they write fresh images.
type CachingBackend struct {
	csvstory.Backend
	cacheDir string
}

// NewCachingBackend creates a caching wrapper around inner.
func NewCachingBackend(inner csvstory.Backend, cacheDir string) *CachingBackend {
	return &CachingBackend{
		Backend:  inner,
		cacheDir: cacheDir,
	}
}

// Analyze returns a cached analysis or delegates to the wrapped backend.
func (c *CachingBackend) Analyze(ctx context.Context, p csvstory.Payload) (*csvstory.AnalysisResult, error) {
	hash := c.hashPayload(p)

	if cached, err := c.loadFromCache(hash); err == nil {
		return cached, nil
	}

	result, err := c.Backend.Analyze(ctx, p)
	if err != nil {
		return nil, err
	}

	// Store in cache (best-effort)
	_ = c.saveToCache(hash, result)

	return result, nil
}

func (c *CachingBackend) hashPayload(p csvstory.Payload) string {
	h := sha256.New()
	h.Write([]byte(p.File.Name))
	h.Write([]byte{0})
	h.Write(p.File.Data)
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range p.Fields[k] {
			h.Write([]byte{0})
			h.Write([]byte(k + "=" + v))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachingBackend) cachePath(hash string) string {
	return filepath.Join(c.cacheDir, "analysis", hash+".json")
}

func (c *CachingBackend) loadFromCache(hash string) (*csvstory.AnalysisResult, error) {
	data, err := os.ReadFile(c.cachePath(hash))
	if err != nil {
		return nil, err
	}

	var result csvstory.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *CachingBackend) saveToCache(hash string, result *csvstory.AnalysisResult) error {
	path := c.cachePath(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
