// Package indexer walks a repository, parses supported source files
// and persists files, symbols and (optionally) embeddings through the
// store. Unchanged files are skipped via a hash manifest so repeat
// runs only pay for what actually changed.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"repolens/internal/config"
	"repolens/internal/embedding"
	"repolens/internal/logging"
	"repolens/internal/parser"
	"repolens/internal/store"
)

// Indexer drives the indexing pipeline for one repository root.
type Indexer struct {
	root     string
	cfg      config.IndexerConfig
	rules    *IgnoreRules
	registry *parser.Registry
	store    *store.Store
	engine   embedding.Engine // nil disables the embedding stage
}

// New creates an Indexer for the given root. engine may be nil.
func New(root string, cfg config.IndexerConfig, st *store.Store, engine embedding.Engine) *Indexer {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 2 * 1024 * 1024
	}
	return &Indexer{
		root:     root,
		cfg:      cfg,
		rules:    NewIgnoreRules(cfg.IgnoreDirs),
		registry: parser.DefaultRegistry(root),
		store:    st,
		engine:   engine,
	}
}

// Registry exposes the parser registry (the watcher shares it).
func (ix *Indexer) Registry() *parser.Registry {
	return ix.registry
}

// Report summarizes one indexing run.
type Report struct {
	RunID          string
	Root           string
	Duration       time.Duration
	FilesSeen      int
	FilesIndexed   int
	FilesUnchanged int
	FilesSkipped   int
	ParseErrors    int
	Symbols        int
	Languages      map[string]int // language -> indexed file count
}

// Run walks the root and indexes everything that needs it.
func (ix *Indexer) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:     uuid.NewString(),
		Root:      ix.root,
		Languages: make(map[string]int),
	}

	logging.Index("Indexing run %s starting at %s", report.RunID, ix.root)

	cache := NewFileCache(ix.root)
	defer cache.Save()

	// Collect candidates first; parse work happens in the pool below.
	var candidates []string
	err := filepath.Walk(ix.root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}
		if info.IsDir() {
			// The root is always walked, whatever it happens to be named
			if path != ix.root && ix.rules.SkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		report.FilesSeen++
		if ix.rules.SkipFile(info.Name()) || info.Size() > ix.cfg.MaxFileSize {
			report.FilesSkipped++
			return nil
		}
		candidates = append(candidates, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk failed: %w", err)
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Workers)

	for _, path := range candidates {
		path := path
		g.Go(func() error {
			res, err := ix.indexOne(gctx, path, cache)
			if err != nil {
				// Per-file failures are logged and counted, not fatal:
				// one unreadable file must not abort the run.
				logging.Get(logging.CategoryIndex).Warn("Failed to index %s: %v", path, err)
				mu.Lock()
				report.ParseErrors++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			switch res.status {
			case fileUnchanged:
				report.FilesUnchanged++
			case fileSkipped:
				report.FilesSkipped++
			case fileIndexed:
				report.FilesIndexed++
				report.Symbols += res.symbols
				report.Languages[res.lang]++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	logging.Index("Indexing run %s finished: %d indexed, %d unchanged, %d skipped, %d symbols in %v",
		report.RunID, report.FilesIndexed, report.FilesUnchanged, report.FilesSkipped,
		report.Symbols, report.Duration)
	return report, nil
}

type fileStatus int

const (
	fileIndexed fileStatus = iota
	fileUnchanged
	fileSkipped
)

type fileResult struct {
	status  fileStatus
	lang    string
	symbols int
}

// indexOne processes a single candidate file.
func (ix *Indexer) indexOne(ctx context.Context, path string, cache *FileCache) (*fileResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	hash, hit := cache.Get(path, info)
	if !hit {
		hash, err = hashFile(path)
		if err != nil {
			return nil, err
		}
		cache.Update(path, info, hash)
	}

	stored, err := ix.store.FileHash(path)
	if err != nil {
		return nil, err
	}
	if stored == hash {
		return &fileResult{status: fileUnchanged}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsBinary(content) {
		return &fileResult{status: fileSkipped}, nil
	}

	lang := parser.DetectLanguage(path)
	if err := ix.store.UpsertFile(store.FileRecord{
		Path:    path,
		Lang:    lang,
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
		Hash:    hash,
	}); err != nil {
		return nil, err
	}

	if !ix.registry.Supports(path) {
		// Tracked for freshness, but nothing to parse
		return &fileResult{status: fileIndexed, lang: lang}, nil
	}

	symbols, annotations, err := ix.registry.ParseWithAnnotations(path, content)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}

	if err := ix.store.ReplaceSymbols(path, symbols, annotations); err != nil {
		return nil, err
	}

	if ix.engine != nil {
		if err := ix.embedSymbols(ctx, symbols); err != nil {
			// Embedding failures degrade search quality but must not
			// lose the structural index
			logging.Get(logging.CategoryIndex).Warn("Embedding stage failed for %s: %v", path, err)
		}
	}

	return &fileResult{status: fileIndexed, lang: lang, symbols: len(symbols)}, nil
}

// embedSymbols embeds the snippet of each symbol and stores the vectors.
func (ix *Indexer) embedSymbols(ctx context.Context, symbols []parser.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}

	texts := make([]string, len(symbols))
	for i, sym := range symbols {
		texts[i] = embedText(sym)
	}

	vecs, err := ix.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("engine returned %d vectors for %d texts", len(vecs), len(texts))
	}

	for i, sym := range symbols {
		meta := map[string]interface{}{
			"kind":     string(sym.Kind),
			"language": sym.Language,
			"file":     sym.File,
			"line":     sym.StartLine,
		}
		if err := ix.store.UpsertVector(sym.Ref, texts[i], vecs[i], meta); err != nil {
			return err
		}
	}
	return nil
}

// embedText builds the text embedded for a symbol: the signature plus a
// bounded slice of the body, enough context without blowing up token
// budgets on huge functions.
func embedText(sym parser.Symbol) string {
	const maxBody = 2000
	body := sym.Body
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return sym.Signature + "\n" + body
}

// IndexFile indexes a single path (the watcher's entry point).
func (ix *Indexer) IndexFile(ctx context.Context, path string) error {
	cache := NewFileCache(ix.root)
	defer cache.Save()

	res, err := ix.indexOne(ctx, path, cache)
	if err != nil {
		return err
	}
	logging.IndexDebug("IndexFile %s: status=%d symbols=%d", path, res.status, res.symbols)
	return nil
}

// RemoveFile drops a deleted path from the index.
func (ix *Indexer) RemoveFile(path string) error {
	cache := NewFileCache(ix.root)
	cache.Forget(path)
	defer cache.Save()

	return ix.store.DeleteFile(path)
}

// hashFile returns the sha256 hex digest of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
