package util

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// WalkFunc processes one file. worker identifies the goroutine calling it,
// in [0, numThreads), so callers can keep per-worker state without locking.
type WalkFunc func(worker int, path string) error

// SkipFunc reports whether path should be ignored. Skipped directories are
// not descended into.
type SkipFunc func(path string, isDir bool) bool

// WalkDirTree walks root and fans regular files out to numThreads workers.
// Errors returned by walkFn are logged and do not stop the walk. gcThreshold
// forces a GC every gcThreshold files when positive.
func WalkDirTree(ctx context.Context, root string, walkFn WalkFunc, skipPath SkipFunc, logger *zap.Logger, gcThreshold int64, numThreads int) error {
	if numThreads <= 0 {
		numThreads = 1
	}

	var processedCount atomic.Int64
	workQueue := make(chan string, numThreads*2)
	var wg sync.WaitGroup

	for i := 0; i < numThreads; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for path := range workQueue {
				n := processedCount.Add(1)

				if gcThreshold > 0 && n%gcThreshold == 0 {
					logger.Info("WalkDirTree - Triggering GC after processing files",
						zap.Int64("files_processed", n))
					runtime.GC()
				}

				if err := walkFn(worker, path); err != nil {
					logger.Error("WalkDirTree - Failed to process file", zap.String("path", path), zap.Error(err))
				}
			}
		}(i)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("WalkDirTree - Cannot access path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if path != root && skipPath != nil && skipPath(path, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if skipPath != nil && skipPath(path, false) {
			return nil
		}

		select {
		case workQueue <- path:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(workQueue)

	wg.Wait()

	return err
}
