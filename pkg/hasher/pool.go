package hasher

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/moyu-x/files-filter/pkg/logger"
)

type HashResult struct {
	Path        string
	Fingerprint Fingerprint
	Error       error
}

// HashAll 计算一组文件的指纹，结果顺序与 paths 一致
// workers <= 1 时在当前 goroutine 中顺序计算，否则使用 goroutine 池
// ctx 被取消后不再开始新的文件，返回 ctx.Err()
func (h *Hasher) HashAll(ctx context.Context, paths []string, workers int) ([]HashResult, error) {
	results := make([]HashResult, len(paths))

	if workers <= 1 || len(paths) < 2 {
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			fp, err := h.Hash(path)
			results[i] = HashResult{Path: path, Fingerprint: fp, Error: err}
		}
		return results, nil
	}

	logger.Get().Debug().Msgf("创建哈希计算池，工作线程数: %d", workers)

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		i, path := i, path
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i] = HashResult{Path: path, Error: err}
				return
			}
			fp, err := h.Hash(path)
			results[i] = HashResult{Path: path, Fingerprint: fp, Error: err}
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			results[i] = HashResult{Path: path, Error: err}
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
