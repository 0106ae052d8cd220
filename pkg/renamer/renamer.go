package renamer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/logger"
)

// DefaultMaxSuffix 冲突后缀的上限，超过后放弃重命名
const DefaultMaxSuffix = 10000

type Renamer struct {
	fs        afero.Fs
	maxSuffix int
	dryRun    bool

	// 预览模式下模拟的目录状态：claimed 是已分配的目标，vacated 是已让出的路径
	claimed map[string]bool
	vacated map[string]bool
}

type Option func(*Renamer)

// WithDryRun 只计算目标路径，不实际重命名
func WithDryRun(dryRun bool) Option {
	return func(r *Renamer) { r.dryRun = dryRun }
}

func WithMaxSuffix(n int) Option {
	return func(r *Renamer) { r.maxSuffix = n }
}

func NewRenamer(fs afero.Fs, opts ...Option) *Renamer {
	r := &Renamer{
		fs:        fs,
		maxSuffix: DefaultMaxSuffix,
		claimed:   make(map[string]bool),
		vacated:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Vacate 预览模式下把 paths 视为已删除，例如尚未真正删除的重复文件
func (r *Renamer) Vacate(paths ...string) {
	for _, p := range paths {
		r.vacated[p] = true
		delete(r.claimed, p)
	}
}

func (r *Renamer) occupied(path string) (bool, error) {
	if r.claimed[path] {
		return true, nil
	}
	if r.vacated[path] {
		return false, nil
	}
	return afero.Exists(r.fs, path)
}

// Resolve 在原文件所在目录中为 name 选择一个未被占用的路径，保留原扩展名
// name 已存在时依次尝试 name_1、name_2 ...
// 如果候选路径就是文件自身，直接返回原路径（重复运行不会改名）
func (r *Renamer) Resolve(path, name string) (string, error) {
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)

	candidate := filepath.Join(dir, name+ext)
	for counter := 1; ; counter++ {
		if candidate == path {
			return path, nil
		}

		exists, err := r.occupied(candidate)
		if err != nil {
			return "", fmt.Errorf("%w: 检查目标文件失败: %w", internal.ErrRename, err)
		}
		if !exists {
			return candidate, nil
		}

		if counter > r.maxSuffix {
			return "", fmt.Errorf("%w: 无法生成唯一文件名，已尝试 %d 次", internal.ErrRename, r.maxSuffix)
		}

		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, counter, ext))
	}
}

// Rename 把 path 重命名为 Resolve 得到的路径
// 检查和重命名之间如果目标被其他进程创建，返回 ErrRename，原文件和目标文件都保持不变，不做重试
func (r *Renamer) Rename(path, name string) (string, error) {
	target, err := r.Resolve(path, name)
	if err != nil {
		return "", err
	}

	if target == path {
		logger.Get().Debug().Msgf("文件名未变化: %s", path)
		return path, nil
	}

	if r.dryRun {
		r.claimed[target] = true
		r.Vacate(path)
		logger.Get().Info().Msgf("预览重命名: %s -> %s", path, target)
		return target, nil
	}

	if err := r.move(path, target); err != nil {
		return "", fmt.Errorf("%w: %s -> %s: %w", internal.ErrRename, path, target, err)
	}

	logger.Get().Debug().Msgf("重命名: %s -> %s", path, target)
	return target, nil
}

// move 重命名文件，目标已存在时返回 fs.ErrExist，不覆盖
// 真实文件系统上先建硬链接再删除源文件，链接在目标存在时由内核拒绝；
// 文件系统不支持硬链接时退化为检查后重命名
func (r *Renamer) move(src, dst string) error {
	if _, ok := r.fs.(*afero.OsFs); ok {
		err := os.Link(src, dst)
		if err == nil {
			if err := os.Remove(src); err != nil {
				_ = os.Remove(dst)
				return err
			}
			return nil
		}
		if errors.Is(err, fs.ErrExist) {
			return err
		}
		logger.Get().Debug().Err(err).Msgf("不支持硬链接，改用重命名: %s", src)
	}

	exists, err := afero.Exists(r.fs, dst)
	if err != nil {
		return err
	}
	if exists {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
	}
	return r.fs.Rename(src, dst)
}
