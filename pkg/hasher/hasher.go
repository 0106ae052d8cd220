package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"

	"github.com/moyu-x/files-filter/internal"
	"github.com/moyu-x/files-filter/pkg/logger"
)

// Algorithm 指纹算法
type Algorithm string

const (
	// SHA256 默认算法，密码学哈希
	SHA256 Algorithm = "sha256"
	// XXHash 非密码学哈希，速度快，仅适用于可信目录
	XXHash Algorithm = "xxhash"
)

// Fingerprint 文件完整内容的十六进制摘要
type Fingerprint string

// Short 返回用于日志展示的短指纹
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

type Hasher struct {
	fs        afero.Fs
	algorithm Algorithm
	chunkSize int
}

// ParseAlgorithm 解析配置中的算法名称，空字符串使用 SHA256
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", SHA256:
		return SHA256, nil
	case XXHash:
		return XXHash, nil
	default:
		return "", fmt.Errorf("%w: 不支持的哈希算法: %s", internal.ErrConfiguration, name)
	}
}

func New(fs afero.Fs, algorithm Algorithm) *Hasher {
	if algorithm == "" {
		algorithm = SHA256
	}
	return &Hasher{
		fs:        fs,
		algorithm: algorithm,
		chunkSize: internal.DefaultChunkSize,
	}
}

func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

func (h *Hasher) newDigest() hash.Hash {
	if h.algorithm == XXHash {
		return xxhash.New()
	}
	return sha256.New()
}

// HashReader 按固定大小的块读取整个流并计算指纹，内存占用与文件大小无关
func (h *Hasher) HashReader(r io.Reader) (Fingerprint, error) {
	digest := h.newDigest()
	buf := make([]byte, h.chunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return Fingerprint(hex.EncodeToString(digest.Sum(nil))), nil
}

// Hash 计算文件指纹
func (h *Hasher) Hash(path string) (Fingerprint, error) {
	logger.Get().Trace().Msgf("计算文件哈希: %s", path)

	file, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", internal.ErrRead, err)
	}
	defer file.Close()

	fp, err := h.HashReader(file)
	if err != nil {
		return "", fmt.Errorf("%w: %w", internal.ErrRead, err)
	}

	logger.Get().Trace().Msgf("文件哈希计算完成: %s -> %s", path, fp)
	return fp, nil
}
