package internal

import (
	"fmt"
	"time"
)

// 处理阶段
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseDedup  Phase = "deduplicating"
	PhaseRename Phase = "renaming"
	PhaseDone   Phase = "done"
)

// FileError 单个文件处理失败的记录
type FileError struct {
	Path  string
	Phase Phase
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Phase, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// 跳过记录（不是错误，例如提取到空文本）
type SkippedFile struct {
	Path   string
	Reason string
}

// 重命名记录
type RenameRecord struct {
	From string
	To   string
}

// 处理统计
type ProcessStats struct {
	TotalScanned int
	Unique       int
	Duplicates   int
	Deleted      int
	FreedSpace   int64

	RenameCandidates int
	Ignored          int
	Renamed          int
	Unchanged        int

	Renames  []RenameRecord
	Skipped  []SkippedFile
	Failures []*FileError

	StartTime time.Time
	EndTime   time.Time
}

// Failed 返回失败文件数
func (s *ProcessStats) Failed() int {
	return len(s.Failures)
}
