// Package pipeline 按顺序执行去重和重命名两个阶段。
//
// 状态: Idle → Deduplicating（可选）→ Renaming（可选）→ Done。
// 去重阶段完整结束后才开始重命名，重命名阶段重新枚举文件，
// 因此不会对已删除的重复文件做任何操作，重命名后的文件也不会逃过去重。
//
// 单个文件的失败（读取、删除、提取、生成、重命名）只影响该文件，
// 记录到统计信息中后继续处理下一个文件，不做重试。
package pipeline
