package internal

import "errors"

// 错误分类，通过 errors.Is 判断
var (
	ErrRead          = errors.New("读取文件失败")
	ErrDelete        = errors.New("删除文件失败")
	ErrExtraction    = errors.New("提取文本失败")
	ErrGeneration    = errors.New("生成名称失败")
	ErrRename        = errors.New("重命名失败")
	ErrConfiguration = errors.New("配置错误")
)
