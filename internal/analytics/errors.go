package analytics

import "errors"

var (
	// ErrInvalidInput 表示输入违反调用契约，例如空序列或窗口集合不对齐。
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData 表示有效数据不足以完成整表计算。
	// 单个窗口的数据不足不会返回该错误，对应条目记为 NaN。
	ErrInsufficientData = errors.New("insufficient data")
)
