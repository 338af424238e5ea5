package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 训练错误：INVALID_HYPERPARAMETER, EMPTY_TRAINING_SET
//   - 检索错误：INVALID_N
//   - 评估错误：NO_MATCHED_PAIRS
//   - 索引错误：UNKNOWN_KEY
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "EMPTY_TRAINING_SET", "NOT_FOUND"）
	Message string // 错误消息
	Module  string // 模块名称（如 "model", "index", "eval", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 训练/检索/评估错误代码
	ErrorCodeInvalidHyperparameter = "INVALID_HYPERPARAMETER" // 超参数非法
	ErrorCodeEmptyTrainingSet      = "EMPTY_TRAINING_SET"     // 训练集为空
	ErrorCodeInvalidN              = "INVALID_N"              // TopN 的 N 非法
	ErrorCodeNoMatchedPairs        = "NO_MATCHED_PAIRS"       // 预测与真值无交集
	ErrorCodeUnknownKey            = "UNKNOWN_KEY"            // 物品键不在映射中

	// 通用错误代码
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效
)

// 模块名称常量
const (
	ModuleModel  = "model"  // 矩阵分解模块
	ModuleIndex  = "index"  // 索引模块
	ModuleEval   = "eval"   // 评估模块
	ModuleStore  = "store"  // 存储模块
	ModuleRecall = "recall" // 召回模块
)

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsInvalidHyperparameter 检查错误是否为 INVALID_HYPERPARAMETER
func IsInvalidHyperparameter(err error) bool {
	return hasCode(err, ErrorCodeInvalidHyperparameter)
}

// IsEmptyTrainingSet 检查错误是否为 EMPTY_TRAINING_SET
func IsEmptyTrainingSet(err error) bool {
	return hasCode(err, ErrorCodeEmptyTrainingSet)
}

// IsInvalidN 检查错误是否为 INVALID_N
func IsInvalidN(err error) bool {
	return hasCode(err, ErrorCodeInvalidN)
}

// IsNoMatchedPairs 检查错误是否为 NO_MATCHED_PAIRS
func IsNoMatchedPairs(err error) bool {
	return hasCode(err, ErrorCodeNoMatchedPairs)
}

// IsUnknownKey 检查错误是否为 UNKNOWN_KEY
func IsUnknownKey(err error) bool {
	return hasCode(err, ErrorCodeUnknownKey)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}
