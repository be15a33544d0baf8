package errors

import (
	"errors"
	"fmt"
)

// 业务错误分类，通过 errors.Is 判断
var (
	ErrValidation = errors.New("请求参数无效")
	ErrInference  = errors.New("模型推理失败")
	ErrStorage    = errors.New("存储操作失败")
	ErrAuth       = errors.New("认证失败")
	ErrForbidden  = errors.New("无权限访问")
)

// Error 带分类与上下文的业务错误
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Wrap 构造一个分类错误；cause 可为 nil
func Wrap(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is 使 errors.Is(err, ErrXxx) 按分类匹配
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// Validation 参数错误
func Validation(msg string) *Error { return Wrap(ErrValidation, msg, nil) }

// Inference 推理错误
func Inference(msg string, cause error) *Error { return Wrap(ErrInference, msg, cause) }

// Storage 存储错误
func Storage(msg string, cause error) *Error { return Wrap(ErrStorage, msg, cause) }

// Message 返回面向调用方的错误描述，不含底层原因
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
