package apperrors

import (
	"errors"
	"fmt"
)

// Kind 错误类别，稳定的机器可读标识
type Kind string

const (
	KindUnauthenticated   Kind = "UNAUTHENTICATED"     // 未登录或凭证无效
	KindNotFound          Kind = "NOT_FOUND"           // 不存在，或不属于当前用户（对外不区分）
	KindInvalidTransition Kind = "INVALID_TRANSITION"  // 当前状态不允许该操作
	KindReferenceMismatch Kind = "REFERENCE_MISMATCH"  // 支付单号与订单记录不一致
	KindAlreadyPaid       Kind = "ALREADY_PAID"        // 重复支付确认
	KindUpstreamFailure   Kind = "UPSTREAM_FAILURE"    // 支付渠道返回失败
	KindValidation        Kind = "VALIDATION"          // 参数校验失败
	KindInternal          Kind = "INTERNAL"            // 未预期错误，对外只返回 500
)

// Error 业务错误，携带类别与展示信息
type Error struct {
	Kind    Kind
	Message string
	Err     error // 底层原因，不对外暴露
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 构造业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 包装底层错误
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf 提取错误类别，非业务错误一律归为 INTERNAL
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf 提取展示信息，INTERNAL 不泄漏内部细节
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// Is 判断错误是否属于某个类别
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// 订单域常用错误
var (
	ErrUnauthenticated = New(KindUnauthenticated, "authentication required")
	ErrOrderNotFound   = New(KindNotFound, "order not found")
	ErrUserNotFound    = New(KindNotFound, "user not found")
)
