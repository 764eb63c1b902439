package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 订单模块错误 200xx
	ErrNotFound          = 20001
	ErrInvalidTransition = 20002
	ErrAlreadyPaid       = 20003
	ErrPaymentMismatch   = 20004
	ErrCaptureFailed     = 20005

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
