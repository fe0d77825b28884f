package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 用于统一管理业务错误，包含错误码和错误消息
type AppError struct {
	Code    int    // 错误码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误（可选，用于调试）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使标准库 errors.Is 对包装后的错误同样生效
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Wrapf 以格式化的细节包装
func (e *AppError) Wrapf(format string, args ...any) *AppError {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回默认错误码
func GetCode(err error) int {
	if err == nil {
		return CodeSuccess
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	if err == nil {
		return "success"
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "服务器内部错误"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 认证相关 10000-10999
	CodeTokenInvalid = 10003
	CodeTokenExpired = 10004

	// 请求相关 11000-11999
	CodeInvalidParams = 11002

	// 对局规则 20000-20999
	CodeNotYourTurn                    = 20001
	CodeInvalidPhaseForAction          = 20002
	CodeLocationOccupied               = 20003
	CodeLocationTooClose               = 20004
	CodeNotConnected                   = 20005
	CodeInsufficientResources          = 20006
	CodePlacementCapExceeded           = 20007
	CodeRobberAlreadyMoved             = 20008
	CodeRobberMustMoveBeforeContinuing = 20009
	CodeDiscardRequired                = 20010
	CodeDiscardCountMismatch           = 20011
	CodeNoActiveTradeNegotiation       = 20012
	CodeTradeResourceShortfall         = 20013
	CodeInvalidTargetHex               = 20014
	CodeInvalidPlacementTarget         = 20015
	CodeTradeNotReady                  = 20016
	CodeInvalidTradeOffer              = 20017
	CodeInvalidStealTarget             = 20018
	CodeGameFinished                   = 20019
	CodePlayerNotFound                 = 20020
	CodeInvalidIntent                  = 20021
	CodeInvalidBoard                   = 20022

	// 对局管理 21000-21999
	CodeGameNotFound       = 21001
	CodeGameAlreadyStarted = 21002
	CodeInvalidPlayers     = 21003
	CodeTooManyGames       = 21004

	// 系统错误 50000-50999
	CodeServerError = 50001
	CodeDBError     = 50002
)

// ============== 预定义错误 ==============

// 认证相关
var (
	ErrTokenInvalid = NewError(CodeTokenInvalid, "Token 无效")
	ErrTokenExpired = NewError(CodeTokenExpired, "Token 已过期")
)

// 请求相关
var (
	ErrInvalidParams = NewError(CodeInvalidParams, "参数校验失败")
)

// 对局管理
var (
	ErrGameNotFound       = NewError(CodeGameNotFound, "对局不存在")
	ErrGameAlreadyStarted = NewError(CodeGameAlreadyStarted, "对局已经开始")
	ErrInvalidPlayers     = NewError(CodeInvalidPlayers, "玩家列表无效")
	ErrTooManyGames       = NewError(CodeTooManyGames, "对局数量已达上限")
)

// 系统相关
var (
	ErrServerError = NewError(CodeServerError, "服务器内部错误")
	ErrDBError     = NewError(CodeDBError, "数据库错误")
)
