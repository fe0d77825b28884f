package game

import (
	"errors"

	appErrors "sudooom.settlers/pkg/errors"
)

// 对局管理相关错误定义

var (
	// ErrGameNotFound 对局不存在（内存、缓存、数据库都没有）
	ErrGameNotFound = appErrors.ErrGameNotFound

	// ErrGameAlreadyStarted 房间已有对局
	ErrGameAlreadyStarted = appErrors.ErrGameAlreadyStarted

	// ErrTooManyGames 内存中的对局数量已达上限
	ErrTooManyGames = appErrors.ErrTooManyGames

	// ErrManagerClosed 管理器已关闭
	ErrManagerClosed = errors.New("game manager closed")
)
