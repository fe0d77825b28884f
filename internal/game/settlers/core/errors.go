package core

import appErrors "sudooom.settlers/pkg/errors"

// 规则校验失败都是局部、可恢复的错误，被拒绝的意图不会修改状态

// 回合与阶段
var (
	ErrNotYourTurn           = appErrors.NewError(appErrors.CodeNotYourTurn, "不是你的回合")
	ErrInvalidPhaseForAction = appErrors.NewError(appErrors.CodeInvalidPhaseForAction, "当前阶段不允许此操作")
	ErrGameFinished          = appErrors.NewError(appErrors.CodeGameFinished, "对局已经结束")
	ErrPlayerNotFound        = appErrors.NewError(appErrors.CodePlayerNotFound, "玩家不存在")
	ErrInvalidIntent         = appErrors.NewError(appErrors.CodeInvalidIntent, "无效的操作请求")
)

// 建造
var (
	ErrLocationOccupied       = appErrors.NewError(appErrors.CodeLocationOccupied, "该位置已被占用")
	ErrLocationTooClose       = appErrors.NewError(appErrors.CodeLocationTooClose, "与其他建筑距离过近")
	ErrNotConnected           = appErrors.NewError(appErrors.CodeNotConnected, "道路未与自己的建筑或道路相连")
	ErrInsufficientResources  = appErrors.NewError(appErrors.CodeInsufficientResources, "资源不足")
	ErrPlacementCapExceeded   = appErrors.NewError(appErrors.CodePlacementCapExceeded, "本轮放置数量已达上限")
	ErrInvalidPlacementTarget = appErrors.NewError(appErrors.CodeInvalidPlacementTarget, "无效的放置位置")
	ErrInvalidBoard           = appErrors.NewError(appErrors.CodeInvalidBoard, "无效的棋盘布局")
)

// 强盗与弃牌
var (
	ErrRobberAlreadyMoved             = appErrors.NewError(appErrors.CodeRobberAlreadyMoved, "本回合强盗已经移动过")
	ErrRobberMustMoveBeforeContinuing = appErrors.NewError(appErrors.CodeRobberMustMoveBeforeContinuing, "必须先处理强盗")
	ErrDiscardRequired                = appErrors.NewError(appErrors.CodeDiscardRequired, "等待玩家弃牌")
	ErrDiscardCountMismatch           = appErrors.NewError(appErrors.CodeDiscardCountMismatch, "弃牌数量不正确")
	ErrInvalidTargetHex               = appErrors.NewError(appErrors.CodeInvalidTargetHex, "强盗必须移动到其他地块")
	ErrInvalidStealTarget             = appErrors.NewError(appErrors.CodeInvalidStealTarget, "无效的抢夺目标")
)

// 交易
var (
	ErrNoActiveTradeNegotiation = appErrors.NewError(appErrors.CodeNoActiveTradeNegotiation, "没有进行中的交易")
	ErrTradeResourceShortfall   = appErrors.NewError(appErrors.CodeTradeResourceShortfall, "交易资源不足")
	ErrTradeNotReady            = appErrors.NewError(appErrors.CodeTradeNotReady, "交易双方尚未全部出价或确认")
	ErrInvalidTradeOffer        = appErrors.NewError(appErrors.CodeInvalidTradeOffer, "无效的交易报价")
)
