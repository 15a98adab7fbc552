package logic

import (
	"errors"
)

// 业务错误，handler 层按类别映射为 HTTP 状态码

// 授权错误
var (
	ErrNotHost  = errors.New("只有主理人可以执行此操作")
	ErrNotOwner = errors.New("只有管理员可以执行此操作")
)

// 状态错误
var (
	ErrInvalidStatus    = errors.New("当前状态不允许此操作")
	ErrEventStarted     = errors.New("活动已开始，无法报名")
	ErrEventNotStarted  = errors.New("活动尚未开始，无法结算")
	ErrChallengeNotOver = errors.New("质疑期尚未结束")
	ErrAlreadyFinalized = errors.New("结算已完成，不能重复执行")
)

// 校验错误
var (
	ErrEventNotFound     = errors.New("活动不存在")
	ErrPlayerNotFound    = errors.New("报名记录不存在")
	ErrInvalidAddress    = errors.New("无效的地址")
	ErrTokenNotSupported = errors.New("代币不在白名单内")
	ErrInvalidExpense    = errors.New("费用不能为负数")
)

// 容量与算术错误
var (
	ErrEventFull         = errors.New("活动人数已满")
	ErrAlreadyJoined     = errors.New("不能重复报名")
	ErrPlayerNotPaid     = errors.New("该玩家尚未支付费用")
	ErrAlreadyApproved   = errors.New("该玩家已通过审核")
	ErrNoApprovedPlayers = errors.New("没有已审核的玩家，无法结算分账")
	ErrNothingToClaim    = errors.New("没有可提取的余额")
)

// 外部转账失败
var ErrTransferFailed = errors.New("代币转账失败")
