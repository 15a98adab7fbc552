package token

import (
	"context"
	"errors"
	"math/big"
)

// 转账失败原因
var (
	ErrInsufficientBalance   = errors.New("余额不足")
	ErrInsufficientAllowance = errors.New("授权额度不足")
)

// TransferProvider ERC-20 式的价值转移能力
// 引擎收取费用和支付余额都经由它完成，调用失败时整个操作回滚
type TransferProvider interface {
	// TransferFrom 从付款人账户划转 amount 到托管池，返回转账参考（链上为交易哈希）
	TransferFrom(ctx context.Context, tokenAddress, payer string, amount *big.Int) (string, error)
	// Transfer 从托管池支付 amount 给收款人，返回转账参考
	Transfer(ctx context.Context, tokenAddress, recipient string, amount *big.Int) (string, error)
	// Synchronous 转账返回时是否已终局；链上媒介返回 false，提款记录待确认监控标记成功
	Synchronous() bool
}
