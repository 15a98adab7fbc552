package logic

import (
	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress 校验并规范化地址为 EIP-55 校验和形式
// 存储与比较一律使用规范化后的地址
func NormalizeAddress(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(s).Hex(), nil
}
