package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/courtside/ces/internal/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ERC20 ABI（托管所需的子集）
const erc20ABI = `[
	{
		"constant": false,
		"inputs": [
			{"name": "recipient", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transfer",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "sender", "type": "address"},
			{"name": "recipient", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "transferFrom",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "from", "type": "address"},
			{"indexed": true, "name": "to", "type": "address"},
			{"indexed": false, "name": "value", "type": "uint256"}
		],
		"name": "Transfer",
		"type": "event"
	}
]`

// Client 链上 ERC-20 价值转移媒介
// 托管账户由配置的私钥持有，transferFrom 将玩家费用划入托管账户，
// transfer 从托管账户支付
type Client struct {
	client        *ethclient.Client
	privateKey    *ecdsa.PrivateKey
	account       common.Address
	chainId       *big.Int
	gasLimit      uint64
	confirmations int
	startBlock    int64
	erc20         abi.ABI
}

// NewClient 创建链上客户端
func NewClient(cfg config.ChainConfig) (*Client, error) {
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = 100000
	}

	return &Client{
		client:        client,
		privateKey:    privateKey,
		account:       crypto.PubkeyToAddress(privateKey.PublicKey),
		chainId:       big.NewInt(cfg.ChainId),
		gasLimit:      gasLimit,
		confirmations: cfg.Confirmations,
		startBlock:    cfg.StartBlock,
		erc20:         parsedABI,
	}, nil
}

// EscrowAddress 托管账户地址
func (c *Client) EscrowAddress() string {
	return c.account.Hex()
}

// Synchronous 链上转账需等待确认
func (c *Client) Synchronous() bool {
	return false
}

// TransferFrom 调用代币合约 transferFrom，把付款人的费用划入托管账户
// 付款人需事先 approve 托管账户
func (c *Client) TransferFrom(ctx context.Context, tokenAddress, payer string, amount *big.Int) (string, error) {
	data, err := c.erc20.Pack("transferFrom", common.HexToAddress(payer), c.account, amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack transferFrom: %w", err)
	}
	return c.sendTransaction(ctx, common.HexToAddress(tokenAddress), data)
}

// Transfer 调用代币合约 transfer，从托管账户支付
func (c *Client) Transfer(ctx context.Context, tokenAddress, recipient string, amount *big.Int) (string, error) {
	data, err := c.erc20.Pack("transfer", common.HexToAddress(recipient), amount)
	if err != nil {
		return "", fmt.Errorf("failed to pack transfer: %w", err)
	}
	return c.sendTransaction(ctx, common.HexToAddress(tokenAddress), data)
}

// BalanceOf 查询账户的代币余额
func (c *Client) BalanceOf(ctx context.Context, tokenAddress, account string) (*big.Int, error) {
	data, err := c.erc20.Pack("balanceOf", common.HexToAddress(account))
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}

	tokenAddr := common.HexToAddress(tokenAddress)
	result, err := c.client.CallContract(ctx, callMsg(tokenAddr, data), nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed: %w", err)
	}

	values, err := c.erc20.Unpack("balanceOf", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", values[0])
	}
	return balance, nil
}

// sendTransaction 签名并发送合约调用交易
func (c *Client) sendTransaction(ctx context.Context, to common.Address, data []byte) (string, error) {
	nonce, err := c.client.PendingNonceAt(ctx, c.account)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), c.gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainId), c.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

// callMsg 构造只读合约调用
func callMsg(to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{To: &to, Data: data}
}

// GetLatestBlock 获取最新区块号
func (c *Client) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Uint64(), nil
}

// IsTransactionConfirmed 交易是否已达到确认区块数
func (c *Client) IsTransactionConfirmed(ctx context.Context, txHash string) (bool, error) {
	receipt, err := c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return false, err
	}
	if receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		return false, nil
	}

	latestBlock, err := c.GetLatestBlock(ctx)
	if err != nil {
		return false, err
	}
	return latestBlock >= receipt.BlockNumber.Uint64()+uint64(c.confirmations), nil
}
