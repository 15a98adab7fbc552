package config

import (
	"github.com/courtside/ces/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Task     TaskConfig     `mapstructure:"task"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// EngineConfig 托管引擎配置
type EngineConfig struct {
	OwnerAddress      string   `mapstructure:"owner_address"`      // 管理员地址，代币白名单的唯一维护者
	ChallengeDuration int64    `mapstructure:"challenge_duration"` // 质疑期时长（秒）
	Provider          string   `mapstructure:"provider"`           // 价值转移媒介: ledger, chain
	EscrowAddress     string   `mapstructure:"escrow_address"`     // 托管池账户标识
	Tokens            []string `mapstructure:"tokens"`             // 启动时预置的白名单代币
}

// ChainConfig 链配置，provider 为 chain 时使用
type ChainConfig struct {
	ChainId       int64  `mapstructure:"chain_id"`      // 链ID
	RpcUrl        string `mapstructure:"rpc_url"`       // RPC节点URL
	PrivateKey    string `mapstructure:"private_key"`   // 托管账户私钥
	Confirmations int    `mapstructure:"confirmations"` // 确认区块数
	StartBlock    int64  `mapstructure:"start_block"`   // 监控起始区块
	GasLimit      uint64 `mapstructure:"gas_limit"`     // 转账交易 gas 上限
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

// NotifyConfig 通知推送配置
type NotifyConfig struct {
	Webhooks []string `mapstructure:"webhooks"` // 订阅方回调地址
	PoolSize int      `mapstructure:"pool_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/ces")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "courtside")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("engine.challenge_duration", 86400)
	viper.SetDefault("engine.provider", "ledger")
	viper.SetDefault("engine.escrow_address", "0x0000000000000000000000000000000000000E5c")
	viper.SetDefault("chain.confirmations", 12)
	viper.SetDefault("chain.start_block", 0)
	viper.SetDefault("chain.gas_limit", 100000)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("notify.pool_size", 8)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
