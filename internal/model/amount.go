package model

import (
	"database/sql/driver"
	"fmt"
	"math/big"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Amount 精确金额，任意精度整数，数据库按 NUMERIC(78,0) 存储
// 代币最小单位（如 wei）下的数值，不做小数换算
type Amount struct {
	big.Int
}

// NewAmount 从 int64 创建金额
func NewAmount(v int64) *Amount {
	a := &Amount{}
	a.SetInt64(v)
	return a
}

// NewAmountFromString 从十进制字符串创建金额
func NewAmountFromString(s string) (*Amount, error) {
	a := &Amount{}
	if _, ok := a.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid amount: %q", s)
	}
	return a, nil
}

// AmountFromBig 从 big.Int 创建金额（拷贝）
func AmountFromBig(v *big.Int) *Amount {
	a := &Amount{}
	if v != nil {
		a.Set(v)
	}
	return a
}

// BigInt 返回底层数值的拷贝
func (a *Amount) BigInt() *big.Int {
	if a == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(&a.Int)
}

// IsZero 是否为零值（nil 视为零）
func (a *Amount) IsZero() bool {
	return a == nil || a.Sign() == 0
}

// Value 实现 driver.Valuer
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan 实现 sql.Scanner
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		a.SetInt64(0)
		return nil
	case int64:
		a.SetInt64(v)
		return nil
	case float64:
		bf := new(big.Float).SetFloat64(v)
		if _, acc := bf.Int(&a.Int); acc != big.Exact {
			return fmt.Errorf("cannot scan %v into Amount", v)
		}
		return nil
	case string:
		if _, ok := a.SetString(v, 10); !ok {
			return fmt.Errorf("cannot scan %q into Amount", v)
		}
		return nil
	case []byte:
		if _, ok := a.SetString(string(v), 10); !ok {
			return fmt.Errorf("cannot scan %q into Amount", v)
		}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
}

// GormDataType gorm 字段类型
func (Amount) GormDataType() string {
	return "numeric(78,0)"
}

// GormDBDataType 按方言选择列类型
// sqlite 的 NUMERIC 亲和会把超出 int64 的整数文本转成浮点数，精度丢失，
// 必须落 TEXT 列才能精确往返
func (Amount) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "numeric(78,0)"
	}
	return "text"
}

// MarshalJSON 按字符串序列化，避免前端精度丢失
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON 支持字符串与数字两种形式
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if _, ok := a.SetString(s, 10); !ok {
		return fmt.Errorf("invalid amount: %s", string(data))
	}
	return nil
}
