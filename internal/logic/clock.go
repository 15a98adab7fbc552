package logic

import (
	"time"
)

// Clock 时间源，质疑期判定与进行中状态推导都从这里取当前时间
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock 系统时钟
func SystemClock() Clock {
	return systemClock{}
}
