package entity

import (
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/clock"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/randengine"
)

type ITaskContext interface {
	Clock() *clock.Clock
	Road() IRoad
	Sidewalk() ISidewalk
	VehicleManager() IVehicleManager
	PassengerManager() IPassengerManager
	RuntimeConfig() *config.RuntimeConfig
	Generator() *randengine.Engine // 本次试验唯一的随机数引擎
	IDs() *IDAllocator
	// 记账错误：严格模式下panic，否则告警并计数
	ReportViolation(format string, args ...any)
}
