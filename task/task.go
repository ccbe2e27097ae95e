package task

import (
	"fmt"

	"github.com/tsinghua-fib-lab/mixed-traffic-sim/clock"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity/passenger"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity/road"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity/sidewalk"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/randengine"
)

// Context 仿真任务上下文
// 功能：包含一次仿真试验的所有变量和状态，替代全局变量
// 说明：一次试验单线程运行，持有自己的随机数引擎与ID分配器，不同试验之间互不共享
type Context struct {
	// 任务名
	job string

	// 时钟
	clock *clock.Clock
	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig
	// 随机数引擎
	generator *randengine.Engine
	// 实体ID分配器
	ids *entity.IDAllocator

	// 道路
	road *road.Road
	// 人行道与站点
	sidewalk *sidewalk.Sidewalk
	// 车辆管理器
	vehicleManager *vehicle.Manager
	// 乘客管理器
	passengerManager *passenger.Manager

	// 统计输出
	recorder *recorder
	// 记账错误次数
	violations int
}

// NewContext 创建新的仿真任务上下文
// 功能：根据配置创建时钟、随机数引擎、道路、人行道与各管理器
// 参数：job-任务名称，c-配置对象（应已通过config.Validate）
// 返回：Context实例；站点布局无法生成时返回错误
func NewContext(job string, c config.Config) (*Context, error) {
	ctx := &Context{
		job:           job,
		clock:         clock.New(c.Control.Step),
		runtimeConfig: config.NewRuntimeConfig(c),
		generator:     randengine.New(c.Control.Seed),
		ids:           entity.NewIDAllocator(),
	}
	ctx.road = road.New(ctx.runtimeConfig)
	positions, err := sidewalk.StopPositions(c.Sidewalk.Stops, c.Road.Length, ctx.generator)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job, err)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("job %s: no stops on the sidewalk", job)
	}
	ctx.sidewalk = sidewalk.New(c.Sidewalk, c.Road.Length, positions, ctx.ids)
	ctx.vehicleManager = vehicle.NewManager(ctx)
	ctx.passengerManager = passenger.NewManager(ctx)
	ctx.recorder = newRecorder(ctx)
	return ctx, nil
}

func (ctx *Context) Job() string {
	return ctx.job
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Road() entity.IRoad {
	return ctx.road
}

func (ctx *Context) Sidewalk() entity.ISidewalk {
	return ctx.sidewalk
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

func (ctx *Context) PassengerManager() entity.IPassengerManager {
	return ctx.passengerManager
}

// Vehicles 车辆管理器（具体类型）
func (ctx *Context) Vehicles() *vehicle.Manager {
	return ctx.vehicleManager
}

// Passengers 乘客管理器（具体类型）
func (ctx *Context) Passengers() *passenger.Manager {
	return ctx.passengerManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Generator() *randengine.Engine {
	return ctx.generator
}

func (ctx *Context) IDs() *entity.IDAllocator {
	return ctx.ids
}

// ReportViolation 记账错误
// 说明：严格模式下直接panic，否则告警并计数
func (ctx *Context) ReportViolation(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if ctx.runtimeConfig.C.Strict {
		log.Panicf("step %d: violation: %s", ctx.clock.InternalStep, msg)
	}
	ctx.violations++
	log.Warnf("step %d: violation: %s", ctx.clock.InternalStep, msg)
}

// Violations 记账错误次数
func (ctx *Context) Violations() int {
	return ctx.violations
}

// Init 初始化
// 功能：重置时钟，计算目标车辆数，建立初始的人行道占用
func (ctx *Context) Init() {
	ctx.clock.Init()
	ctx.vehicleManager.Init()
	ctx.sidewalk.Rebuild()
	transit, freight := ctx.vehicleManager.Targets()
	log.Infof("job %s: seed=%d road=%dx%d stops=%d transit=%d freight=%d",
		ctx.job, ctx.generator.Seed(), ctx.road.Length(), ctx.road.Width(),
		len(ctx.sidewalk.Stops()), transit, freight)
	ctx.recorder.init()
}
