package task

import (
	"flag"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 1000, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：推进时钟并定期输出心跳日志
func (ctx *Context) prepare() {
	ctx.clock.Tick()
	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		c := ctx.vehicleManager.Counter()
		log.Infof(
			"%s STEP: %d(%d:%d:%.2f) throughput=%d passengers=%d/%d/%d",
			ctx.job, ctx.clock.InternalStep,
			hour, minute, second,
			c.Vehicles(),
			ctx.passengerManager.Waiting(), ctx.passengerManager.InTransit(), ctx.passengerManager.Alighted(),
		)
	}
}

// update 更新阶段，每步执行一次
// 算法说明：
// 1. 车辆更新（投放阶段只做放置尝试）
// 2. 依据车辆位置重建道路占用
// 3. 各站点生成乘客，等车乘客横向挪动
// 4. 依据站点队列重建人行道占用
// 5. 记录统计
func (ctx *Context) update() {
	ctx.vehicleManager.Update()
	ctx.vehicleManager.Rebuild()
	ctx.passengerManager.Generate()
	if ctx.runtimeConfig.All.Passengers.Reposition {
		ctx.passengerManager.Reposition()
	}
	ctx.sidewalk.Rebuild()
	if ctx.runtimeConfig.C.Strict {
		if err := ctx.passengerManager.Check(); err != nil {
			ctx.ReportViolation("%v", err)
		}
	}
	ctx.recorder.record()
}

// Step 执行一步
func (ctx *Context) Step() {
	ctx.prepare()
	ctx.update()
}

// Run 运行
// 功能：初始化后逐步执行直到结束步
// 返回：本次试验的统计结果
func (ctx *Context) Run() *Result {
	ctx.Init()
	for !ctx.clock.Done() {
		ctx.Step()
	}
	res := ctx.recorder.result()
	log.Infof("job %s complete: flow=%.4f passenger_flow=%.4f violations=%d",
		ctx.job, res.Summary.Flow, res.Summary.PassengerFlow, res.Violations)
	return res
}
