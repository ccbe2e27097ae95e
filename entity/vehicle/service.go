package vehicle

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

// servingRow 当前车道行能否上下客
// 说明：右侧车道总可以；左侧车道在载客变道重试达到上限后也可以
func (v *Vehicle) servingRow() bool {
	return v.row == entity.RightRow ||
		(v.row == entity.LeftRow && v.retries >= v.ctx.RuntimeConfig().All.Vehicles.LaneChangeRetries)
}

func (v *Vehicle) onePerTick() bool {
	return v.ctx.RuntimeConfig().Service == config.ServiceOnePerTick
}

// Unloading 下客
// 功能：停车时放下过站乘客以及目的站在车身旁的请求下车乘客
// 算法说明：
// 1. 只在停车（speed为0）且有乘客将要下车时进行
// 2. 车身旁站点的下车表中有本车乘客（或有乘客过站），且所在车道行可以上下客
// 3. 逐个放下符合条件的乘客，one_per_tick策略下每步只放一人
// 4. 之后若已无乘客需要下车，重置载客变道重试次数
func (v *Vehicle) Unloading() {
	if v.class != entity.Transit || v.speed != 0 {
		return
	}
	if !v.WillUnloadPassengers() {
		return
	}
	if !v.servingRow() {
		return
	}
	pm := v.ctx.PassengerManager()
	overshot := v.anyOvershot()
	if !overshot && !lo.SomeBy(v.adjacent, func(stop entity.IStop) bool {
		return lo.SomeBy(v.passengers.Values(), stop.IsUnloading)
	}) {
		return
	}
	for _, pid := range v.passengers.Values() {
		if v.onePerTick() && v.servedThisTick >= 1 {
			break
		}
		p := pm.Get(pid)
		if p.Overshot() || (p.LetMeOut() && v.isAdjacent(p.Destination())) {
			v.release(p)
		}
	}
	if !v.WillUnloadPassengers() {
		v.retries = 0
	}
}

// release 乘客下车
func (v *Vehicle) release(p entity.IPassenger) {
	if !v.passengers.Remove(p.ID()) {
		v.ctx.ReportViolation("vehicle %d releases passenger %d not on board", v.id, p.ID())
		return
	}
	if err := p.Alight(v); err != nil {
		v.ctx.ReportViolation("vehicle %d: %v", v.id, err)
		return
	}
	v.servedThisTick++
	v.delivered++
}

// Loading 上客
// 功能：停车且有空座时，从车身旁站点的候车队列按先到先上的顺序接客
// 说明：one_per_tick策略下每步（含下客）只服务一人
func (v *Vehicle) Loading() {
	if v.class != entity.Transit || v.speed != 0 || !v.seatsFree() {
		return
	}
	if v.onePerTick() && v.servedThisTick >= 1 {
		return
	}
	if !v.servingRow() || !v.passengersDetected() {
		return
	}
	sw := v.ctx.Sidewalk()
	for d := 0; d < v.length && v.seatsFree(); d++ {
		stop := sw.StopAt(v.rear + d)
		if stop == nil {
			continue
		}
		for v.seatsFree() {
			pid, ok := stop.Dequeue()
			if !ok {
				break
			}
			v.board(pid)
			if v.onePerTick() {
				return
			}
		}
	}
}

// board 乘客上车
func (v *Vehicle) board(pid entity.PassengerID) {
	p := v.ctx.PassengerManager().Get(pid)
	if !v.passengers.Add(pid) {
		v.ctx.ReportViolation("vehicle %d boards passenger %d twice", v.id, pid)
		return
	}
	if err := p.Board(v); err != nil {
		v.passengers.Remove(pid)
		v.ctx.ReportViolation("vehicle %d: %v", v.id, err)
		return
	}
	v.servedThisTick++
	v.boardings++
}
