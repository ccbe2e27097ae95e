package vehicle

import (
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
)

// LaneChanging 变道决策
// 功能：决定是否开始跨道（进入车道行1），变道分两步完成，不会在车道行1上发起
// 算法说明：
// 1. 小巴有乘客将要下车：载客变道（驶向右侧车道）
// 2. 小巴未满员且察觉候车乘客：载客变道
// 3. 否则当前速度超过本车道空距时考虑超车：相邻车道（0与2互为相邻）空距更大，
// 且目标车道与过渡车道都允许本类车辆通行，则把速度降到本车道空距，侧方元胞行无车时开始跨道
func (v *Vehicle) LaneChanging() {
	if v.row == entity.StraddleRow {
		return
	}
	if v.class == entity.Transit {
		if v.WillUnloadPassengers() || (v.passengersDetected() && v.seatsFree()) {
			v.attemptPassengerLaneChange()
			return
		}
	}
	road := v.ctx.Road()
	gap := v.GapDistance(v.row)
	if v.speed <= gap {
		return
	}
	switch v.row {
	case entity.RightRow:
		if v.GapDistance(entity.LeftRow) > gap && road.Allowed(entity.LeftRow, v.class) && road.Allowed(entity.StraddleRow, v.class) {
			v.speed = gap
			// 右侧车道覆盖元胞行[0, width)，向左跨道新占用元胞行width
			if v.LaneAvailable(entity.RightRow + v.width) {
				v.BeginStraddling(entity.LCLeft)
			}
		}
	case entity.LeftRow:
		if v.GapDistance(entity.RightRow) > gap && road.Allowed(entity.RightRow, v.class) && road.Allowed(entity.StraddleRow, v.class) {
			v.speed = gap
			if v.LaneAvailable(entity.StraddleRow) {
				v.BeginStraddling(entity.LCRight)
			}
		}
	}
}

// attemptPassengerLaneChange 载客变道
// 说明：只在左侧车道发起；失败计入重试次数，达到上限后允许在左侧车道直接上下客
func (v *Vehicle) attemptPassengerLaneChange() {
	if v.row != entity.LeftRow {
		return
	}
	if v.retries >= v.ctx.RuntimeConfig().All.Vehicles.LaneChangeRetries {
		return
	}
	if v.ctx.Road().Allowed(entity.RightRow, v.class) && v.LaneAvailable(entity.StraddleRow) {
		v.BeginStraddling(entity.LCRight)
	}
	if v.row == entity.LeftRow {
		v.retries++
	}
}

// BeginStraddling 开始跨道
// 功能：向direction方向移入过渡车道行1，并前进speed格
// 算法说明：
// 1. 速度取本车道空距减1，为0时加速到1
// 2. 车道行1上车头前方speed格无车、且新覆盖范围内没有其他车辆时才开始跨道
// 3. 跨道后本步的减速与前进照常进行
func (v *Vehicle) BeginStraddling(direction entity.LaneChangeDirection) {
	v.speed = max(0, v.GapDistance(v.row)-1)
	if v.speed == 0 {
		v.Accelerate()
	}
	road := v.ctx.Road()
	if road.SpanSum(v.Front()+1, v.speed, entity.StraddleRow, v.width) != 0 {
		return
	}
	next := v.footprintAt(entity.Mod(v.rear+v.speed, road.Length()), entity.StraddleRow)
	if !road.FreeFor(next, v.Footprint()) {
		return
	}
	v.direction = direction
	v.translate(entity.StraddleRow)
	log.Debugf("vehicle %d begins straddling %v at rear %d", v.id, direction, v.rear)
}

// FinishLaneChange 完成变道
// 功能：从过渡车道行1移入目标车道行
// 算法说明：
// 1. 目标车道行在车头前方n格（停车时n=2，否则n=speed）无车且新覆盖范围内没有其他车辆时，
// 停车则先加速，带着速度移入目标车道行，清除变道方向并重置重试次数
// 2. 否则按车道行1减速，原地等待
func (v *Vehicle) FinishLaneChange() {
	if v.row != entity.StraddleRow {
		return
	}
	target := entity.LeftRow
	if v.direction == entity.LCRight {
		target = entity.RightRow
	}
	road := v.ctx.Road()
	n := v.speed
	if v.speed == 0 {
		n = 2
	}
	free := road.SpanSum(v.Front()+1, n, target, v.width) == 0
	if free {
		speed := v.speed
		if speed == 0 {
			speed = min(1, road.MaxV())
		}
		next := v.footprintAt(entity.Mod(v.rear+speed, road.Length()), target)
		free = road.FreeFor(next, v.Footprint())
	}
	if !free {
		v.Decelerate()
		return
	}
	if v.speed == 0 {
		v.Accelerate()
	}
	v.translate(target)
	v.direction = entity.LCNone
	v.retries = 0
}
