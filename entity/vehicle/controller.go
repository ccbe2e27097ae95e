package vehicle

import (
	"math"

	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
)

// unbounded 目的站距离项在无请求时的取值
const unbounded = math.MaxInt32

// Accelerate 加速，不超过最大速度
func (v *Vehicle) Accelerate() {
	v.speed = min(v.speed+1, v.ctx.Road().MaxV())
}

// RandomSlowdown 随机慢化
func (v *Vehicle) RandomSlowdown() {
	if v.speed > 0 && v.ctx.Generator().PTrue(v.ctx.RuntimeConfig().All.Vehicles.BrakingProb) {
		v.speed--
	}
}

// GapDistance 车道行row上车头前方的空距
// 功能：在车头前方speed格内寻找第一个被占用的元胞
// 参数：row-车道行（覆盖横向[row, row+width)）
// 返回：第一个障碍之前的空格数，speed格内无障碍则返回speed
func (v *Vehicle) GapDistance(row int) int {
	road := v.ctx.Road()
	for d := 1; d <= v.speed; d++ {
		if road.SpanSum(v.Front()+d, 1, row, v.width) > 0 {
			return d - 1
		}
	}
	return v.speed
}

// LaneAvailable 元胞行row在[rear, front+speed+1]范围内是否无车
func (v *Vehicle) LaneAvailable(row int) bool {
	return v.ctx.Road().SpanSum(v.rear, v.length+v.speed+1, row, 1) == 0
}

// Decelerate 减速
// 功能：根据前车空距（以及小巴的目的站与候车乘客）确定本步速度
// 算法说明（小巴）：
// 1. dest：有乘客过站为0；否则取最近被请求的目的站，使其停在车头旁；无请求为无穷
// 2. ped：车身旁有候车乘客为0；否则为前方speed格内第一位候车乘客的距离；无则为speed
// 3. gap：前车空距
// 4. 目标速度为三者最小值（满员时不考虑ped）
// 5. 需要的减速超过safe_deceleration时，只减safe_deceleration
// 6. 最终速度不超过gap
// 说明：货车只受gap约束
func (v *Vehicle) Decelerate() {
	gap := v.GapDistance(v.row)
	if gap < 0 {
		log.Panicf("vehicle %d: negative gap %d", v.id, gap)
	}
	if v.class != entity.Transit {
		v.speed = min(v.speed, gap)
		return
	}
	target := min(v.destinationDistance(), gap)
	if v.seatsFree() {
		target = min(target, v.pedestrianDistance())
	}
	c := v.ctx.RuntimeConfig().All.Vehicles
	next := target
	if v.speed-target > c.SafeDeceleration {
		next = max(0, v.speed-c.SafeDeceleration)
	}
	v.speed = max(0, min(next, gap))
}

// destinationDistance 到最近被请求目的站的可行驶距离
func (v *Vehicle) destinationDistance() int {
	if v.anyOvershot() {
		return 0
	}
	requested := v.requestedStops()
	if len(requested) == 0 {
		return unbounded
	}
	sw := v.ctx.Sidewalk()
	for k := 0; k < v.length+v.speed; k++ {
		if stop := sw.StopAt(v.rear + k); stop != nil && requested[stop.ID()] {
			return max(0, k-(v.length-1))
		}
	}
	return unbounded
}

// pedestrianDistance 到最近候车乘客的可行驶距离
func (v *Vehicle) pedestrianDistance() int {
	sw := v.ctx.Sidewalk()
	if sw.SpanSum(v.rear, v.length) > 0 {
		return 0
	}
	for k := 1; k <= v.speed; k++ {
		if sw.Occupancy(v.Front()+k) > 0 {
			return k
		}
	}
	return v.speed
}
