package vehicle

import (
	"fmt"

	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/container"
)

// Vehicle 车辆实体
// 功能：在周期道路上行驶的小巴（载客）或货车（不停靠）
// 说明：位置以车尾为准，覆盖纵向[rear, rear+length)、横向[row, row+width)的元胞；
// 每次移动后立即把自身新位置写入占用网格，同一步内后处理的车辆看到的是最新位置
type Vehicle struct {
	ctx entity.ITaskContext
	m   *Manager

	// 静态属性
	id               entity.VehicleID
	class            entity.VehicleClass
	length           int
	width            int
	capacity         int
	laneChangingProb float64

	// 运行时数据
	rear      int
	prevRear  int // 本步开始时的车尾位置
	row       int
	speed     int
	direction entity.LaneChangeDirection
	retries   int // 载客变道重试次数

	didCrossEdge     bool
	aboutToCrossEdge bool

	passengers *container.Set[entity.PassengerID] // 车上乘客
	known      map[entity.StopID]int              // 司机已知的目的站（多重集）
	adjacent   []entity.IStop                     // 车身旁的站点
	ahead      []entity.IStop                     // 前视范围内的站点

	servedThisTick int // 本步上下客人数

	// 统计
	speedSum     float64
	speedSamples int
	delivered    int // 送达乘客数
	boardings    int // 上车乘客数
}

func newVehicle(ctx entity.ITaskContext, m *Manager, id entity.VehicleID, class entity.VehicleClass, t config.VehicleType, laneChangingProb float64) *Vehicle {
	return &Vehicle{
		ctx:              ctx,
		m:                m,
		id:               id,
		class:            class,
		length:           t.Length,
		width:            t.Width,
		capacity:         t.Capacity,
		laneChangingProb: laneChangingProb,
		passengers:       container.NewSet[entity.PassengerID](),
		known:            make(map[entity.StopID]int),
	}
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{id=%d, class=%v, rear=%d, row=%d, speed=%d, boarded=%d}", v.id, v.class, v.rear, v.row, v.speed, v.passengers.Len())
}

func (v *Vehicle) ID() entity.VehicleID {
	return v.id
}

func (v *Vehicle) Class() entity.VehicleClass {
	return v.class
}

func (v *Vehicle) Rear() int {
	return v.rear
}

func (v *Vehicle) PrevRear() int {
	return v.prevRear
}

// Front 车头位置（未取模）
func (v *Vehicle) Front() int {
	return v.rear + v.length - 1
}

func (v *Vehicle) Length() int {
	return v.length
}

func (v *Vehicle) Width() int {
	return v.width
}

func (v *Vehicle) Speed() int {
	return v.speed
}

func (v *Vehicle) Row() int {
	return v.row
}

func (v *Vehicle) Capacity() int {
	return v.capacity
}

func (v *Vehicle) Boarded() int {
	return v.passengers.Len()
}

// Passengers 车上乘客ID
func (v *Vehicle) Passengers() []entity.PassengerID {
	return v.passengers.Values()
}

func (v *Vehicle) Direction() entity.LaneChangeDirection {
	return v.direction
}

func (v *Vehicle) Retries() int {
	return v.retries
}

func (v *Vehicle) DidCrossEdge() bool {
	return v.didCrossEdge
}

func (v *Vehicle) AboutToCrossEdge() bool {
	return v.aboutToCrossEdge
}

// Delivered 送达乘客数
func (v *Vehicle) Delivered() int {
	return v.delivered
}

// Boardings 累计上车乘客数
func (v *Vehicle) Boardings() int {
	return v.boardings
}

// MeanSpeed 暂态期后的时间平均速度，无样本时为0
func (v *Vehicle) MeanSpeed() float64 {
	if v.speedSamples == 0 {
		return 0
	}
	return v.speedSum / float64(v.speedSamples)
}

// Footprint 当前覆盖范围
func (v *Vehicle) Footprint() entity.Footprint {
	return v.footprintAt(v.rear, v.row)
}

func (v *Vehicle) footprintAt(rear, row int) entity.Footprint {
	return entity.Footprint{Rear: rear, Length: v.length, Row: row, Width: v.width}
}

func (v *Vehicle) seatsFree() bool {
	return v.passengers.Len() < v.capacity
}

// beginTick 本步开始，记录车尾位置
func (v *Vehicle) beginTick() {
	v.prevRear = v.rear
	v.didCrossEdge = false
	v.servedThisTick = 0
}

// Move 按当前速度在当前车道行前进
func (v *Vehicle) Move() {
	v.translate(v.row)
}

// translate 前进speed格并移到newRow，随即提交占用
// 说明：越界判断相对本步开始时的车尾，一步内两次移动（开始跨道后继续行驶）也只算一次
func (v *Vehicle) translate(newRow int) {
	road := v.ctx.Road()
	old := v.Footprint()
	next := v.footprintAt(entity.Mod(v.rear+v.speed, road.Length()), newRow)
	if !road.FreeFor(next, old) {
		v.ctx.ReportViolation("vehicle %d: move %v -> %v overlaps another vehicle", v.id, old, next)
	}
	v.rear = next.Rear
	v.row = newRow
	v.didCrossEdge = v.rear < v.prevRear
	v.aboutToCrossEdge = v.rear+v.length-1+v.speed >= road.Length()
	road.Erase(old)
	road.Paint(next, v.class.Cell())
}

// update 一步更新
// 算法说明：
// 1. 变道途中（车道行1）只尝试完成变道
// 2. 否则依次：加速 -> 感知站点 -> 按概率变道 -> 减速 -> 下客 -> 上客 -> 随机慢化 -> 前进
// 3. 车上乘客刷新越界、告知与过站记录
func (v *Vehicle) update() {
	v.beginTick()
	if v.row == entity.StraddleRow {
		v.FinishLaneChange()
	} else {
		v.Accelerate()
		if v.class == entity.Transit {
			v.WillUnloadPassengers()
		}
		if v.ctx.Generator().PTrue(v.laneChangingProb) {
			v.LaneChanging()
		}
		v.Decelerate()
		if v.class == entity.Transit {
			v.Unloading()
			v.Loading()
		}
		v.RandomSlowdown()
		v.Move()
	}
	v.updatePassengers()
}

func (v *Vehicle) updatePassengers() {
	if v.passengers.Len() == 0 {
		return
	}
	pm := v.ctx.PassengerManager()
	for _, pid := range v.passengers.Values() {
		p := pm.Get(pid)
		p.UpdateCrossing(v)
		p.UpdateOvershoot(v)
	}
}

// sample 记录一次时间平均速度样本
func (v *Vehicle) sample() {
	v.speedSum += float64(v.speed)
	v.speedSamples++
}
