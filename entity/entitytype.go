package entity

import (
	"fmt"

	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

// 句柄类型，仿真内的实体之间只通过ID相互引用
type (
	VehicleID   int32
	PassengerID int32
	StopID      int32
)

// NoVehicle 乘客未乘车时的车辆ID
const NoVehicle VehicleID = -1

// 车道行
const (
	RightRow    = 0 // 右侧（路缘）车道，上下客车道
	StraddleRow = 1 // 过渡车道，只在变道途中占用
	LeftRow     = 2 // 左侧车道
)

// Cell 道路占用编码
type Cell uint8

const (
	CellEmpty   Cell = 0
	CellTransit Cell = 1
	CellFreight Cell = 2
)

// VehicleClass 车辆类别
type VehicleClass int

const (
	Transit VehicleClass = iota // 载客小巴（jeepney）
	Freight                     // 货车，不停靠
)

func (c VehicleClass) String() string {
	switch c {
	case Transit:
		return config.ClassTransit
	case Freight:
		return config.ClassFreight
	}
	return fmt.Sprintf("VehicleClass(%d)", int(c))
}

// Cell 该类别车辆在占用网格上的编码
func (c VehicleClass) Cell() Cell {
	if c == Freight {
		return CellFreight
	}
	return CellTransit
}

// LaneChangeDirection 变道方向
type LaneChangeDirection int

const (
	LCNone  LaneChangeDirection = iota
	LCLeft                      // 车道行增大（0 -> 2）
	LCRight                     // 车道行减小（2 -> 0）
)

// Sign 方向对应的车道行增量
func (d LaneChangeDirection) Sign() int {
	switch d {
	case LCLeft:
		return 1
	case LCRight:
		return -1
	}
	return 0
}

// Footprint 车辆在道路上的覆盖范围
// 说明：纵向[Rear, Rear+Length)取模道路长度，横向[Row, Row+Width)截断到道路宽度
type Footprint struct {
	Rear   int
	Length int
	Row    int
	Width  int
}

func (f Footprint) String() string {
	return fmt.Sprintf("Footprint{Rear=%d, Length=%d, Row=%d, Width=%d}", f.Rear, f.Length, f.Row, f.Width)
}

// entity/vehicle/vehicle.go的依赖倒置
type IVehicle interface {
	ID() VehicleID
	Class() VehicleClass
	Rear() int     // 车尾位置
	PrevRear() int // 本步开始时的车尾位置
	Length() int
	Speed() int
	Row() int
	Capacity() int
	Boarded() int // 车上乘客数

	DidCrossEdge() bool     // 本步车尾越过周期边界
	AboutToCrossEdge() bool // 再走speed格车头就会越过边界

	KnowsDestination(stop StopID) bool // 司机是否已知该目的站
	StopInWindow(stop StopID) bool     // 站点是否在车身旁或前视范围内
	InformDestination(stop StopID)     // 乘客告知目的站
	ForgetDestination(stop StopID)     // 乘客下车后移除目的站

	String() string
}

// entity/passenger/passenger.go的依赖倒置
type IPassenger interface {
	ID() PassengerID
	State() RidingState
	Destination() StopID
	Vehicle() VehicleID
	EdgeCrossings() int
	LetMeOut() bool  // 是否已请求下车
	Overshot() bool  // 是否已坐过站
	Informed() bool  // 是否已告知司机目的站

	Board(v IVehicle) error // 上车
	Alight(v IVehicle) error
	UpdateRequest(v IVehicle)   // 刷新下车请求
	UpdateCrossing(v IVehicle)  // 车辆移动后刷新越界记录与告知司机
	UpdateOvershoot(v IVehicle) // 车辆移动后刷新过站判断

	String() string
}

// entity/sidewalk/stop.go的依赖倒置
type IStop interface {
	ID() StopID
	Position() int

	Enqueue(p PassengerID)
	Dequeue() (PassengerID, bool)
	RemoveWaiting(p PassengerID) bool
	WaitingLen() int
	Waiting() []PassengerID

	RegisterUnloading(p PassengerID)
	UnregisterUnloading(p PassengerID) bool
	IsUnloading(p PassengerID) bool
	UnloadingLen() int
}
