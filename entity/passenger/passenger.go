package passenger

import (
	"fmt"

	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
)

// Passenger 乘客实体
// 功能：在站点等车、乘坐小巴、到站下车的行人
// 说明：乘客不持有车辆指针，只记录车辆ID，车辆在调用时把自身传入
type Passenger struct {
	ctx entity.ITaskContext
	m   *Manager

	id          entity.PassengerID
	spawnStop   entity.StopID // 出生站点
	stop        entity.StopID // 当前等车站点（横向挪动后会变化）
	boardStop   entity.StopID // 上车站点
	destination entity.StopID // 目的站点
	destPos     int           // 目的站点位置
	boardPos    int           // 上车站点位置

	state   entity.RidingState
	vehicle entity.VehicleID

	edgeCrossings int  // 上车后车辆越过周期边界的次数，饱和于1
	aboutToCross  bool // 车辆即将越界（粘滞）
	overshot      bool // 坐过站（粘滞）
	informed      bool // 已告知司机目的站
	travelled     int  // 上车后行驶的元胞数

	spawnTime, boardTime, alightTime float64 // 未发生为-1
}

func newPassenger(ctx entity.ITaskContext, m *Manager, id entity.PassengerID, stop, destination entity.IStop) *Passenger {
	return &Passenger{
		ctx:         ctx,
		m:           m,
		id:          id,
		spawnStop:   stop.ID(),
		stop:        stop.ID(),
		boardStop:   -1,
		destination: destination.ID(),
		destPos:     destination.Position(),
		boardPos:    -1,
		state:       entity.Waiting,
		vehicle:     entity.NoVehicle,
		spawnTime:   ctx.Clock().T,
		boardTime:   -1,
		alightTime:  -1,
	}
}

func (p *Passenger) String() string {
	return fmt.Sprintf("Passenger{id=%d, state=%v, stop=%d, dest=%d, vehicle=%d}", p.id, p.state, p.stop, p.destination, p.vehicle)
}

func (p *Passenger) ID() entity.PassengerID {
	return p.id
}

func (p *Passenger) State() entity.RidingState {
	return p.state
}

func (p *Passenger) Destination() entity.StopID {
	return p.destination
}

func (p *Passenger) Vehicle() entity.VehicleID {
	return p.vehicle
}

func (p *Passenger) EdgeCrossings() int {
	return p.edgeCrossings
}

func (p *Passenger) LetMeOut() bool {
	return p.state == entity.RequestingStop
}

func (p *Passenger) Overshot() bool {
	return p.overshot
}

func (p *Passenger) Informed() bool {
	return p.informed
}

// Stop 当前等车站点
func (p *Passenger) Stop() entity.StopID {
	return p.stop
}

func (p *Passenger) SpawnStop() entity.StopID {
	return p.spawnStop
}

func (p *Passenger) BoardStop() entity.StopID {
	return p.boardStop
}

func (p *Passenger) SpawnTime() float64 {
	return p.spawnTime
}

func (p *Passenger) BoardTime() float64 {
	return p.boardTime
}

func (p *Passenger) AlightTime() float64 {
	return p.alightTime
}

// RidingTime 乘车时间，在车上时计到当前时刻，未上车为-1
func (p *Passenger) RidingTime() float64 {
	switch {
	case p.boardTime < 0:
		return -1
	case p.alightTime < 0:
		return p.ctx.Clock().T - p.boardTime
	}
	return p.alightTime - p.boardTime
}

// WaitingTime 等车时间，仍在等车时计到当前时刻
func (p *Passenger) WaitingTime() float64 {
	if p.boardTime < 0 {
		return p.ctx.Clock().T - p.spawnTime
	}
	return p.boardTime - p.spawnTime
}

// visible 目的站是否已进入可请求范围
// 说明：上车时车辆尚未绕行，位于上车站点之后（边界之前）的目的站可直接请求，
// 其余目的站需等车辆越过或即将越过周期边界
func (p *Passenger) visible() bool {
	return p.edgeCrossings >= 1 || p.aboutToCross || p.destPos > p.boardPos
}

// Board 上车
// 功能：Waiting -> Boarded，登记到目的站的下车表，移入在途集合
// 参数：v-乘坐的车辆（调用方已将乘客从站点队列中取出）
// 返回：状态转移不合法时返回错误且不做任何修改
func (p *Passenger) Board(v entity.IVehicle) error {
	next, err := entity.NextRidingState(p.state, entity.EventBoard)
	if err != nil {
		return fmt.Errorf("passenger %d: %w", p.id, err)
	}
	stop := p.ctx.Sidewalk().Get(p.stop)
	p.state = next
	p.vehicle = v.ID()
	p.boardStop = p.stop
	p.boardPos = stop.Position()
	p.boardTime = p.ctx.Clock().T
	p.travelled = 0
	p.ctx.Sidewalk().Get(p.destination).RegisterUnloading(p.id)
	p.m.moveToTransit(p)
	return nil
}

// Alight 下车
// 功能：RequestingStop -> Alighted，从车辆已知目的站和站点下车表中移除，移入已到达集合
// 返回：状态转移不合法时返回错误
func (p *Passenger) Alight(v entity.IVehicle) error {
	next, err := entity.NextRidingState(p.state, entity.EventAlight)
	if err != nil {
		return fmt.Errorf("passenger %d: %w", p.id, err)
	}
	if p.vehicle != v.ID() {
		return fmt.Errorf("passenger %d: alight from vehicle %d but rides %d", p.id, v.ID(), p.vehicle)
	}
	if p.informed {
		v.ForgetDestination(p.destination)
	}
	if !p.ctx.Sidewalk().Get(p.destination).UnregisterUnloading(p.id) {
		p.ctx.ReportViolation("passenger %d not registered for unloading at stop %d", p.id, p.destination)
	}
	p.state = next
	p.vehicle = entity.NoVehicle
	p.alightTime = p.ctx.Clock().T
	p.m.moveToAlighted(p)
	return nil
}

// UpdateRequest 刷新下车请求
// 功能：司机已知目的站、目的站在车身旁或前视范围内、且目的站可见时，Boarded -> RequestingStop
func (p *Passenger) UpdateRequest(v entity.IVehicle) {
	if p.state != entity.Boarded {
		return
	}
	if !v.KnowsDestination(p.destination) || !v.StopInWindow(p.destination) || !p.visible() {
		return
	}
	next, err := entity.NextRidingState(p.state, entity.EventRequestStop)
	if err != nil {
		log.Panicf("passenger %d: %v", p.id, err)
	}
	p.state = next
}

// UpdateCrossing 车辆移动后刷新越界记录
// 功能：记录越界（饱和于1）与即将越界，累计行驶距离，超过告知距离后告知司机目的站
func (p *Passenger) UpdateCrossing(v entity.IVehicle) {
	if p.state != entity.Boarded && p.state != entity.RequestingStop {
		return
	}
	if p.edgeCrossings < 1 && v.DidCrossEdge() {
		p.edgeCrossings = 1
	}
	if v.AboutToCrossEdge() {
		p.aboutToCross = true
	}
	if p.informed {
		return
	}
	p.travelled += entity.Mod(v.Rear()-v.PrevRear(), p.ctx.Road().Length())
	if p.travelled > p.ctx.RuntimeConfig().All.Passengers.InformDistance {
		p.informed = true
		v.InformDestination(p.destination)
	}
}

// UpdateOvershoot 车辆移动后判断是否坐过站
// 说明：本步车尾扫过的周期区间[prevRear, rear)包含目的站位置即为过站
func (p *Passenger) UpdateOvershoot(v entity.IVehicle) {
	if p.state != entity.RequestingStop || p.overshot {
		return
	}
	if entity.InCircularInterval(v.PrevRear(), v.Rear(), p.destPos) {
		p.overshot = true
		log.Debugf("passenger %d overshot stop %d on vehicle %d", p.id, p.destination, v.ID())
	}
}
