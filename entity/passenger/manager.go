package passenger

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/container"
)

// Manager 乘客管理器
// 功能：管理全部乘客，负责到站生成、横向挪动，维护等车/在途/已到达三个互斥集合
// 说明：集合迁移只发生在Passenger.Board与Passenger.Alight中
type Manager struct {
	ctx entity.ITaskContext

	data       map[entity.PassengerID]*Passenger
	passengers []*Passenger // 按生成顺序

	waiting   *container.Set[entity.PassengerID]
	inTransit *container.Set[entity.PassengerID]
	alighted  *container.Set[entity.PassengerID]
}

// NewManager 创建乘客管理器
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:       ctx,
		data:      make(map[entity.PassengerID]*Passenger),
		waiting:   container.NewSet[entity.PassengerID](),
		inTransit: container.NewSet[entity.PassengerID](),
		alighted:  container.NewSet[entity.PassengerID](),
	}
}

// Get 输入Passenger ID，查找Passenger，如果不存在则panic
func (m *Manager) Get(id entity.PassengerID) entity.IPassenger {
	if p, ok := m.data[id]; !ok {
		log.Panicf("no id %d in passenger data", id)
		return nil
	} else {
		return p
	}
}

// GetOrError 输入Passenger ID，查找Passenger，如果不存在则返回error
func (m *Manager) GetOrError(id entity.PassengerID) (entity.IPassenger, error) {
	if p, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in passenger data", id)
	} else {
		return p, nil
	}
}

// Passengers 全部乘客，按生成顺序
func (m *Manager) Passengers() []*Passenger {
	return m.passengers
}

func (m *Manager) Waiting() int {
	return m.waiting.Len()
}

func (m *Manager) InTransit() int {
	return m.inTransit.Len()
}

func (m *Manager) Alighted() int {
	return m.alighted.Len()
}

func (m *Manager) Total() int {
	return len(m.passengers)
}

// Add 在站点生成一名乘客并排队
func (m *Manager) Add(stop, destination entity.IStop) *Passenger {
	p := newPassenger(m.ctx, m, m.ctx.IDs().NextPassenger(), stop, destination)
	if _, ok := m.data[p.id]; ok {
		log.Panicf("passenger: duplicated id %d", p.id)
	}
	m.data[p.id] = p
	m.passengers = append(m.passengers, p)
	m.waiting.Add(p.id)
	stop.Enqueue(p.id)
	return p
}

// Generate 到站生成
// 功能：每个站点做一次伯努利试验，成功且站点等车人数未达上限时生成一名乘客
// 说明：目的站由目的地策略决定，same_stop为出发站本身，uniform在其余站点中均匀抽取
func (m *Manager) Generate() {
	rate := m.ctx.RuntimeConfig().All.Passengers.ArrivalRate
	maxPerCell := m.ctx.Sidewalk().MaxPerCell()
	stops := m.ctx.Sidewalk().Stops()
	generator := m.ctx.Generator()
	for i, stop := range stops {
		if !generator.PTrue(rate) || stop.WaitingLen() >= maxPerCell {
			continue
		}
		destination := stop
		if m.ctx.RuntimeConfig().Destination == config.DestinationUniform && len(stops) > 1 {
			j := generator.IntRange(0, len(stops)-2)
			if j >= i {
				j++
			}
			destination = stops[j]
		}
		m.Add(stop, destination)
	}
}

// Reposition 等车乘客横向挪动
// 功能：乘客观察视距内右侧车道上的小巴，挪到更近一侧的小巴旁
// 算法说明：
// 1. 以随机顺序遍历等车乘客，身旁已有小巴的不动
// 2. 分别向前、向后在sight_distance内寻找最近的小巴，距离相同时抛硬币
// 3. 目标格有站点且未满才挪动
func (m *Manager) Reposition() {
	sight := m.ctx.RuntimeConfig().All.Passengers.SightDistance
	if sight <= 0 {
		return
	}
	road := m.ctx.Road()
	sw := m.ctx.Sidewalk()
	generator := m.ctx.Generator()
	ids := m.waiting.Values()
	generator.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	transitAt := func(pos int) bool {
		return road.At(pos, entity.RightRow) == entity.CellTransit
	}
	for _, id := range ids {
		p := m.data[id]
		from := sw.Get(p.stop)
		pos := from.Position()
		if transitAt(pos) {
			continue
		}
		ahead, behind := 0, 0
		for d := 1; d <= sight; d++ {
			if ahead == 0 && transitAt(pos+d) {
				ahead = d
			}
			if behind == 0 && transitAt(pos-d) {
				behind = d
			}
		}
		var target int
		switch {
		case ahead == 0 && behind == 0:
			continue
		case behind == 0 || (ahead != 0 && ahead < behind):
			target = pos + ahead
		case ahead == 0 || behind < ahead:
			target = pos - behind
		case generator.PTrue(0.5):
			target = pos + ahead
		default:
			target = pos - behind
		}
		to := sw.StopAt(target)
		if to == nil || to.WaitingLen() >= sw.MaxPerCell() {
			continue
		}
		if !from.RemoveWaiting(p.id) {
			m.ctx.ReportViolation("passenger %d not queued at stop %d", p.id, p.stop)
			continue
		}
		to.Enqueue(p.id)
		p.stop = to.ID()
	}
}

// Check 校验乘客守恒
// 功能：每名乘客恰在与其状态对应的一个集合中，且等车乘客在其站点队列里
func (m *Manager) Check() error {
	if n := m.waiting.Len() + m.inTransit.Len() + m.alighted.Len(); n != len(m.passengers) {
		return fmt.Errorf("passenger sets hold %d, want %d", n, len(m.passengers))
	}
	for _, p := range m.passengers {
		var ok bool
		switch p.state {
		case entity.Waiting:
			ok = m.waiting.Has(p.id) && lo.Contains(m.ctx.Sidewalk().Get(p.stop).Waiting(), p.id)
		case entity.Boarded, entity.RequestingStop:
			ok = m.inTransit.Has(p.id) && p.vehicle != entity.NoVehicle
		case entity.Alighted:
			ok = m.alighted.Has(p.id)
		}
		if !ok {
			return fmt.Errorf("passenger %v is not in the set matching its state", p)
		}
	}
	return nil
}

func (m *Manager) moveToTransit(p *Passenger) {
	if !m.waiting.Remove(p.id) {
		m.ctx.ReportViolation("passenger %d boarded but not waiting", p.id)
	}
	m.inTransit.Add(p.id)
}

func (m *Manager) moveToAlighted(p *Passenger) {
	if !m.inTransit.Remove(p.id) {
		m.ctx.ReportViolation("passenger %d alighted but not in transit", p.id)
	}
	m.alighted.Add(p.id)
}
