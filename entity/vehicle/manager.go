package vehicle

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

// Manager 车辆管理器
// 功能：管理全部车辆，负责投放、逐步更新、占用网格重建与通过量统计
type Manager struct {
	ctx entity.ITaskContext

	data     map[entity.VehicleID]*Vehicle
	vehicles []*Vehicle // 按投放顺序
	order    []*Vehicle // 本步更新顺序

	// 投放
	targetTransit int
	targetFreight int
	spawning      bool
	failures      int32 // 连续放置失败次数
	maxFailures   int32

	counter Counter
}

// NewManager 创建车辆管理器
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:  ctx,
		data: make(map[entity.VehicleID]*Vehicle),
	}
}

// Init 计算目标车辆数，进入投放阶段
// 功能：由密度与货车比例确定两类车辆数
// 算法说明：
// 1. N = int(density·L·W·(κ/A_f + (1-κ)/A_t))，A_f、A_t为货车、小巴的占地面积
// 2. 货车数为int(N·κ)，其余为小巴
// 3. 连续放置失败上限未配置时取2N
func (m *Manager) Init() {
	rc := m.ctx.RuntimeConfig()
	c := rc.All.Vehicles
	area := float64(rc.All.Road.Length * rc.All.Road.Width)
	freightArea := float64(c.Freight.Length * c.Freight.Width)
	transitArea := float64(c.Transit.Length * c.Transit.Width)
	kappa := c.TruckFraction
	n := int(c.Density * area * (kappa/freightArea + (1-kappa)/transitArea))
	m.targetFreight = int(float64(n) * kappa)
	m.targetTransit = n - m.targetFreight
	m.maxFailures = rc.MaxPlacementFailures
	if m.maxFailures == 0 {
		m.maxFailures = int32(2 * n)
	}
	m.failures = 0
	m.spawning = n > 0
	log.Infof("vehicle: target %d transit, %d freight", m.targetTransit, m.targetFreight)
}

// Get 输入Vehicle ID，查找Vehicle，如果不存在则panic
func (m *Manager) Get(id entity.VehicleID) entity.IVehicle {
	if v, ok := m.data[id]; !ok {
		log.Panicf("no id %d in vehicle data", id)
		return nil
	} else {
		return v
	}
}

// GetOrError 输入Vehicle ID，查找Vehicle，如果不存在则返回error
func (m *Manager) GetOrError(id entity.VehicleID) (entity.IVehicle, error) {
	if v, ok := m.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in vehicle data", id)
	} else {
		return v, nil
	}
}

// Vehicles 全部车辆，按投放顺序
func (m *Manager) Vehicles() []*Vehicle {
	return m.vehicles
}

// Count 某类车辆数
func (m *Manager) Count(class entity.VehicleClass) int {
	return lo.CountBy(m.vehicles, func(v *Vehicle) bool { return v.class == class })
}

// Targets 目标小巴数与货车数
func (m *Manager) Targets() (int, int) {
	return m.targetTransit, m.targetFreight
}

func (m *Manager) Spawning() bool {
	return m.spawning
}

// Counter 累计通过量
func (m *Manager) Counter() Counter {
	return m.counter
}

// MeanSpeed 某类车辆本步的空间平均速度，无此类车辆时为0
func (m *Manager) MeanSpeed(class entity.VehicleClass) float64 {
	vs := lo.Filter(m.vehicles, func(v *Vehicle, _ int) bool { return v.class == class })
	if len(vs) == 0 {
		return 0
	}
	return float64(lo.SumBy(vs, func(v *Vehicle) int { return v.speed })) / float64(len(vs))
}

// OccupiedArea 某类车辆的占地面积之和
func (m *Manager) OccupiedArea(class entity.VehicleClass) int {
	return lo.SumBy(m.vehicles, func(v *Vehicle) int {
		if v.class != class {
			return 0
		}
		return v.length * v.width
	})
}

func (m *Manager) vehicleType(class entity.VehicleClass) config.VehicleType {
	if class == entity.Freight {
		return m.ctx.RuntimeConfig().All.Vehicles.Freight
	}
	return m.ctx.RuntimeConfig().All.Vehicles.Transit
}

// Add 在指定位置放置一辆车
// 参数：class-类别，rear-车尾位置，row-车道行，speed-初始速度
// 返回：新车辆；车道行不允许该类别或位置已被占用时返回错误且不放置
func (m *Manager) Add(class entity.VehicleClass, rear, row, speed int) (*Vehicle, error) {
	road := m.ctx.Road()
	if row < entity.RightRow || row > entity.LeftRow || !road.Allowed(row, class) {
		return nil, fmt.Errorf("vehicle: row %d not allowed for %v", row, class)
	}
	t := m.vehicleType(class)
	prob := t.LaneChangingProb
	if t.RandomLaneChanging {
		prob = m.ctx.Generator().Float64()
	}
	v := newVehicle(m.ctx, m, m.ctx.IDs().NextVehicle(), class, t, prob)
	v.rear = entity.Mod(rear, road.Length())
	v.prevRear = v.rear
	v.row = row
	v.speed = lo.Clamp(speed, 0, road.MaxV())
	if err := road.Place(v.Footprint(), class.Cell()); err != nil {
		return nil, fmt.Errorf("vehicle: add %v: %w", class, err)
	}
	m.data[v.id] = v
	m.vehicles = append(m.vehicles, v)
	return v, nil
}

// spawn 尝试投放一辆车
// 说明：随机选取一个允许的投放车道行，从位置0起找到第一个空闲位置放置，速度为0
func (m *Manager) spawn(class entity.VehicleClass) bool {
	road := m.ctx.Road()
	t := m.vehicleType(class)
	rows := lo.Filter(t.SpawnRows, func(row int, _ int) bool { return road.Allowed(row, class) })
	if len(rows) == 0 {
		return false
	}
	row := rows[m.ctx.Generator().Choice(len(rows))]
	for x := 0; x <= road.Length()-t.Length; x++ {
		if road.SpanSum(x, t.Length, row, t.Width) != 0 {
			continue
		}
		if _, err := m.Add(class, x, row, 0); err != nil {
			log.Panicf("vehicle: spawn at free position %d: %v", x, err)
		}
		return true
	}
	return false
}

// spawnStep 投放阶段的一步
// 功能：在尚未达到目标数的类别中抛硬币选一类，尝试放置一辆
// 说明：全部放置完成，或连续失败达到上限时结束投放阶段
func (m *Manager) spawnStep() {
	var short []entity.VehicleClass
	if m.Count(entity.Transit) < m.targetTransit {
		short = append(short, entity.Transit)
	}
	if m.Count(entity.Freight) < m.targetFreight {
		short = append(short, entity.Freight)
	}
	if len(short) == 0 {
		m.finishSpawning()
		return
	}
	class := short[m.ctx.Generator().Choice(len(short))]
	if m.spawn(class) {
		m.failures = 0
	} else {
		m.failures++
		log.Debugf("vehicle: no space for %v (%d consecutive failures)", class, m.failures)
		if m.failures >= m.maxFailures {
			log.Warnf("vehicle: placement failed %d times in a row, start with %d transit, %d freight",
				m.failures, m.Count(entity.Transit), m.Count(entity.Freight))
			m.finishSpawning()
			return
		}
	}
	if m.Count(entity.Transit) >= m.targetTransit && m.Count(entity.Freight) >= m.targetFreight {
		m.finishSpawning()
	}
}

func (m *Manager) finishSpawning() {
	m.spawning = false
	log.Infof("vehicle: spawned %d transit, %d freight at step %d",
		m.Count(entity.Transit), m.Count(entity.Freight), m.ctx.Clock().InternalStep)
}

// Update 更新阶段
// 功能：投放阶段只做一次放置尝试；否则以随机顺序逐辆更新，统计通过量，暂态期后记录时间平均速度
func (m *Manager) Update() {
	if m.spawning {
		m.spawnStep()
		return
	}
	m.order = append(m.order[:0], m.vehicles...)
	m.ctx.Generator().Shuffle(len(m.order), func(i, j int) {
		m.order[i], m.order[j] = m.order[j], m.order[i]
	})
	steady := m.ctx.Clock().Steady()
	for _, v := range m.order {
		v.update()
		m.counter.count(v)
		if steady {
			v.sample()
		}
	}
}

// Rebuild 依据车辆覆盖范围重建道路占用
// 说明：重建时出现重叠即为车辆相撞
func (m *Manager) Rebuild() {
	road := m.ctx.Road()
	road.Clear()
	for _, v := range m.vehicles {
		if err := road.Place(v.Footprint(), v.class.Cell()); err != nil {
			m.ctx.ReportViolation("vehicle %d: rebuild: %v", v.id, err)
		}
	}
}
