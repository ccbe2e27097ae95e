package entity

// Manager依赖倒置

// entity/road/road.go的依赖倒置
type IRoad interface {
	Length() int
	Width() int
	MaxV() int

	At(pos, row int) Cell                    // 读取占用，pos取模
	SpanSum(start, n, row, width int) int     // 从start起n格、[row,row+width)行的占用编码之和
	Allowed(row int, class VehicleClass) bool // 车道行通行规则

	Place(f Footprint, c Cell) error // 写入占位，已被占用时返回ErrFootprintOccupied且不写入
	Paint(f Footprint, c Cell)       // 覆盖写入（车辆提交自身新位置时使用）
	Erase(f Footprint)
	FreeFor(f, self Footprint) bool // f范围内除self外是否无其他车辆
	Clear()

	OccupiedCells() int
	Snapshot() [][]Cell
}

// entity/sidewalk/sidewalk.go的依赖倒置
type ISidewalk interface {
	Length() int
	MaxPerCell() int

	Stops() []IStop
	// 输入Stop ID，查找Stop，如果不存在则panic
	Get(id StopID) IStop
	// 输入Stop ID，查找Stop，如果不存在则返回error
	GetOrError(id StopID) (IStop, error)
	StopAt(pos int) IStop // pos处的站点，没有则为nil

	Occupancy(pos int) int     // pos处等车人数（每步末重建）
	SpanSum(start, n int) int  // 从start起n格的等车人数之和
	Rebuild()                  // 依据站点队列重建占用
	Snapshot() []int
}

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	// 输入Vehicle ID，查找Vehicle，如果不存在则panic
	Get(id VehicleID) IVehicle
	// 输入Vehicle ID，查找Vehicle，如果不存在则返回error
	GetOrError(id VehicleID) (IVehicle, error)

	Spawning() bool // 是否仍在投放车辆阶段
	Update()        // 更新阶段
	Rebuild()       // 依据车辆位置重建道路占用
}

// entity/passenger/manager.go的依赖倒置
type IPassengerManager interface {
	// 输入Passenger ID，查找Passenger，如果不存在则panic
	Get(id PassengerID) IPassenger
	// 输入Passenger ID，查找Passenger，如果不存在则返回error
	GetOrError(id PassengerID) (IPassenger, error)

	Generate()   // 各站点按到达率生成乘客
	Reposition() // 等车乘客横向挪动

	Waiting() int
	InTransit() int
	Alighted() int
	Total() int
}
