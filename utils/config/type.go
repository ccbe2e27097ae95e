package config

// OutputPath 指定结果写入位置（MongoDB）
// 功能：定义输出集合的数据库与集合名
// 说明：实现GetDb/GetColl，可直接交给mongoutil获取集合
type OutputPath struct {
	DB  string `yaml:"db" validate:"required"`  // 数据库名
	Col string `yaml:"col" validate:"required"` // 集合名前缀，实际集合为{col}_{kind}
}

// GetDb 获取数据库名
func (p OutputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p OutputPath) GetColl() string {
	return p.Col
}

// Output 结果输出配置
// 说明：URI为空时不写数据库，只在日志中打印汇总
type Output struct {
	URI  string     `yaml:"uri"`  // MongoDB连接字符串
	Path OutputPath `yaml:"path"` // 写入位置
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：每步对应元胞自动机的一次同步更新
type ControlStep struct {
	Start     int32   `yaml:"start" validate:"gte=0"`     // 开始步数
	Total     int32   `yaml:"total" validate:"gt=0"`      // 总步数
	Interval  float64 `yaml:"interval" validate:"gt=0"`   // 每步的时间间隔（秒）
	Transient int32   `yaml:"transient" validate:"gte=0"` // 暂态步数，之后才统计时间平均速度与汇总指标
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
// 说明：包含时间控制、随机种子、服务策略等
type Control struct {
	Step ControlStep `yaml:"step"`
	Seed uint64      `yaml:"seed"` // 随机种子
	// 严格模式：记账错误直接panic，否则只计数并告警
	Strict bool `yaml:"strict,omitempty"`
	// 上下客策略：fill（每次停靠尽量多上下客）或 one_per_tick（每车每步只服务一人）
	ServicePolicy string `yaml:"service_policy" validate:"oneof=fill one_per_tick"`
	// 放置车辆连续失败上限，为0时取目标车辆数的2倍
	MaxPlacementFailures int32 `yaml:"max_placement_failures,omitempty" validate:"gte=0"`
	Snapshot             bool  `yaml:"snapshot,omitempty"` // 是否记录每步占用快照
}

// RowRule 单个车道行允许通行的车辆类别
type RowRule struct {
	Row     int      `yaml:"row" validate:"gte=0,lte=2"`
	Classes []string `yaml:"classes" validate:"dive,oneof=transit freight"`
}

// Road 道路配置
type Road struct {
	Length      int       `yaml:"length" validate:"gte=20"`     // 元胞数，周期边界
	Width       int       `yaml:"width" validate:"gte=3"`       // 横向元胞数
	SpeedLimit  int       `yaml:"speed_limit" validate:"gt=0"`  // 最大速度（元胞/步）
	AllowedRows []RowRule `yaml:"allowed_rows" validate:"dive"` // 车道行通行规则
}

// VehicleType 一类车辆的属性
type VehicleType struct {
	Length           int     `yaml:"length" validate:"gt=0"`
	Width            int     `yaml:"width" validate:"gt=0"`
	Capacity         int     `yaml:"capacity" validate:"gte=0"`
	SpawnRows        []int   `yaml:"spawn_rows" validate:"min=1,dive,oneof=0 2"`
	LaneChangingProb float64 `yaml:"lane_changing_prob" validate:"gte=0,lte=1"`
	// 为true时每辆车在生成时从U(0,1)抽取自己的变道概率，忽略LaneChangingProb
	RandomLaneChanging bool `yaml:"random_lane_changing,omitempty"`
}

// Vehicles 车辆总体配置
type Vehicles struct {
	Density           float64     `yaml:"density" validate:"gte=0,lte=1"`
	TruckFraction     float64     `yaml:"truck_fraction" validate:"gte=0,lte=1"`
	BrakingProb       float64     `yaml:"braking_prob" validate:"gte=0,lte=1"`
	SafeStoppingSpeed int         `yaml:"safe_stopping_speed" validate:"gte=0"` // 仅为兼容参数文件保留，不参与减速
	SafeDeceleration  int         `yaml:"safe_deceleration" validate:"gt=0"`
	LaneChangeRetries int         `yaml:"lane_change_retries" validate:"gte=0"`
	Transit           VehicleType `yaml:"transit"`
	Freight           VehicleType `yaml:"freight"`
}

// StopLayout 站点布局
// 说明：even等间距（间距为1即处处可上下车），explicit显式位置，random正态随机间距
type StopLayout struct {
	Mode        string  `yaml:"mode" validate:"oneof=even explicit random"`
	Spacing     int     `yaml:"spacing,omitempty" validate:"required_if=Mode even,gte=0"`
	Positions   []int   `yaml:"positions,omitempty" validate:"required_if=Mode explicit,dive,gte=0"`
	MeanSpacing float64 `yaml:"mean_spacing,omitempty" validate:"gte=0"`
	StdSpacing  float64 `yaml:"std_spacing,omitempty" validate:"gte=0"`
	MinSpacing  int     `yaml:"min_spacing,omitempty" validate:"gte=0"`
}

// Sidewalk 人行道配置
type Sidewalk struct {
	MaxPassengersPerCell int        `yaml:"max_passengers_per_cell" validate:"gt=0"`
	Stops                StopLayout `yaml:"stops"`
}

// Passengers 乘客配置
type Passengers struct {
	ArrivalRate    float64 `yaml:"arrival_rate" validate:"gte=0,lte=1"` // 每站每步的到达概率
	Destination    string  `yaml:"destination" validate:"oneof=same_stop uniform"`
	Reposition     bool    `yaml:"reposition"`
	SightDistance  int     `yaml:"sight_distance" validate:"gte=0"`
	InformDistance int     `yaml:"inform_distance" validate:"gte=0"` // 上车后行驶超过该距离才告知司机目的地
}

// Sweep 参数扫描配置
// 说明：对密度、货车比例、站点间距做笛卡尔积，每组重复Trials次
type Sweep struct {
	Densities       []float64 `yaml:"densities" validate:"min=1,dive,gte=0,lte=1"`
	TruckFractions  []float64 `yaml:"truck_fractions" validate:"min=1,dive,gte=0,lte=1"`
	StopSpacings    []int     `yaml:"stop_spacings,omitempty" validate:"dive,gt=0"`
	ArrivalRates    []float64 `yaml:"arrival_rates,omitempty" validate:"dive,gte=0,lte=1"` // 基准间距下的每站到达率，为空时沿用passengers.arrival_rate
	BaseStopSpacing int       `yaml:"base_stop_spacing,omitempty" validate:"gte=0"` // 到达率归一化的基准间距，为0时不归一化
	Trials          int       `yaml:"trials" validate:"gt=0"`
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
type Config struct {
	Control    Control    `yaml:"control"`
	Road       Road       `yaml:"road"`
	Vehicles   Vehicles   `yaml:"vehicles"`
	Sidewalk   Sidewalk   `yaml:"sidewalk"`
	Passengers Passengers `yaml:"passengers"`
	Output     *Output    `yaml:"output,omitempty" validate:"-"`
	Sweep      *Sweep     `yaml:"sweep,omitempty" validate:"-"`
}
