package config

// 车辆类别在配置中的名字
const (
	ClassTransit = "transit"
	ClassFreight = "freight"
)

// ServicePolicy 上下客策略
type ServicePolicy int

const (
	ServiceFill       ServicePolicy = iota // 停靠时尽量多上下客，直到满员或无匹配乘客
	ServiceOnePerTick                      // 每车每步最多服务一名乘客
)

// DestinationPolicy 乘客目的地选择策略
type DestinationPolicy int

const (
	DestinationSameStop DestinationPolicy = iota // 目的地即出发站（绕行一圈后下车）
	DestinationUniform                           // 在其余站点中均匀抽取
)

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，字符串枚举在此转换为类型化取值
// 说明：将YAML配置转换为运行时可用的配置对象
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置

	Service     ServicePolicy
	Destination DestinationPolicy
	// 车道行 -> 允许的车辆类别集合
	AllowedRows map[int]map[string]bool
	// 放置车辆连续失败上限（0表示按目标车辆数推导）
	MaxPlacementFailures int32
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，解析枚举与车道通行规则
// 参数：config-原始配置对象（应已通过Validate）
// 返回：初始化的运行时配置指针
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{
		All:                  config,
		C:                    config.Control,
		AllowedRows:          make(map[int]map[string]bool),
		MaxPlacementFailures: config.Control.MaxPlacementFailures,
	}
	if config.Control.ServicePolicy == "one_per_tick" {
		rc.Service = ServiceOnePerTick
	}
	if config.Passengers.Destination == "uniform" {
		rc.Destination = DestinationUniform
	}
	for _, rule := range config.Road.AllowedRows {
		classes, ok := rc.AllowedRows[rule.Row]
		if !ok {
			classes = make(map[string]bool)
			rc.AllowedRows[rule.Row] = classes
		}
		for _, c := range rule.Classes {
			classes[c] = true
		}
	}
	return rc
}

// Allowed 判断车辆类别能否进入某个车道行
func (rc *RuntimeConfig) Allowed(row int, class string) bool {
	return rc.AllowedRows[row][class]
}
