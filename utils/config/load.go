package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// Default 默认配置
// 说明：取值与240元胞环路、3x2小巴、7x2货车的基准场景一致
func Default() Config {
	allClasses := []string{ClassTransit, ClassFreight}
	return Config{
		Control: Control{
			Step: ControlStep{
				Start:     0,
				Total:     10000,
				Interval:  1,
				Transient: 7000,
			},
			ServicePolicy: "fill",
		},
		Road: Road{
			Length:     240,
			Width:      4,
			SpeedLimit: 5,
			AllowedRows: []RowRule{
				{Row: 0, Classes: allClasses},
				{Row: 1, Classes: allClasses},
				{Row: 2, Classes: allClasses},
			},
		},
		Vehicles: Vehicles{
			Density:           0.2,
			TruckFraction:     0.2,
			BrakingProb:       0.01,
			SafeStoppingSpeed: 2,
			SafeDeceleration:  2,
			LaneChangeRetries: 4,
			Transit: VehicleType{
				Length:             3,
				Width:              2,
				Capacity:           20,
				SpawnRows:          []int{0, 2},
				RandomLaneChanging: true,
			},
			Freight: VehicleType{
				Length:             7,
				Width:              2,
				Capacity:           0,
				SpawnRows:          []int{0, 2},
				RandomLaneChanging: true,
			},
		},
		Sidewalk: Sidewalk{
			MaxPassengersPerCell: 20,
			Stops: StopLayout{
				Mode:        "even",
				Spacing:     20,
				MeanSpacing: 60,
				StdSpacing:  20,
				MinSpacing:  20,
			},
		},
		Passengers: Passengers{
			ArrivalRate:    0.3,
			Destination:    "same_stop",
			Reposition:     true,
			SightDistance:  4,
			InformDistance: 5,
		},
	}
}

// Parse 在默认配置之上解析YAML并校验
// 功能：严格解析（未知字段报错），随后进行字段和跨字段校验
// 参数：data-YAML内容
// 返回：配置与错误
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("config unmarshal err: %w", err)
	}
	if err := Validate(c); err != nil {
		return c, err
	}
	return c, nil
}

// Load 读取配置文件
func Load(path string) (Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config file load err: %w", err)
	}
	return Parse(file)
}

// Validate 校验配置
// 功能：结构体标签校验 + 跨字段约束
// 算法说明：
// 1. validator校验主体配置，可选的output与sweep存在时单独校验
// 2. 车道行结构要求车宽不超过road.width-2（车道行0/1/2都要放得下）
// 3. 道路长度必须大于最大车长与最大速度之和，避免车辆前视扫到自身
// 4. 暂态步数不能超过总步数
func Validate(c Config) error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validate err: %w", err)
	}
	if c.Output != nil {
		if err := v.Struct(c.Output); err != nil {
			return fmt.Errorf("config output validate err: %w", err)
		}
	}
	if c.Sweep != nil {
		if err := v.Struct(c.Sweep); err != nil {
			return fmt.Errorf("config sweep validate err: %w", err)
		}
	}
	for name, t := range map[string]VehicleType{ClassTransit: c.Vehicles.Transit, ClassFreight: c.Vehicles.Freight} {
		if t.Width > c.Road.Width-2 {
			return fmt.Errorf("config validate err: %s width %d does not fit road width %d", name, t.Width, c.Road.Width)
		}
		if t.Length+c.Road.SpeedLimit*2 >= c.Road.Length {
			return fmt.Errorf("config validate err: road length %d too short for %s length %d", c.Road.Length, name, t.Length)
		}
	}
	if c.Control.Step.Transient > c.Control.Step.Total {
		return fmt.Errorf("config validate err: transient %d exceeds total %d", c.Control.Step.Transient, c.Control.Step.Total)
	}
	sl := c.Sidewalk.Stops
	if sl.Mode == "random" && (sl.MeanSpacing <= 0 || sl.MinSpacing <= 0) {
		return fmt.Errorf("config validate err: random stop layout needs positive mean_spacing and min_spacing")
	}
	for _, p := range sl.Positions {
		if p >= c.Road.Length {
			return fmt.Errorf("config validate err: stop position %d out of road length %d", p, c.Road.Length)
		}
	}
	return nil
}
