package task

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity/passenger"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity/vehicle"
)

// TickRecord 每步统计
type TickRecord struct {
	Job  string `bson:"job"`
	Step int32  `bson:"step"`

	// 累计通过量
	VehicleThroughput   int `bson:"vehicle_throughput"`
	TransitThroughput   int `bson:"transit_throughput"`
	FreightThroughput   int `bson:"freight_throughput"`
	PassengerThroughput int `bson:"passenger_throughput"`

	Density        float64 `bson:"density"`         // 实际占地密度
	TruckFraction  float64 `bson:"truck_fraction"`  // 实际货车数量占比
	TruckOccupancy float64 `bson:"truck_occupancy"` // 货车占地占全部车辆占地的比例

	// 空间平均速度
	TransitSpeed float64 `bson:"transit_speed"`
	FreightSpeed float64 `bson:"freight_speed"`

	Waiting   int `bson:"waiting"`
	InTransit int `bson:"in_transit"`
	Alighted  int `bson:"alighted"`
}

// VehicleSummary 单车汇总
type VehicleSummary struct {
	Job       string  `bson:"job"`
	ID        int32   `bson:"id"`
	Class     string  `bson:"class"`
	MeanSpeed float64 `bson:"mean_speed"` // 暂态期后的时间平均速度
	Delivered int     `bson:"delivered"`
	Boardings int     `bson:"boardings"`
}

// PassengerSummary 单个乘客汇总，未发生的时刻为-1
type PassengerSummary struct {
	Job         string  `bson:"job"`
	ID          int32   `bson:"id"`
	Status      string  `bson:"status"`
	SpawnStop   int32   `bson:"spawn_stop"`
	BoardStop   int32   `bson:"board_stop"`
	Destination int32   `bson:"destination"`
	SpawnTime   float64 `bson:"spawn_time"`
	BoardTime   float64 `bson:"board_time"`
	AlightTime  float64 `bson:"alight_time"`
	RidingTime  float64 `bson:"riding_time"`
	WaitingTime float64 `bson:"waiting_time"`
}

// Snapshot 某一步的占用快照
type Snapshot struct {
	Job      string          `bson:"job"`
	Step     int32           `bson:"step"`
	Road     [][]entity.Cell `bson:"road"` // [pos][row]
	Sidewalk []int           `bson:"sidewalk"`
}

// Summary 试验汇总（暂态期后）
type Summary struct {
	Job             string  `bson:"job"`
	Seed            uint64  `bson:"seed"`
	Density         float64 `bson:"density"`           // 配置密度
	TruckFraction   float64 `bson:"truck_fraction"`    // 配置货车比例
	StopSpacing     int     `bson:"stop_spacing"`
	ArrivalRate     float64 `bson:"arrival_rate"`      // 每站到达率
	BaseArrivalRate float64 `bson:"base_arrival_rate"` // 参数扫描的基准到达率（归一化前）
	Trial           int     `bson:"trial"`

	Flow          float64 `bson:"flow"`           // 每步越界车辆数
	PassengerFlow float64 `bson:"passenger_flow"` // 每步越界乘客数
	TransitSpeed  float64 `bson:"transit_speed"`  // 小巴时间平均速度的均值
	FreightSpeed  float64 `bson:"freight_speed"`
	RidingTime    float64 `bson:"riding_time"`  // 已到达乘客的平均乘车时间
	WaitingTime   float64 `bson:"waiting_time"` // 已上车乘客的平均等车时间
	Violations    int     `bson:"violations"`
}

// Result 一次试验的全部输出
type Result struct {
	Summary    Summary
	Ticks      []TickRecord
	Vehicles   []VehicleSummary
	Passengers []PassengerSummary
	Snapshots  []Snapshot
	Violations int
}

// recorder 统计记录器
type recorder struct {
	ctx *Context

	ticks     []TickRecord
	snapshots []Snapshot
	baseline  vehicle.Counter // 暂态期结束时的累计通过量
}

func newRecorder(ctx *Context) *recorder {
	return &recorder{ctx: ctx}
}

func (r *recorder) init() {
	r.ticks = make([]TickRecord, 0, r.ctx.clock.END_STEP-r.ctx.clock.START_STEP)
	r.snapshots = nil
	r.baseline = vehicle.Counter{}
}

// record 记录本步统计
func (r *recorder) record() {
	ctx := r.ctx
	vm := ctx.vehicleManager
	pm := ctx.passengerManager
	c := vm.Counter()
	if ctx.clock.InternalStep == ctx.clock.TRANSIENT {
		r.baseline = c
	}
	transitArea := vm.OccupiedArea(entity.Transit)
	freightArea := vm.OccupiedArea(entity.Freight)
	transit, freight := vm.Count(entity.Transit), vm.Count(entity.Freight)
	rec := TickRecord{
		Job:                 ctx.job,
		Step:                ctx.clock.InternalStep,
		VehicleThroughput:   c.Vehicles(),
		TransitThroughput:   c.Transit,
		FreightThroughput:   c.Freight,
		PassengerThroughput: c.Passengers,
		Density:             float64(transitArea+freightArea) / float64(ctx.road.Length()*ctx.road.Width()),
		TransitSpeed:        vm.MeanSpeed(entity.Transit),
		FreightSpeed:        vm.MeanSpeed(entity.Freight),
		Waiting:             pm.Waiting(),
		InTransit:           pm.InTransit(),
		Alighted:            pm.Alighted(),
	}
	if n := transit + freight; n > 0 {
		rec.TruckFraction = float64(freight) / float64(n)
		rec.TruckOccupancy = float64(freightArea) / float64(transitArea+freightArea)
	}
	r.ticks = append(r.ticks, rec)
	if ctx.runtimeConfig.C.Snapshot {
		r.snapshots = append(r.snapshots, Snapshot{
			Job:      ctx.job,
			Step:     ctx.clock.InternalStep,
			Road:     ctx.road.Snapshot(),
			Sidewalk: ctx.sidewalk.Snapshot(),
		})
	}
}

// result 汇总本次试验
func (r *recorder) result() *Result {
	ctx := r.ctx
	c := ctx.runtimeConfig.All
	vehicles := lo.Map(ctx.vehicleManager.Vehicles(), func(v *vehicle.Vehicle, _ int) VehicleSummary {
		return VehicleSummary{
			Job:       ctx.job,
			ID:        int32(v.ID()),
			Class:     v.Class().String(),
			MeanSpeed: v.MeanSpeed(),
			Delivered: v.Delivered(),
			Boardings: v.Boardings(),
		}
	})
	passengers := lo.Map(ctx.passengerManager.Passengers(), func(p *passenger.Passenger, _ int) PassengerSummary {
		return PassengerSummary{
			Job:         ctx.job,
			ID:          int32(p.ID()),
			Status:      p.State().String(),
			SpawnStop:   int32(p.SpawnStop()),
			BoardStop:   int32(p.BoardStop()),
			Destination: int32(p.Destination()),
			SpawnTime:   p.SpawnTime(),
			BoardTime:   p.BoardTime(),
			AlightTime:  p.AlightTime(),
			RidingTime:  p.RidingTime(),
			WaitingTime: p.WaitingTime(),
		}
	})

	summary := Summary{
		Job:             ctx.job,
		Seed:            ctx.generator.Seed(),
		Density:         c.Vehicles.Density,
		TruckFraction:   c.Vehicles.TruckFraction,
		StopSpacing:     c.Sidewalk.Stops.Spacing,
		ArrivalRate:     c.Passengers.ArrivalRate,
		BaseArrivalRate: c.Passengers.ArrivalRate,
		Violations:      ctx.violations,
	}
	if steady := ctx.clock.END_STEP - max(ctx.clock.TRANSIENT, ctx.clock.START_STEP); steady > 0 {
		end := ctx.vehicleManager.Counter()
		summary.Flow = float64(end.Vehicles()-r.baseline.Vehicles()) / float64(steady)
		summary.PassengerFlow = float64(end.Passengers-r.baseline.Passengers) / float64(steady)
	}
	summary.TransitSpeed = meanSpeed(vehicles, entity.Transit.String())
	summary.FreightSpeed = meanSpeed(vehicles, entity.Freight.String())
	summary.RidingTime = mean(lo.FilterMap(passengers, func(p PassengerSummary, _ int) (float64, bool) {
		return p.RidingTime, p.AlightTime >= 0
	}))
	summary.WaitingTime = mean(lo.FilterMap(passengers, func(p PassengerSummary, _ int) (float64, bool) {
		return p.WaitingTime, p.BoardTime >= 0
	}))

	return &Result{
		Summary:    summary,
		Ticks:      r.ticks,
		Vehicles:   vehicles,
		Passengers: passengers,
		Snapshots:  r.snapshots,
		Violations: ctx.violations,
	}
}

func meanSpeed(vehicles []VehicleSummary, class string) float64 {
	return mean(lo.FilterMap(vehicles, func(v VehicleSummary, _ int) (float64, bool) {
		return v.MeanSpeed, v.Class == class
	}))
}

// mean 均值，空切片为0
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return lo.Sum(xs) / float64(len(xs))
}
