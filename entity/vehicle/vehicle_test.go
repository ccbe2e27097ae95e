package vehicle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity/passenger"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/task"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

// newContext 空路、无乘客、无随机慢化与随机变道的严格模式上下文
func newContext(t *testing.T, mutate func(c *config.Config)) *task.Context {
	c := config.Default()
	c.Control.Strict = true
	c.Control.Step = config.ControlStep{Start: 0, Total: 100, Interval: 1, Transient: 0}
	c.Vehicles.Density = 0
	c.Vehicles.BrakingProb = 0
	c.Vehicles.Transit.RandomLaneChanging = false
	c.Vehicles.Freight.RandomLaneChanging = false
	c.Passengers.ArrivalRate = 0
	c.Passengers.Reposition = false
	if mutate != nil {
		mutate(&c)
	}
	require.NoError(t, config.Validate(c))
	ctx, err := task.NewContext("test", c)
	require.NoError(t, err)
	ctx.Init()
	require.False(t, ctx.Vehicles().Spawning())
	return ctx
}

func TestWraparound(t *testing.T) {
	ctx := newContext(t, nil)
	v, err := ctx.Vehicles().Add(entity.Transit, 238, entity.RightRow, 5)
	require.NoError(t, err)

	ctx.Step()
	assert.Equal(t, 3, v.Rear())
	assert.True(t, v.DidCrossEdge())
	assert.Equal(t, 1, ctx.Vehicles().Counter().Transit)

	ctx.Step()
	assert.Equal(t, 8, v.Rear())
	assert.False(t, v.DidCrossEdge())
	assert.Equal(t, 1, ctx.Vehicles().Counter().Transit)
	assert.Equal(t, entity.CellTransit, ctx.Road().At(8, 0))
	assert.Equal(t, entity.CellTransit, ctx.Road().At(10, 1))
	assert.Equal(t, entity.CellEmpty, ctx.Road().At(7, 0))
}

func TestThroughput(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Road.Length = 20
		c.Road.SpeedLimit = 4
	})
	_, err := ctx.Vehicles().Add(entity.Transit, 0, entity.RightRow, 4)
	require.NoError(t, err)
	for range 10 {
		ctx.Step()
	}
	c := ctx.Vehicles().Counter()
	assert.Equal(t, 2, c.Transit)
	assert.Equal(t, 2, c.Vehicles())
	assert.Equal(t, 0, c.Passengers)
}

func TestAddRejectsOverlap(t *testing.T) {
	ctx := newContext(t, nil)
	_, err := ctx.Vehicles().Add(entity.Freight, 10, entity.RightRow, 0)
	require.NoError(t, err)
	_, err = ctx.Vehicles().Add(entity.Transit, 15, entity.RightRow, 0)
	assert.ErrorIs(t, err, entity.ErrFootprintOccupied)
	_, err = ctx.Vehicles().Add(entity.Transit, 15, entity.LeftRow, 0)
	assert.NoError(t, err)
	assert.Len(t, ctx.Vehicles().Vehicles(), 2)
}

func TestGapDistance(t *testing.T) {
	ctx := newContext(t, nil)
	vm := ctx.Vehicles()
	follower, err := vm.Add(entity.Freight, 0, entity.RightRow, 5)
	require.NoError(t, err)
	_, err = vm.Add(entity.Transit, 10, entity.RightRow, 0)
	require.NoError(t, err)
	// 车头在6，7~9空闲
	assert.Equal(t, 3, follower.GapDistance(entity.RightRow))
	assert.Equal(t, 5, follower.GapDistance(entity.LeftRow))
	follower.Decelerate()
	assert.Equal(t, 3, follower.Speed())
}

func TestDecelerateNeverExceedsGap(t *testing.T) {
	ctx := newContext(t, nil)
	vm := ctx.Vehicles()
	follower, err := vm.Add(entity.Transit, 0, entity.RightRow, 5)
	require.NoError(t, err)
	_, err = vm.Add(entity.Transit, 3, entity.RightRow, 0)
	require.NoError(t, err)
	follower.Decelerate()
	assert.Equal(t, 0, follower.Speed())
}

func TestSafeDeceleration(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Sidewalk.Stops = config.StopLayout{Mode: "explicit", Positions: []int{6}}
	})
	vm := ctx.Vehicles()
	v, err := vm.Add(entity.Transit, 0, entity.RightRow, 5)
	require.NoError(t, err)
	stop := ctx.Sidewalk().StopAt(6)
	ctx.Passengers().Add(stop, stop)
	ctx.Sidewalk().Rebuild()
	// 候车乘客在车头前方4格，目标速度4，只需减1
	v.Decelerate()
	assert.Equal(t, 4, v.Speed())

	// 候车乘客在车身旁，目标速度0，但一次最多减safe_deceleration
	v2, err := vm.Add(entity.Transit, 5, entity.LeftRow, 5)
	require.NoError(t, err)
	v2.Decelerate()
	assert.Equal(t, 3, v2.Speed())
}

func TestSafeDecelerationAtLowSpeed(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Vehicles.SafeStoppingSpeed = 4
		c.Vehicles.SafeDeceleration = 1
		c.Sidewalk.Stops = config.StopLayout{Mode: "explicit", Positions: []int{1}}
	})
	stop := ctx.Sidewalk().StopAt(1)
	ctx.Passengers().Add(stop, stop)
	ctx.Sidewalk().Rebuild()
	v, err := ctx.Vehicles().Add(entity.Transit, 0, entity.RightRow, 3)
	require.NoError(t, err)
	// 低于safe_stopping_speed也不能一步停下
	v.Decelerate()
	assert.Equal(t, 2, v.Speed())
	v.Decelerate()
	assert.Equal(t, 1, v.Speed())
	v.Decelerate()
	assert.Equal(t, 0, v.Speed())
}

func TestLaneChangeTwoPhase(t *testing.T) {
	ctx := newContext(t, nil)
	road := ctx.Road()
	vm := ctx.Vehicles()
	v, err := vm.Add(entity.Transit, 0, entity.RightRow, 5)
	require.NoError(t, err)
	_, err = vm.Add(entity.Transit, 4, entity.RightRow, 0)
	require.NoError(t, err)

	v.LaneChanging()
	assert.Equal(t, entity.StraddleRow, v.Row())
	assert.Equal(t, entity.LCLeft, v.Direction())
	assert.Equal(t, 1, v.Rear())
	assert.Equal(t, 1, v.Speed())
	assert.Equal(t, entity.CellEmpty, road.At(0, 0))
	assert.Equal(t, entity.CellEmpty, road.At(1, 0))
	assert.Equal(t, entity.CellTransit, road.At(1, 1))
	assert.Equal(t, entity.CellTransit, road.At(3, 2))

	v.FinishLaneChange()
	assert.Equal(t, entity.LeftRow, v.Row())
	assert.Equal(t, entity.LCNone, v.Direction())
	assert.Equal(t, 2, v.Rear())
	assert.Equal(t, entity.CellEmpty, road.At(2, 1))
	assert.Equal(t, entity.CellTransit, road.At(2, 3))
}

func TestLaneChangeBlockedBySideTraffic(t *testing.T) {
	ctx := newContext(t, nil)
	vm := ctx.Vehicles()
	v, err := vm.Add(entity.Transit, 0, entity.RightRow, 5)
	require.NoError(t, err)
	_, err = vm.Add(entity.Transit, 4, entity.RightRow, 0)
	require.NoError(t, err)
	// 左侧车道与本车并排，左侧车道前方空闲但侧方元胞行被占用
	_, err = vm.Add(entity.Transit, 0, entity.LeftRow, 0)
	require.NoError(t, err)

	v.LaneChanging()
	assert.Equal(t, entity.RightRow, v.Row())
	assert.Equal(t, 0, v.Rear())
	// 速度被限制到本车道空距
	assert.Equal(t, 1, v.Speed())
}

func TestFinishLaneChangeBlockedHolds(t *testing.T) {
	ctx := newContext(t, nil)
	vm := ctx.Vehicles()
	v, err := vm.Add(entity.Transit, 0, entity.StraddleRow, 0)
	require.NoError(t, err)
	// 目标车道（左侧）前方被占用
	_, err = vm.Add(entity.Transit, 3, entity.LeftRow, 0)
	require.NoError(t, err)
	v.FinishLaneChange()
	assert.Equal(t, entity.StraddleRow, v.Row())
	assert.Equal(t, 0, v.Rear())
}

func TestLoadingCapacityCap(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Vehicles.Transit.Capacity = 2
	})
	stop := ctx.Sidewalk().StopAt(0)
	for range 5 {
		ctx.Passengers().Add(stop, stop)
	}
	ctx.Sidewalk().Rebuild()
	v, err := ctx.Vehicles().Add(entity.Transit, 0, entity.RightRow, 0)
	require.NoError(t, err)

	v.Loading()
	assert.Equal(t, 2, v.Boarded())
	v.Loading()
	assert.Equal(t, 2, v.Boarded())
	assert.Equal(t, 3, stop.WaitingLen())
	assert.Equal(t, 2, ctx.Passengers().InTransit())
	assert.Equal(t, 3, ctx.Passengers().Waiting())
	assert.NoError(t, ctx.Passengers().Check())
	// 先到先上
	assert.ElementsMatch(t, []entity.PassengerID{0, 1}, v.Passengers())
}

func TestLoadingOnePerTick(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Control.ServicePolicy = "one_per_tick"
	})
	stop := ctx.Sidewalk().StopAt(0)
	for range 3 {
		ctx.Passengers().Add(stop, stop)
	}
	ctx.Sidewalk().Rebuild()
	v, err := ctx.Vehicles().Add(entity.Transit, 0, entity.RightRow, 0)
	require.NoError(t, err)
	v.Loading()
	assert.Equal(t, 1, v.Boarded())
}

func TestLoadingNeedsServingRow(t *testing.T) {
	ctx := newContext(t, nil)
	stop := ctx.Sidewalk().StopAt(0)
	ctx.Passengers().Add(stop, stop)
	ctx.Sidewalk().Rebuild()
	v, err := ctx.Vehicles().Add(entity.Transit, 0, entity.LeftRow, 0)
	require.NoError(t, err)
	v.Loading()
	assert.Equal(t, 0, v.Boarded())
}

// blockedLeftRowTransit 左侧车道的小巴，车身旁有候车乘客，右侧车道的货车挡住车道行1
func blockedLeftRowTransit(t *testing.T) (*task.Context, *vehicle.Vehicle, *vehicle.Vehicle, *passenger.Passenger) {
	ctx := newContext(t, func(c *config.Config) {
		c.Passengers.InformDistance = 0
		c.Sidewalk.Stops = config.StopLayout{Mode: "explicit", Positions: []int{11, 13}}
	})
	sw := ctx.Sidewalk()
	p := ctx.Passengers().Add(sw.StopAt(11), sw.StopAt(13))
	sw.Rebuild()
	v, err := ctx.Vehicles().Add(entity.Transit, 10, entity.LeftRow, 0)
	require.NoError(t, err)
	blocker, err := ctx.Vehicles().Add(entity.Freight, 10, entity.RightRow, 5)
	require.NoError(t, err)
	require.False(t, v.LaneAvailable(entity.StraddleRow))
	return ctx, v, blocker, p
}

func TestPassengerLaneChangeRetriesThenFarLaneLoading(t *testing.T) {
	ctx, v, _, p := blockedLeftRowTransit(t)
	for i := 1; i <= 4; i++ {
		v.LaneChanging()
		assert.Equal(t, entity.LeftRow, v.Row())
		assert.Equal(t, i, v.Retries())
		if i < 4 {
			// 未达到上限时左侧车道不上客
			v.Loading()
			assert.Equal(t, 0, v.Boarded())
		}
	}
	// 达到上限后不再计数
	v.LaneChanging()
	assert.Equal(t, 4, v.Retries())

	v.Loading()
	assert.Equal(t, 1, v.Boarded())
	assert.Equal(t, entity.Boarded, p.State())
	assert.Equal(t, v.ID(), p.Vehicle())
	assert.Equal(t, 0, ctx.Violations())
}

func TestFarLaneReleasesOvershotRider(t *testing.T) {
	ctx, v, _, p := blockedLeftRowTransit(t)
	sw := ctx.Sidewalk()
	dest := sw.StopAt(13)
	for range 4 {
		v.LaneChanging()
	}
	v.Loading()
	require.Equal(t, 1, v.Boarded())

	v.Accelerate()
	v.Move()
	p.UpdateCrossing(v)
	require.True(t, v.KnowsDestination(dest.ID()))
	require.True(t, v.WillUnloadPassengers())
	require.Equal(t, entity.RequestingStop, p.State())

	// 没停住，车尾扫过目的站
	v.Move()
	v.Move()
	v.Move()
	require.Equal(t, 14, v.Rear())
	p.UpdateOvershoot(v)
	require.True(t, p.Overshot())

	v.Decelerate()
	require.Equal(t, 0, v.Speed())
	require.Equal(t, 4, v.Retries())
	v.Unloading()
	assert.Equal(t, entity.Alighted, p.State())
	assert.Equal(t, 1, v.Delivered())
	assert.Equal(t, 0, v.Boarded())
	assert.Equal(t, 0, v.Retries())
	assert.False(t, v.KnowsDestination(dest.ID()))
	assert.Equal(t, 0, dest.UnloadingLen())
	assert.NoError(t, ctx.Passengers().Check())
	assert.Equal(t, 0, ctx.Violations())
}

func TestFinishLaneChangeResetsRetries(t *testing.T) {
	ctx, v, blocker, _ := blockedLeftRowTransit(t)
	v.LaneChanging()
	v.LaneChanging()
	require.Equal(t, 2, v.Retries())

	for range 3 {
		blocker.Move()
	}
	require.True(t, v.LaneAvailable(entity.StraddleRow))
	v.LaneChanging()
	require.Equal(t, entity.StraddleRow, v.Row())
	assert.Equal(t, entity.LCRight, v.Direction())
	assert.Equal(t, 2, v.Retries())

	v.FinishLaneChange()
	assert.Equal(t, entity.RightRow, v.Row())
	assert.Equal(t, entity.LCNone, v.Direction())
	assert.Equal(t, 0, v.Retries())
	assert.Equal(t, 0, ctx.Violations())
}

func TestRideAndUnload(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Road.Length = 40
		c.Sidewalk.Stops = config.StopLayout{Mode: "explicit", Positions: []int{0, 20}}
	})
	sw := ctx.Sidewalk()
	p := ctx.Passengers().Add(sw.StopAt(0), sw.StopAt(20))
	sw.Rebuild()
	v, err := ctx.Vehicles().Add(entity.Transit, 0, entity.RightRow, 0)
	require.NoError(t, err)

	for i := 0; i < 200 && p.State() != entity.Alighted; i++ {
		ctx.Step()
	}
	require.Equal(t, entity.Alighted, p.State())
	assert.Equal(t, 1, v.Delivered())
	assert.Equal(t, 0, v.Boarded())
	assert.False(t, v.KnowsDestination(sw.StopAt(20).ID()))
	assert.Equal(t, 0, sw.StopAt(20).UnloadingLen())
	assert.Equal(t, 1, ctx.Passengers().Alighted())
	assert.NoError(t, ctx.Passengers().Check())
	assert.Equal(t, 0, ctx.Violations())
	assert.GreaterOrEqual(t, p.RidingTime(), 0.)
}
