package passenger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/task"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

// fakeVehicle 可直接设定状态的车辆
type fakeVehicle struct {
	id              entity.VehicleID
	rear, prevRear  int
	didCross, about bool
	window          map[entity.StopID]bool
	known           map[entity.StopID]int
}

func newFakeVehicle() *fakeVehicle {
	return &fakeVehicle{
		id:     7,
		window: make(map[entity.StopID]bool),
		known:  make(map[entity.StopID]int),
	}
}

func (v *fakeVehicle) ID() entity.VehicleID { return v.id }
func (v *fakeVehicle) Class() entity.VehicleClass { return entity.Transit }
func (v *fakeVehicle) Rear() int { return v.rear }
func (v *fakeVehicle) PrevRear() int { return v.prevRear }
func (v *fakeVehicle) Length() int { return 3 }
func (v *fakeVehicle) Speed() int { return 0 }
func (v *fakeVehicle) Row() int { return entity.RightRow }
func (v *fakeVehicle) Capacity() int { return 20 }
func (v *fakeVehicle) Boarded() int { return 0 }
func (v *fakeVehicle) DidCrossEdge() bool { return v.didCross }
func (v *fakeVehicle) AboutToCrossEdge() bool { return v.about }
func (v *fakeVehicle) KnowsDestination(s entity.StopID) bool { return v.known[s] > 0 }
func (v *fakeVehicle) StopInWindow(s entity.StopID) bool { return v.window[s] }
func (v *fakeVehicle) InformDestination(s entity.StopID) { v.known[s]++ }
func (v *fakeVehicle) ForgetDestination(s entity.StopID) { v.known[s]-- }
func (v *fakeVehicle) String() string { return "fakeVehicle" }

func newContext(t *testing.T, mutate func(c *config.Config)) *task.Context {
	c := config.Default()
	c.Control.Strict = true
	c.Vehicles.Density = 0
	c.Passengers.ArrivalRate = 0
	c.Sidewalk.Stops = config.StopLayout{Mode: "explicit", Positions: []int{1, 100, 200}}
	if mutate != nil {
		mutate(&c)
	}
	require.NoError(t, config.Validate(c))
	ctx, err := task.NewContext("test", c)
	require.NoError(t, err)
	ctx.Init()
	return ctx
}

func TestLifecycle(t *testing.T) {
	ctx := newContext(t, nil)
	sw := ctx.Sidewalk()
	pm := ctx.Passengers()
	from, to := sw.StopAt(100), sw.StopAt(1)
	p := pm.Add(from, to)
	assert.Equal(t, entity.Waiting, p.State())
	assert.Equal(t, 1, pm.Waiting())
	assert.Equal(t, []entity.PassengerID{p.ID()}, from.Waiting())

	ctx.Clock().Tick()
	ctx.Clock().Tick()
	_, ok := from.Dequeue()
	require.True(t, ok)
	v := newFakeVehicle()
	require.NoError(t, p.Board(v))
	assert.Equal(t, entity.Boarded, p.State())
	assert.Equal(t, v.id, p.Vehicle())
	assert.True(t, to.IsUnloading(p.ID()))
	assert.Equal(t, 0, pm.Waiting())
	assert.Equal(t, 1, pm.InTransit())
	assert.Error(t, p.Board(v))
	assert.Error(t, p.Alight(v))

	// 目的站在上车站之前（位置更小），车辆越界前不可请求
	v.known[to.ID()] = 1
	v.window[to.ID()] = true
	p.UpdateRequest(v)
	assert.Equal(t, entity.Boarded, p.State())

	v.didCross = true
	p.UpdateCrossing(v)
	assert.Equal(t, 1, p.EdgeCrossings())
	p.UpdateCrossing(v)
	assert.Equal(t, 1, p.EdgeCrossings())
	p.UpdateRequest(v)
	assert.Equal(t, entity.RequestingStop, p.State())
	assert.True(t, p.LetMeOut())

	ctx.Clock().Tick()
	require.NoError(t, p.Alight(v))
	assert.Equal(t, entity.Alighted, p.State())
	assert.Equal(t, entity.NoVehicle, p.Vehicle())
	assert.False(t, to.IsUnloading(p.ID()))
	assert.Equal(t, 1, pm.Alighted())
	assert.Equal(t, 0, pm.InTransit())
	assert.NoError(t, pm.Check())

	assert.Equal(t, 0., p.SpawnTime())
	assert.Equal(t, 2., p.BoardTime())
	assert.Equal(t, 3., p.AlightTime())
	assert.Equal(t, 1., p.RidingTime())
	assert.Equal(t, 2., p.WaitingTime())
	assert.Equal(t, 0, ctx.Violations())
}

func TestVisibleAheadOfBoardingStop(t *testing.T) {
	ctx := newContext(t, nil)
	sw := ctx.Sidewalk()
	from, to := sw.StopAt(100), sw.StopAt(200)
	p := ctx.Passengers().Add(from, to)
	from.Dequeue()
	v := newFakeVehicle()
	require.NoError(t, p.Board(v))
	v.window[to.ID()] = true
	// 司机未知目的站
	p.UpdateRequest(v)
	assert.Equal(t, entity.Boarded, p.State())
	v.known[to.ID()] = 1
	p.UpdateRequest(v)
	assert.Equal(t, entity.RequestingStop, p.State())
}

func TestAboutToCrossIsSticky(t *testing.T) {
	ctx := newContext(t, nil)
	sw := ctx.Sidewalk()
	stop := sw.StopAt(100)
	p := ctx.Passengers().Add(stop, stop)
	stop.Dequeue()
	v := newFakeVehicle()
	require.NoError(t, p.Board(v))
	v.about = true
	p.UpdateCrossing(v)
	v.about = false
	p.UpdateCrossing(v)
	v.known[stop.ID()] = 1
	v.window[stop.ID()] = true
	p.UpdateRequest(v)
	assert.Equal(t, entity.RequestingStop, p.State())
	assert.Equal(t, 0, p.EdgeCrossings())
}

func TestInformAfterDistance(t *testing.T) {
	ctx := newContext(t, nil)
	sw := ctx.Sidewalk()
	stop := sw.StopAt(100)
	p := ctx.Passengers().Add(stop, stop)
	stop.Dequeue()
	v := newFakeVehicle()
	v.rear = 100
	require.NoError(t, p.Board(v))

	v.prevRear, v.rear = 100, 103
	p.UpdateCrossing(v)
	assert.False(t, p.Informed())
	v.prevRear, v.rear = 103, 105
	p.UpdateCrossing(v)
	assert.False(t, p.Informed())
	v.prevRear, v.rear = 105, 106
	p.UpdateCrossing(v)
	assert.True(t, p.Informed())
	assert.True(t, v.KnowsDestination(stop.ID()))
	// 只告知一次
	v.prevRear, v.rear = 106, 110
	p.UpdateCrossing(v)
	assert.Equal(t, 1, v.known[stop.ID()])
}

func TestOvershootWrapped(t *testing.T) {
	ctx := newContext(t, nil)
	sw := ctx.Sidewalk()
	from, to := sw.StopAt(100), sw.StopAt(1)
	p := ctx.Passengers().Add(from, to)
	from.Dequeue()
	v := newFakeVehicle()
	require.NoError(t, p.Board(v))

	// 未请求下车时不判断过站
	v.prevRear, v.rear = 238, 3
	p.UpdateOvershoot(v)
	assert.False(t, p.Overshot())

	v.didCross = true
	p.UpdateCrossing(v)
	v.known[to.ID()] = 1
	v.window[to.ID()] = true
	p.UpdateRequest(v)
	require.Equal(t, entity.RequestingStop, p.State())

	v.prevRear, v.rear = 230, 236
	p.UpdateOvershoot(v)
	assert.False(t, p.Overshot())
	v.prevRear, v.rear = 238, 3
	p.UpdateOvershoot(v)
	assert.True(t, p.Overshot())
	// 粘滞
	v.prevRear, v.rear = 3, 8
	p.UpdateOvershoot(v)
	assert.True(t, p.Overshot())
}

func TestGenerateRespectsCap(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Passengers.ArrivalRate = 1
		c.Passengers.Destination = "uniform"
		c.Sidewalk.MaxPassengersPerCell = 2
	})
	pm := ctx.Passengers()
	for range 5 {
		pm.Generate()
	}
	assert.Equal(t, 6, pm.Total())
	assert.Equal(t, 6, pm.Waiting())
	for _, stop := range ctx.Sidewalk().Stops() {
		assert.Equal(t, 2, stop.WaitingLen())
	}
	for _, p := range pm.Passengers() {
		assert.NotEqual(t, p.SpawnStop(), p.Destination())
	}
	assert.NoError(t, pm.Check())
}

func TestGenerateUniformCoversOtherStops(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Passengers.ArrivalRate = 1
		c.Passengers.Destination = "uniform"
		c.Sidewalk.MaxPassengersPerCell = 50
	})
	pm := ctx.Passengers()
	for range 20 {
		pm.Generate()
	}
	require.Equal(t, 60, pm.Total())
	seen := make(map[entity.StopID]map[entity.StopID]bool)
	for _, p := range pm.Passengers() {
		if seen[p.SpawnStop()] == nil {
			seen[p.SpawnStop()] = make(map[entity.StopID]bool)
		}
		seen[p.SpawnStop()][p.Destination()] = true
	}
	for _, stop := range ctx.Sidewalk().Stops() {
		assert.Len(t, seen[stop.ID()], 2, "stop %d", stop.ID())
		assert.False(t, seen[stop.ID()][stop.ID()])
	}
}

func TestGenerateSameStop(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Passengers.ArrivalRate = 1
	})
	pm := ctx.Passengers()
	pm.Generate()
	require.Equal(t, 3, pm.Total())
	for _, p := range pm.Passengers() {
		assert.Equal(t, p.SpawnStop(), p.Destination())
	}
}

func TestRepositionTowardNearestTransit(t *testing.T) {
	ctx := newContext(t, func(c *config.Config) {
		c.Sidewalk.Stops = config.StopLayout{Mode: "even", Spacing: 1}
	})
	sw := ctx.Sidewalk()
	pm := ctx.Passengers()
	p := pm.Add(sw.StopAt(50), sw.StopAt(50))
	far := pm.Add(sw.StopAt(150), sw.StopAt(150))
	_, err := ctx.Vehicles().Add(entity.Transit, 53, entity.RightRow, 0)
	require.NoError(t, err)
	// 左侧车道上的小巴不吸引乘客
	_, err = ctx.Vehicles().Add(entity.Transit, 146, entity.LeftRow, 0)
	require.NoError(t, err)

	pm.Reposition()
	assert.Equal(t, 53, sw.Get(p.Stop()).Position())
	assert.Equal(t, 150, sw.Get(far.Stop()).Position())
	assert.Equal(t, 0, sw.StopAt(50).WaitingLen())
	assert.Equal(t, 1, sw.StopAt(53).WaitingLen())
	assert.NoError(t, pm.Check())

	// 已在小巴旁的乘客不动
	pm.Reposition()
	assert.Equal(t, 53, sw.Get(p.Stop()).Position())
}

func TestGetOrError(t *testing.T) {
	ctx := newContext(t, nil)
	pm := ctx.Passengers()
	p := pm.Add(ctx.Sidewalk().StopAt(1), ctx.Sidewalk().StopAt(100))
	got, err := pm.GetOrError(p.ID())
	require.NoError(t, err)
	assert.Equal(t, p.ID(), got.ID())
	_, err = pm.GetOrError(42)
	assert.Error(t, err)
	assert.Panics(t, func() { pm.Get(42) })
}
