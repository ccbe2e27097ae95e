package vehicle

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
)

// senseStops 感知车身旁[rear, front]与前方[front+1, front+speed]的站点
func (v *Vehicle) senseStops() {
	sw := v.ctx.Sidewalk()
	v.adjacent = v.adjacent[:0]
	v.ahead = v.ahead[:0]
	for d := 0; d < v.length; d++ {
		if stop := sw.StopAt(v.rear + d); stop != nil {
			v.adjacent = append(v.adjacent, stop)
		}
	}
	for d := 1; d <= v.speed; d++ {
		if stop := sw.StopAt(v.Front() + d); stop != nil {
			v.ahead = append(v.ahead, stop)
		}
	}
}

// WillUnloadPassengers 是否有乘客将要下车
// 功能：感知站点，刷新车上乘客的下车请求
// 返回：有乘客请求在车身旁或前方的站点下车，或有乘客过站
func (v *Vehicle) WillUnloadPassengers() bool {
	v.senseStops()
	if v.passengers.Len() == 0 {
		return false
	}
	pm := v.ctx.PassengerManager()
	riders := lo.Map(v.passengers.Values(), func(pid entity.PassengerID, _ int) entity.IPassenger {
		return pm.Get(pid)
	})
	for _, p := range riders {
		p.UpdateRequest(v)
	}
	return lo.SomeBy(riders, func(p entity.IPassenger) bool {
		return p.Overshot() || (p.LetMeOut() && v.StopInWindow(p.Destination()))
	})
}

// KnowsDestination 司机是否已知目的站
func (v *Vehicle) KnowsDestination(stop entity.StopID) bool {
	return v.known[stop] > 0
}

// StopInWindow 站点是否在车身旁或前方
func (v *Vehicle) StopInWindow(stop entity.StopID) bool {
	return v.isAdjacent(stop) || lo.ContainsBy(v.ahead, func(s entity.IStop) bool { return s.ID() == stop })
}

func (v *Vehicle) isAdjacent(stop entity.StopID) bool {
	return lo.ContainsBy(v.adjacent, func(s entity.IStop) bool { return s.ID() == stop })
}

func (v *Vehicle) InformDestination(stop entity.StopID) {
	v.known[stop]++
}

func (v *Vehicle) ForgetDestination(stop entity.StopID) {
	if v.known[stop] <= 0 {
		v.ctx.ReportViolation("vehicle %d forgets unknown destination %d", v.id, stop)
		return
	}
	v.known[stop]--
	if v.known[stop] == 0 {
		delete(v.known, stop)
	}
}

// anyOvershot 是否有乘客过站
func (v *Vehicle) anyOvershot() bool {
	if v.passengers.Len() == 0 {
		return false
	}
	pm := v.ctx.PassengerManager()
	return lo.SomeBy(v.passengers.Values(), func(pid entity.PassengerID) bool {
		return pm.Get(pid).Overshot()
	})
}

// requestedStops 请求下车乘客的目的站集合
func (v *Vehicle) requestedStops() map[entity.StopID]bool {
	requested := make(map[entity.StopID]bool)
	pm := v.ctx.PassengerManager()
	for _, pid := range v.passengers.Values() {
		if p := pm.Get(pid); p.LetMeOut() {
			requested[p.Destination()] = true
		}
	}
	return requested
}

// passengersDetected 车身旁及前方speed格内是否有候车乘客
func (v *Vehicle) passengersDetected() bool {
	return v.ctx.Sidewalk().SpanSum(v.rear, v.length+v.speed) > 0
}
