package sidewalk

import (
	"fmt"

	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/container"
)

// Stop 站点
// 功能：人行道上的上下客点，既是乘客出发点也是目的地
// 说明：loading为等车乘客的FIFO队列，unloading为以本站为目的地的车上乘客集合
type Stop struct {
	id       entity.StopID
	position int

	loading   *container.Queue[entity.PassengerID]
	unloading *container.Set[entity.PassengerID]
}

func newStop(id entity.StopID, position int) *Stop {
	return &Stop{
		id:        id,
		position:  position,
		loading:   container.NewQueue[entity.PassengerID](),
		unloading: container.NewSet[entity.PassengerID](),
	}
}

func (s *Stop) String() string {
	return fmt.Sprintf("Stop{id=%d, pos=%d, waiting=%d, unloading=%d}", s.id, s.position, s.loading.Len(), s.unloading.Len())
}

func (s *Stop) ID() entity.StopID {
	return s.id
}

func (s *Stop) Position() int {
	return s.position
}

// Enqueue 乘客到站排队
func (s *Stop) Enqueue(p entity.PassengerID) {
	s.loading.PushBack(p)
}

// Dequeue 队首乘客离队（上车）
func (s *Stop) Dequeue() (entity.PassengerID, bool) {
	return s.loading.PopFront()
}

// RemoveWaiting 乘客离开本站（横向挪动到其他站）
func (s *Stop) RemoveWaiting(p entity.PassengerID) bool {
	return s.loading.Remove(p)
}

func (s *Stop) WaitingLen() int {
	return s.loading.Len()
}

// Waiting 等车乘客，按排队顺序
func (s *Stop) Waiting() []entity.PassengerID {
	return s.loading.Values()
}

// RegisterUnloading 登记以本站为目的地的乘客
func (s *Stop) RegisterUnloading(p entity.PassengerID) {
	if !s.unloading.Add(p) {
		log.Panicf("stop %d: passenger %d already registered for unloading", s.id, p)
	}
}

// UnregisterUnloading 注销，返回乘客是否曾登记
func (s *Stop) UnregisterUnloading(p entity.PassengerID) bool {
	return s.unloading.Remove(p)
}

func (s *Stop) IsUnloading(p entity.PassengerID) bool {
	return s.unloading.Has(p)
}

func (s *Stop) UnloadingLen() int {
	return s.unloading.Len()
}
