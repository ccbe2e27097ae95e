package sidewalk

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

// Sidewalk 人行道
// 功能：与道路等长的一维周期网格，管理站点注册表与等车人数占用
// 说明：占用（每格等车人数）是派生视图，每步末依据站点队列重建
type Sidewalk struct {
	length     int
	maxPerCell int

	stops []*Stop                // 按位置升序
	data  map[entity.StopID]*Stop // id -> stop
	at    []*Stop                // pos -> stop，无站点为nil

	occupancy []int
}

// New 创建人行道并按给定位置布设站点
// 参数：c-人行道配置，length-道路长度，positions-站点位置（升序、去重、位于[0, length)），ids-ID分配器
func New(c config.Sidewalk, length int, positions []int, ids *entity.IDAllocator) *Sidewalk {
	s := &Sidewalk{
		length:     length,
		maxPerCell: c.MaxPassengersPerCell,
		data:       make(map[entity.StopID]*Stop),
		at:         make([]*Stop, length),
		occupancy:  make([]int, length),
	}
	for _, pos := range positions {
		if pos < 0 || pos >= length {
			log.Panicf("sidewalk: stop position %d out of range [0, %d)", pos, length)
		}
		if s.at[pos] != nil {
			log.Panicf("sidewalk: duplicated stop position %d", pos)
		}
		stop := newStop(ids.NextStop(), pos)
		s.stops = append(s.stops, stop)
		s.data[stop.id] = stop
		s.at[pos] = stop
	}
	log.Infof("sidewalk: %d stops", len(s.stops))
	return s
}

func (s *Sidewalk) String() string {
	return fmt.Sprintf("Sidewalk{length=%d, stops=%d}", s.length, len(s.stops))
}

func (s *Sidewalk) Length() int {
	return s.length
}

func (s *Sidewalk) MaxPerCell() int {
	return s.maxPerCell
}

func (s *Sidewalk) Stops() []entity.IStop {
	return lo.Map(s.stops, func(stop *Stop, _ int) entity.IStop { return stop })
}

// Get 输入Stop ID，查找Stop，如果不存在则panic
func (s *Sidewalk) Get(id entity.StopID) entity.IStop {
	if stop, ok := s.data[id]; !ok {
		log.Panicf("no id %d in stop data", id)
		return nil
	} else {
		return stop
	}
}

// GetOrError 输入Stop ID，查找Stop，如果不存在则返回error
func (s *Sidewalk) GetOrError(id entity.StopID) (entity.IStop, error) {
	if stop, ok := s.data[id]; !ok {
		return nil, fmt.Errorf("no id %d in stop data", id)
	} else {
		return stop, nil
	}
}

// StopAt pos处的站点，没有则返回nil
func (s *Sidewalk) StopAt(pos int) entity.IStop {
	if stop := s.at[entity.Mod(pos, s.length)]; stop != nil {
		return stop
	}
	return nil
}

func (s *Sidewalk) Occupancy(pos int) int {
	return s.occupancy[entity.Mod(pos, s.length)]
}

// SpanSum 从start起n格（取模）的等车人数之和
func (s *Sidewalk) SpanSum(start, n int) int {
	sum := 0
	for d := 0; d < n; d++ {
		sum += s.occupancy[entity.Mod(start+d, s.length)]
	}
	return sum
}

// Rebuild 依据站点队列重建占用
func (s *Sidewalk) Rebuild() {
	clear(s.occupancy)
	for _, stop := range s.stops {
		s.occupancy[stop.position] = stop.WaitingLen()
	}
}

func (s *Sidewalk) Snapshot() []int {
	out := make([]int, len(s.occupancy))
	copy(out, s.occupancy)
	return out
}
