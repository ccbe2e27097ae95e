package vehicle

import "github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"

// Counter 通过量计数器
// 功能：统计车尾越过周期边界的车辆数与车上乘客数（累计值）
type Counter struct {
	Transit    int
	Freight    int
	Passengers int
}

// Vehicles 车辆总通过量
func (c Counter) Vehicles() int {
	return c.Transit + c.Freight
}

// count 车辆本步越过边界时计数
func (c *Counter) count(v *Vehicle) {
	if !v.didCrossEdge {
		return
	}
	switch v.class {
	case entity.Transit:
		c.Transit++
	case entity.Freight:
		c.Freight++
	}
	c.Passengers += v.passengers.Len()
}
