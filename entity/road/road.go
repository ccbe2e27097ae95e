package road

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/entity"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

// Road 道路实体
// 功能：周期边界的二维占用网格（纵向位置 × 横向元胞行）与车道通行规则
// 说明：占用网格是派生视图，每步末由车辆管理器依据车辆覆盖范围整体重建
type Road struct {
	length int
	width  int
	maxV   int

	occupancy [][]entity.Cell // [pos][row]

	allowed map[int]map[entity.VehicleClass]bool // 车道行 -> 允许的车辆类别
}

// New 创建道路
// 参数：rc-运行时配置
// 返回：空道路
func New(rc *config.RuntimeConfig) *Road {
	c := rc.All.Road
	r := &Road{
		length:    c.Length,
		width:     c.Width,
		maxV:      c.SpeedLimit,
		occupancy: make([][]entity.Cell, c.Length),
		allowed:   make(map[int]map[entity.VehicleClass]bool),
	}
	for i := range r.occupancy {
		r.occupancy[i] = make([]entity.Cell, c.Width)
	}
	for row, classes := range rc.AllowedRows {
		r.allowed[row] = make(map[entity.VehicleClass]bool)
		if classes[config.ClassTransit] {
			r.allowed[row][entity.Transit] = true
		}
		if classes[config.ClassFreight] {
			r.allowed[row][entity.Freight] = true
		}
	}
	log.Debugf("road: length=%d width=%d maxV=%d", r.length, r.width, r.maxV)
	return r
}

func (r *Road) String() string {
	return fmt.Sprintf("Road{length=%d, width=%d}", r.length, r.width)
}

func (r *Road) Length() int {
	return r.length
}

func (r *Road) Width() int {
	return r.width
}

func (r *Road) MaxV() int {
	return r.maxV
}

// At 读取占用，pos按周期取模，row越界视为空
func (r *Road) At(pos, row int) entity.Cell {
	if row < 0 || row >= r.width {
		return entity.CellEmpty
	}
	return r.occupancy[entity.Mod(pos, r.length)][row]
}

// rows 覆盖范围在横向上的行区间[from, to)
func (r *Road) rows(row, width int) (int, int) {
	return lo.Clamp(row, 0, r.width), lo.Clamp(row+width, 0, r.width)
}

// SpanSum 滚动窗口内的占用编码之和
// 功能：从start起n格（取模），横向[row, row+width)行，累加占用编码
// 说明：和为0表示窗口内无车
func (r *Road) SpanSum(start, n, row, width int) int {
	from, to := r.rows(row, width)
	sum := 0
	for d := 0; d < n; d++ {
		cells := r.occupancy[entity.Mod(start+d, r.length)]
		for y := from; y < to; y++ {
			sum += int(cells[y])
		}
	}
	return sum
}

// Allowed 车道行通行规则
func (r *Road) Allowed(row int, class entity.VehicleClass) bool {
	return r.allowed[row][class]
}

// each 遍历覆盖范围内的所有元胞
// 说明：跨越边界的范围自然拆成[rear, L)与[0, (rear+len) mod L)两段
func (r *Road) each(f entity.Footprint, fn func(pos, row int)) {
	from, to := r.rows(f.Row, f.Width)
	for d := 0; d < f.Length; d++ {
		pos := entity.Mod(f.Rear+d, r.length)
		for y := from; y < to; y++ {
			fn(pos, y)
		}
	}
}

// Place 写入占位
// 功能：在覆盖范围内写入占用编码
// 返回：范围内已有占用时返回ErrFootprintOccupied，且不做任何写入
func (r *Road) Place(f entity.Footprint, c entity.Cell) error {
	free := true
	r.each(f, func(pos, row int) {
		if r.occupancy[pos][row] != entity.CellEmpty {
			free = false
		}
	})
	if !free {
		return fmt.Errorf("place %v: %w", f, entity.ErrFootprintOccupied)
	}
	r.Paint(f, c)
	return nil
}

// Paint 覆盖写入
func (r *Road) Paint(f entity.Footprint, c entity.Cell) {
	r.each(f, func(pos, row int) {
		r.occupancy[pos][row] = c
	})
}

// Erase 清除覆盖范围
func (r *Road) Erase(f entity.Footprint) {
	r.Paint(f, entity.CellEmpty)
}

// contains 判断元胞是否在覆盖范围内
func (r *Road) contains(f entity.Footprint, pos, row int) bool {
	from, to := r.rows(f.Row, f.Width)
	return row >= from && row < to && entity.Mod(pos-f.Rear, r.length) < f.Length
}

// FreeFor 判断覆盖范围f是否只被self自身占用
// 说明：车辆横移或前移到新位置前，用自身当前位置作为self排除自身
func (r *Road) FreeFor(f, self entity.Footprint) bool {
	free := true
	r.each(f, func(pos, row int) {
		if free && r.occupancy[pos][row] != entity.CellEmpty && !r.contains(self, pos, row) {
			free = false
		}
	})
	return free
}

// Clear 清空占用
func (r *Road) Clear() {
	for _, cells := range r.occupancy {
		clear(cells)
	}
}

// OccupiedCells 非空元胞数
func (r *Road) OccupiedCells() int {
	n := 0
	for _, cells := range r.occupancy {
		n += lo.CountBy(cells, func(c entity.Cell) bool { return c != entity.CellEmpty })
	}
	return n
}

// Snapshot 占用网格的拷贝
func (r *Road) Snapshot() [][]entity.Cell {
	return lo.Map(r.occupancy, func(cells []entity.Cell, _ int) []entity.Cell {
		out := make([]entity.Cell, len(cells))
		copy(out, cells)
		return out
	})
}
