package sidewalk

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/randengine"
)

// StopPositions 根据布局配置生成站点位置
// 功能：生成升序、去重、位于[0, length)的站点位置
// 参数：c-布局配置，length-人行道长度，generator-随机数引擎（random模式使用）
// 返回：站点位置与错误
// 算法说明：
// 1. even：从0开始每隔spacing放一个站点，spacing为1时处处可上下车
// 2. explicit：使用配置的位置
// 3. random：间距服从正态分布N(mean, std)并截断到不小于min，越过边界即停止
func StopPositions(c config.StopLayout, length int, generator *randengine.Engine) ([]int, error) {
	var positions []int
	switch c.Mode {
	case "even":
		if c.Spacing <= 0 {
			return nil, fmt.Errorf("stop layout: spacing must be positive, got %d", c.Spacing)
		}
		for pos := 0; pos < length; pos += c.Spacing {
			positions = append(positions, pos)
		}
	case "explicit":
		positions = lo.Uniq(c.Positions)
		slices.Sort(positions)
	case "random":
		if c.MinSpacing <= 0 {
			return nil, fmt.Errorf("stop layout: min_spacing must be positive, got %d", c.MinSpacing)
		}
		for pos := 0; pos < length; {
			positions = append(positions, pos)
			spacing := math.Max(generator.Normal(c.MeanSpacing, c.StdSpacing), float64(c.MinSpacing))
			pos += int(spacing)
		}
	default:
		return nil, fmt.Errorf("stop layout: unknown mode %q", c.Mode)
	}
	for _, pos := range positions {
		if pos < 0 || pos >= length {
			return nil, fmt.Errorf("stop layout: position %d out of range [0, %d)", pos, length)
		}
	}
	return positions, nil
}
