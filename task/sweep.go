package task

import (
	"errors"
	"fmt"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/tsinghua-fib-lab/mixed-traffic-sim/utils/config"
)

// Trial 参数扫描中的一次试验
type Trial struct {
	Index         int
	Density       float64
	TruckFraction float64
	StopSpacing   int     // 0表示沿用配置的站点布局
	ArrivalRate   float64 // 基准间距下的每站到达率
	Trial         int
	Seed          uint64
}

// Job 试验的任务名
func (t Trial) Job(prefix string) string {
	return fmt.Sprintf("%s_d%.3f_k%.3f_s%d_a%.3f_t%d", prefix, t.Density, t.TruckFraction, t.StopSpacing, t.ArrivalRate, t.Trial)
}

// Trials 展开参数扫描
// 功能：密度 × 货车比例 × 站点间距 × 到达率 × 重复次数的笛卡尔积
// 说明：第i次试验的种子为control.seed+i
func Trials(c config.Config) []Trial {
	s := c.Sweep
	if s == nil {
		return []Trial{{
			Density:       c.Vehicles.Density,
			TruckFraction: c.Vehicles.TruckFraction,
			ArrivalRate:   c.Passengers.ArrivalRate,
			Seed:          c.Control.Seed,
		}}
	}
	spacings := s.StopSpacings
	if len(spacings) == 0 {
		spacings = []int{0}
	}
	rates := s.ArrivalRates
	if len(rates) == 0 {
		rates = []float64{c.Passengers.ArrivalRate}
	}
	var trials []Trial
	for _, density := range s.Densities {
		for _, kappa := range s.TruckFractions {
			for _, spacing := range spacings {
				for _, rate := range rates {
					for k := 0; k < s.Trials; k++ {
						i := len(trials)
						trials = append(trials, Trial{
							Index:         i,
							Density:       density,
							TruckFraction: kappa,
							StopSpacing:   spacing,
							ArrivalRate:   rate,
							Trial:         k,
							Seed:          c.Control.Seed + uint64(i),
						})
					}
				}
			}
		}
	}
	return trials
}

// TrialConfig 生成一次试验的配置
// 功能：覆盖密度、货车比例、到达率、种子与站点间距
// 说明：配置了基准间距时按间距归一化每站到达率，保持全路总到达率与基准间距下相同。
// 站数取整：total = ⌊L/base⌋·rate，每站 = total/⌊L/spacing⌋，截断到[0, 1]；
// ⌊L/spacing⌋为0时不归一化
func TrialConfig(c config.Config, t Trial) config.Config {
	out := c
	out.Sweep = nil
	out.Vehicles.Density = t.Density
	out.Vehicles.TruckFraction = t.TruckFraction
	out.Passengers.ArrivalRate = t.ArrivalRate
	out.Control.Seed = t.Seed
	if t.StopSpacing > 0 {
		out.Sidewalk.Stops.Mode = "even"
		out.Sidewalk.Stops.Spacing = t.StopSpacing
		if c.Sweep != nil && c.Sweep.BaseStopSpacing > 0 {
			baseStops := c.Road.Length / c.Sweep.BaseStopSpacing
			stops := c.Road.Length / t.StopSpacing
			if stops > 0 {
				perStop := float64(baseStops) * t.ArrivalRate / float64(stops)
				out.Passengers.ArrivalRate = min(max(perStop, 0), 1)
			}
		}
	}
	return out
}

type trialOutput struct {
	res *Result
	err error
}

// Sweep 并行运行参数扫描
// 功能：每次试验使用独立的上下文、随机数引擎与ID分配器，并行执行
// 返回：按试验顺序排列的结果；任一试验无法创建时返回合并的错误
func Sweep(job string, c config.Config) ([]*Result, error) {
	trials := Trials(c)
	log.Infof("sweep %s: %d trials", job, len(trials))
	outputs := parallel.GoMap(trials, func(t Trial) trialOutput {
		tc := TrialConfig(c, t)
		ctx, err := NewContext(t.Job(job), tc)
		if err != nil {
			return trialOutput{err: err}
		}
		res := ctx.Run()
		res.Summary.Trial = t.Trial
		res.Summary.BaseArrivalRate = t.ArrivalRate
		return trialOutput{res: res}
	})
	results := make([]*Result, 0, len(outputs))
	var errs []error
	for _, o := range outputs {
		if o.err != nil {
			errs = append(errs, o.err)
			continue
		}
		results = append(results, o.res)
	}
	return results, errors.Join(errs...)
}
