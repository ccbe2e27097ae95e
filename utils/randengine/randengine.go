// 随机数引擎，包装了golang.org/x/exp/rand，所有随机决策都从同一个引擎取数以保证可复现
package randengine

import (
	"flag"
	"log"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：为一次仿真试验提供确定性的随机数序列
// 说明：非线程安全，每个试验持有自己的引擎，不在试验间共享
type Engine struct {
	*rand.Rand // 底层随机数生成器
	seed       uint64
}

// New 创建随机数引擎
// 功能：初始化一个新的随机数引擎实例
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改配置的情况下整体平移随机数序列
func New(seed uint64) *Engine {
	s := seed + *seedOffset
	return &Engine{Rand: rand.New(rand.NewSource(s)), seed: s}
}

// Seed 实际使用的种子（含偏移量）
func (e *Engine) Seed() uint64 {
	return e.seed
}

// PTrue 以指定概率返回true
// 功能：伯努利试验
// 参数：p-返回true的概率（0.0到1.0之间）
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// IntRange 在闭区间[lo, hi]内均匀抽取整数
func (e *Engine) IntRange(lo, hi int) int {
	if hi < lo {
		log.Panicf("randengine: IntRange: bad range [%d, %d]", lo, hi)
	}
	return lo + e.Intn(hi-lo+1)
}

// Choice 从候选中均匀抽取一个下标
func (e *Engine) Choice(n int) int {
	if n <= 0 {
		log.Panicf("randengine: Choice: empty candidates")
	}
	return e.Intn(n)
}

// Normal 正态分布随机数
func (e *Engine) Normal(mean, std float64) float64 {
	return mean + std*e.NormFloat64()
}
