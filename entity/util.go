package entity

// Mod 非负取模
func Mod(x, n int) int {
	r := x % n
	if r < 0 {
		r += n
	}
	return r
}

// InCircularInterval 判断x是否落在周期区间[prev, cur)内
// 说明：cur < prev 表示区间跨过了边界，此时区间为[prev, L) ∪ [0, cur)；prev == cur为空区间
func InCircularInterval(prev, cur, x int) bool {
	if prev <= cur {
		return prev <= x && x < cur
	}
	return x >= prev || x < cur
}
