package container

// Set 有序集合
// 功能：数组 + 下标索引实现的集合，支持O(1)增删与成员判断，遍历顺序确定
// 说明：删除时用末尾元素填补空位（与增量数组的维护方式相同），因此删除会改变顺序，
// 但同样的操作序列总能得到同样的遍历顺序，不依赖map的随机迭代
type Set[K comparable] struct {
	data  []K
	index map[K]int
}

// NewSet 创建空集合
func NewSet[K comparable]() *Set[K] {
	return &Set[K]{
		data:  make([]K, 0),
		index: make(map[K]int),
	}
}

// Len 元素个数
func (s *Set[K]) Len() int {
	return len(s.data)
}

// Has 判断是否包含
func (s *Set[K]) Has(key K) bool {
	_, ok := s.index[key]
	return ok
}

// Add 添加元素
// 返回：false表示元素已存在
func (s *Set[K]) Add(key K) bool {
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = len(s.data)
	s.data = append(s.data, key)
	return true
}

// Remove 删除元素
// 返回：false表示元素不存在
// 算法说明：
// 1. 查找待删元素的下标
// 2. 从末尾拿一项填过来并更新其下标
// 3. 截断数组
func (s *Set[K]) Remove(key K) bool {
	ind, ok := s.index[key]
	if !ok {
		return false
	}
	last := len(s.data) - 1
	if ind != last {
		moved := s.data[last]
		s.data[ind] = moved
		s.index[moved] = ind
	}
	s.data = s.data[:last]
	delete(s.index, key)
	return true
}

// Values 返回元素副本，调用方可以在遍历中修改集合
func (s *Set[K]) Values() []K {
	values := make([]K, len(s.data))
	copy(values, s.data)
	return values
}
