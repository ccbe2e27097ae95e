package container

import (
	"fmt"
	"log"
)

// queueNode 双向链表节点
type queueNode[K comparable] struct {
	prev, next *queueNode[K]
	key        K
}

// Queue 先进先出队列
// 功能：双向链表实现的FIFO，额外维护 key -> 节点 的索引
// 说明：支持O(1)的入队、出队、按key删除和成员判断，同一key只能入队一次
type Queue[K comparable] struct {
	head, tail *queueNode[K]
	index      map[K]*queueNode[K]
}

// NewQueue 创建空队列
func NewQueue[K comparable]() *Queue[K] {
	return &Queue[K]{index: make(map[K]*queueNode[K])}
}

// String 获取队列的字符串表示
func (q *Queue[K]) String() string {
	return fmt.Sprintf("Queue{Len:%d, Values:%v}", q.Len(), q.Values())
}

// Len 队列长度
func (q *Queue[K]) Len() int {
	return len(q.index)
}

// Has 判断key是否在队列中
func (q *Queue[K]) Has(key K) bool {
	_, ok := q.index[key]
	return ok
}

// PushBack 入队（队尾）
// 功能：在队尾追加key
// 说明：key已在队列中属于调用方错误，直接panic
func (q *Queue[K]) PushBack(key K) {
	if _, ok := q.index[key]; ok {
		log.Panicf("push back key %v who already in queue", key)
	}
	node := &queueNode[K]{key: key, prev: q.tail}
	if q.tail != nil {
		q.tail.next = node
	} else {
		q.head = node
	}
	q.tail = node
	q.index[key] = node
}

// PopFront 出队（队首）
// 返回：队首key，队列为空时ok为false
func (q *Queue[K]) PopFront() (key K, ok bool) {
	if q.head == nil {
		return key, false
	}
	key = q.head.key
	q.unlink(q.head)
	return key, true
}

// Front 查看队首但不出队
func (q *Queue[K]) Front() (key K, ok bool) {
	if q.head == nil {
		return key, false
	}
	return q.head.key, true
}

// Remove 按key删除
// 返回：key是否存在
func (q *Queue[K]) Remove(key K) bool {
	node, ok := q.index[key]
	if !ok {
		return false
	}
	q.unlink(node)
	return true
}

// unlink 从链表中摘除节点并删除索引
func (q *Queue[K]) unlink(node *queueNode[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		q.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		q.tail = node.prev
	}
	node.prev = nil
	node.next = nil
	delete(q.index, node.key)
}

// Values 按出队顺序返回所有key
func (q *Queue[K]) Values() []K {
	values := make([]K, 0, len(q.index))
	for node := q.head; node != nil; node = node.next {
		values = append(values, node.key)
	}
	return values
}
