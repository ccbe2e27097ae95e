package entity

import (
	"errors"
	"fmt"
)

// ErrFootprintOccupied 车辆放置到已被占用的位置
var ErrFootprintOccupied = errors.New("footprint occupied")

// RidingState 乘客状态
type RidingState int

const (
	Waiting        RidingState = iota // 在站点等车
	Boarded                           // 已上车，未请求下车
	RequestingStop                    // 已请求下车
	Alighted                          // 已下车
)

func (s RidingState) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Boarded:
		return "boarded"
	case RequestingStop:
		return "requesting_stop"
	case Alighted:
		return "alighted"
	}
	return fmt.Sprintf("RidingState(%d)", int(s))
}

// RidingEvent 触发乘客状态转移的事件
type RidingEvent int

const (
	EventBoard       RidingEvent = iota // 上车
	EventRequestStop                    // 请求下车
	EventAlight                         // 下车
)

func (e RidingEvent) String() string {
	switch e {
	case EventBoard:
		return "board"
	case EventRequestStop:
		return "request_stop"
	case EventAlight:
		return "alight"
	}
	return fmt.Sprintf("RidingEvent(%d)", int(e))
}

// NextRidingState 乘客状态转移函数
// 功能：Waiting -board-> Boarded -request_stop-> RequestingStop -alight-> Alighted
// 返回：新状态；其余组合返回错误
func NextRidingState(s RidingState, e RidingEvent) (RidingState, error) {
	switch {
	case s == Waiting && e == EventBoard:
		return Boarded, nil
	case s == Boarded && e == EventRequestStop:
		return RequestingStop, nil
	case s == RequestingStop && e == EventAlight:
		return Alighted, nil
	}
	return s, fmt.Errorf("bad riding transition: %v on %v", e, s)
}
