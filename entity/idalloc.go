package entity

// IDAllocator 实体ID分配器
// 功能：为一次试验中的车辆、乘客、站点分配递增ID
// 说明：由任务上下文持有并注入各管理器，不同试验互不影响
type IDAllocator struct {
	nextVehicle   VehicleID
	nextPassenger PassengerID
	nextStop      StopID
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

func (a *IDAllocator) NextVehicle() VehicleID {
	id := a.nextVehicle
	a.nextVehicle++
	return id
}

func (a *IDAllocator) NextPassenger() PassengerID {
	id := a.nextPassenger
	a.nextPassenger++
	return id
}

func (a *IDAllocator) NextStop() StopID {
	id := a.nextStop
	a.nextStop++
	return id
}
