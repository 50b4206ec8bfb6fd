package services

import "time"

// Test hooks: a fixed clock and inline fan-out make service side effects deterministic.

func (s *BookingService) SetClock(now func() time.Time) { s.now = now }

func (s *BookingService) SetFanout(fanout func(func())) { s.fanout = fanout }

func (s *PriorityService) SetClock(now func() time.Time) { s.now = now }

func (s *PriorityService) SetFanout(fanout func(func())) { s.fanout = fanout }

func (s *SalonService) SetFanout(fanout func(func())) { s.fanout = fanout }

func (s *QueueAutoService) SetClock(now func() time.Time) { s.now = now }

func (s *WaitTimeService) SetClock(now func() time.Time) { s.now = now }

func (a *TokenAllocator) SetIntN(intN func(int) int) { a.intN = intN }
