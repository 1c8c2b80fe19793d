package queue

import (
	"fmt"

	"GeetaSaathi/storage/mq"
)

const (
	EventsExchange = "geeta.events"

	OnboardingCompletedQueue      = "onboarding.completed"
	OnboardingCompletedRoutingKey = "onboarding.completed"
)

// DeclareTopology server 与 worker 启动时都会调用，声明是幂等的
func DeclareTopology() error {
	if err := mq.Declare(EventsExchange, OnboardingCompletedQueue, OnboardingCompletedRoutingKey); err != nil {
		return fmt.Errorf("failed to declare onboarding topology: %w", err)
	}
	return nil
}
