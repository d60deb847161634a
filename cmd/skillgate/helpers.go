package main

import (
	"time"

	"github.com/skillgate/skillgate"
	"github.com/skillgate/skillgate/pkg/domain"
)

// runToTerminal polls an execution until it reaches a terminal state. The
// decide callback fires once, when the execution first shows up pending.
func runToTerminal(engine *skillgate.Engine, executionID string, decide func()) *domain.SkillExecution {
	decided := false
	for {
		exec, err := engine.Execution(executionID)
		if err != nil {
			return nil
		}
		if exec.Status.Terminal() {
			return exec
		}
		if exec.Status == domain.StatusPending && !decided {
			decided = true
			decide()
		}
		time.Sleep(10 * time.Millisecond)
	}
}
