package core

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ExecutionInfo describes a running chat execution.
type ExecutionInfo struct {
	ID      string    `json:"id"`
	Started time.Time `json:"started"`
}

type execution struct {
	cancel  context.CancelFunc
	started time.Time
}

// CancelManager tracks running chat executions so they can be stopped.
// Cancelling an execution cancels its context, which closes any Cortex
// connection it has open and surfaces as an error result for that call.
type CancelManager struct {
	executions map[string]execution
	mutex      sync.RWMutex
}

// NewCancelManager creates an empty cancel manager.
func NewCancelManager() *CancelManager {
	return &CancelManager{
		executions: make(map[string]execution),
	}
}

// AddExecution registers an execution and the function that cancels it.
func (cm *CancelManager) AddExecution(executionID string, cancel context.CancelFunc) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.executions[executionID] = execution{cancel: cancel, started: time.Now()}
}

// RemoveExecution stops tracking an execution.
func (cm *CancelManager) RemoveExecution(executionID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	delete(cm.executions, executionID)
}

// CancelExecution cancels and forgets an execution. It returns false when
// the execution is unknown or has already finished.
func (cm *CancelManager) CancelExecution(executionID string) bool {
	cm.mutex.Lock()
	exec, exists := cm.executions[executionID]
	delete(cm.executions, executionID)
	cm.mutex.Unlock()

	if !exists {
		return false
	}
	exec.cancel()
	return true
}

// GetActiveExecutions returns the running executions, oldest first.
func (cm *CancelManager) GetActiveExecutions() []ExecutionInfo {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	executions := make([]ExecutionInfo, 0, len(cm.executions))
	for id, exec := range cm.executions {
		executions = append(executions, ExecutionInfo{ID: id, Started: exec.started})
	}
	sort.Slice(executions, func(i, j int) bool {
		return executions[i].Started.Before(executions[j].Started)
	})
	return executions
}
