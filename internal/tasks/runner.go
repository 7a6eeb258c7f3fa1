// Package tasks — запуск именованных фоновых задач внутри процесса.
package tasks

import (
	"fmt"
	"log"
	"sync"
)

type TaskFunc func(args ...string) error

// Runner хранит реестр задач и выполняет их в отдельных горутинах.
// Ошибка выполнения логируется и не возвращается вызывающему.
type Runner struct {
	mu    sync.RWMutex
	tasks map[string]TaskFunc
}

func NewRunner() *Runner {
	return &Runner{tasks: make(map[string]TaskFunc)}
}

func (runner *Runner) Register(name string, task TaskFunc) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	runner.tasks[name] = task
}

func (runner *Runner) RunTask(name string, args ...string) {
	runner.mu.RLock()
	task, ok := runner.tasks[name]
	runner.mu.RUnlock()

	if ok == false {
		log.Printf("неизвестная задача: %s", name)
		return
	}

	go func() {
		if err := task(args...); err != nil {
			log.Printf("ошибка выполнения задачи '%s': %v", name, err)
		}
	}()
}

// RunTaskAndWait выполняет задачу синхронно, используется в тестах.
func (runner *Runner) RunTaskAndWait(name string, args ...string) error {
	runner.mu.RLock()
	task, ok := runner.tasks[name]
	runner.mu.RUnlock()

	if ok == false {
		return fmt.Errorf("неизвестная задача: %s", name)
	}

	return task(args...)
}
