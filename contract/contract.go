//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/runtime"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
}

// Worker is a long running background task. Panics are handled by the
// supervisor, not by the worker.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName returns the concrete type name of w, used as its log name.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// IHub is the broadcast side seen by the relay service and the sessions.
// Publish has no error result: delivery is best effort by contract.
type IHub interface {
	Publish(evt domain.Event)
	Subscribe() *runtime.Consumer
	Unsubscribe(c *runtime.Consumer)
	Stats() runtime.HubStats
}

var _ IHub = (*runtime.Hub)(nil)
