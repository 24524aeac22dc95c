//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Supervision (restart on panic) is the supervisor's job.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
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

// Connection is one live, authenticated socket. Deliver pushes an encoded
// frame to the peer; it must never block the caller indefinitely.
type Connection interface {
	ID() string
	Deliver(frame []byte) error
}

// IPresence is the in-memory table of which users currently hold a live
// connection. Register is last-write-wins per user.
type IPresence interface {
	Register(userID string, conn Connection)
	Unregister(userID, connID string)
	Lookup(userIDs []string) []Connection
	Online() int
}

// IRouter fans one event out to the currently connected subset of its
// audience. Fire-and-forget: offline users are skipped, delivery errors are
// logged, nothing is queued or retried.
type IRouter interface {
	Dispatch(env event.Envelope)
}

// CredentialVerifier resolves a raw credential (a session token) to the user
// it belongs to, or fails with an authentication error.
type CredentialVerifier interface {
	Verify(ctx context.Context, rawCredential string) (domain.User, error)
}

// ObjectStore accepts file bytes and returns a public URL for them.
type ObjectStore interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}
