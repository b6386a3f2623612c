package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"groceryagent/internal/grocery"
)

// ErrLaunch reports that the browser agent could not be started. The list
// file is still written, so the run can be retried without rebuilding it.
var ErrLaunch = errors.New("cart agent launch failed")

// Agent launches browser sessions for the confirmed grocery list. Start must
// fail fast and hand back an independent Session per call, so overlapping
// dispatches never share browser state.
type Agent interface {
	Start() (Session, error)
}

// Session is one launched cart run. Run is fire and forget and owns the
// session's browser for its whole lifetime.
type Session interface {
	Run(ctx context.Context, items []grocery.Item)
}

// Bridge hands a confirmed grocery list to the browser agent. The list is
// persisted as JSON first so an external agent process can pick it up too.
type Bridge struct {
	listPath string
	agent    Agent
	log      *zap.Logger
}

// NewBridge creates a Bridge writing the handoff file at listPath.
func NewBridge(listPath string, agent Agent, log *zap.Logger) *Bridge {
	if listPath == "" {
		listPath = grocery.DefaultListPath
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{listPath: listPath, agent: agent, log: log}
}

// Dispatch writes the list file and starts the agent. The agent run itself
// happens in the background; only write and launch failures are returned.
func (b *Bridge) Dispatch(items []grocery.Item) error {
	if err := grocery.WriteListFile(b.listPath, items); err != nil {
		return fmt.Errorf("write grocery list: %w", err)
	}
	b.log.Info("grocery list written", zap.String("path", b.listPath), zap.Int("items", len(items)))

	if b.agent == nil {
		return nil
	}
	session, err := b.agent.Start()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	go session.Run(context.Background(), items)
	return nil
}
