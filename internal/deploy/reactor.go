package deploy

import (
	"context"
	"log"

	"github.com/stackwright/stackwright/internal/orchestrator"
)

// Attach subscribes the gateway to an orchestrator's event stream and
// starts the matching external effect whenever a validation or deployment
// phase becomes ready. Effect output is forwarded back into the stream as
// log events through the returned publisher.
//
// The returned stop function unsubscribes; in-flight effects still run to
// completion unless ctx is cancelled.
func Attach(ctx context.Context, orch *orchestrator.Orchestrator, g *Gateway) func() {
	events, unsubscribe := orch.Subscribe(false)

	onLog := func(line string) {
		orch.PublishLog(line)
	}

	go func() {
		for ev := range events {
			switch ev.Type {
			case orchestrator.EventValidationReady:
				log.Printf("[deploy] validation ready for phase %d", ev.Index)
				g.StartValidation(ctx, orch.Workspace(), ev.Index, orch, onLog)

			case orchestrator.EventDockerDeployReady:
				log.Printf("[deploy] docker deployment ready for phase %d", ev.Index)
				g.StartDockerDeployment(ctx, orch.Workspace(), ev.Index, orch, onLog)

			case orchestrator.EventAzureDeployReady:
				log.Printf("[deploy] azure deployment ready for phase %d", ev.Index)
				g.StartCloudDeployment(ctx, orch.Workspace(), ev.Index, orch, onLog)
			}
		}
	}()

	return unsubscribe
}
