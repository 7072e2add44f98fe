package signals

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mudler/xlog"

	"github.com/OminiX-ai/ominix-hub/core/hub"
)

// Handler requests cancellation of the given download when the OS asks us
// to exit. A second signal exits immediately without waiting for the
// worker to drain.
func Handler(service *hub.Service, modelID string) {
	go func() {
		c := make(chan os.Signal, 1) // we need to reserve to buffer size 1, so the notifier are not blocked
		signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
		<-c
		xlog.Info("interrupt received, cancelling download", "model", modelID)
		service.Cancel(modelID)
		<-c
		os.Exit(1)
	}()
}
