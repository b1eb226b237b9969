// Command dispatcher fans a fleet descriptor out to one monitor invocation
// per cluster. It reads its configuration from the environment, matching
// the invocation envelope a scheduled Lambda-style trigger would provide,
// and is equally runnable as a long-lived process driven by an external
// scheduler.
package main

import (
	"context"
	"flag"
	"os"
	"os/exec"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/fleet"
	"github.com/NetApp/FSx-ONTAP-monitoring/dispatcher"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/alertsink"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/blobstore"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/logging"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/runconfig"
	"github.com/NetApp/FSx-ONTAP-monitoring/statestore"
)

func main() {
	fleetFile := flag.String("fleet-file", "", "path to the fleet descriptor file")
	mode := flag.String("mode", string(dispatcher.ModeSync), "fire-and-forget or sync")
	monitorBinary := flag.String("monitor-binary", "monitor", "path to the monitor binary to invoke per cluster")
	flag.Parse()

	logger := logging.NewFromEnv("dispatcher")
	ctx := logging.WithRunID(context.Background(), logging.NewRunID())

	if *fleetFile == "" {
		logger.WithContext(ctx).Fatal("missing -fleet-file")
	}

	fleetBytes, err := os.ReadFile(*fleetFile)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Fatal("failed to read fleet descriptor")
	}

	payload := runconfig.FromEnviron(nil)
	store := statestore.New(blobstore.NewMemStore())

	fanout := &alertsink.Fanout{
		Logger:               logger,
		ClusterName:          "fleet",
		Source:               "",
		WebhookSeverityFloor: "INFO",
	}

	d := &dispatcher.Dispatcher{
		Logger:  logger,
		Store:   store,
		Alerts:  fanout,
		FleetID: "default",
		Invoke:  invokeMonitorBinary(*monitorBinary),
	}

	if err := d.Run(ctx, string(fleetBytes), payload, dispatcher.Mode(*mode)); err != nil {
		logger.WithContext(ctx).WithError(err).Fatal("dispatcher run failed")
	}
}

// invokeMonitorBinary shells out to a separately-built monitor binary per
// cluster, passing the per-cluster invocation payload as environment
// variables -- mirroring the original system's one-Lambda-invocation-per-
// cluster model without requiring an actual Lambda runtime.
func invokeMonitorBinary(binary string) dispatcher.MonitorInvoker {
	return func(ctx context.Context, entry fleet.Entry, payload runconfig.Payload) error {
		cmd := exec.CommandContext(ctx, binary)
		env := os.Environ()
		for k, v := range payload {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
		return cmd.Run()
	}
}
