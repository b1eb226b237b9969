// Command monitor probes a single cluster's system health, EMS events,
// SnapMirror relationships, storage, quota, and vserver state, persists the
// updated event-history state, and fans any resulting alerts out to the
// configured sinks. It is invoked once per cluster by cmd/dispatcher, or run
// standalone against a single cluster for local testing -- mirroring the
// original system's "if not running under the scheduler, run once against
// the default target" escape hatch.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/NetApp/FSx-ONTAP-monitoring/domain/alert"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/eventhistory"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/matchconditions"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/watchlist"
	"github.com/NetApp/FSx-ONTAP-monitoring/evaluator"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/alertsink"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/blobstore"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/clusterapi"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/logging"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/runconfig"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/secrets"
	"github.com/NetApp/FSx-ONTAP-monitoring/statestore"
)

func main() {
	logger := logging.NewFromEnv("monitor")
	ctx := logging.WithRunID(context.Background(), logging.NewRunID())

	payload := runconfig.FromEnviron(nil)

	host, err := payload.Require("host")
	if err != nil {
		logger.WithContext(ctx).WithError(err).Fatal("missing cluster host")
	}
	secretRef, err := payload.Require("secretRef")
	if err != nil {
		logger.WithContext(ctx).WithError(err).Fatal("missing secretRef")
	}

	ctx = logging.WithClusterName(ctx, host)
	log := logger.WithContext(ctx)

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to load AWS config")
	}

	resolver := secrets.NewSMResolver(secretsmanager.NewFromConfig(awsCfg),
		payload.Get("secretUsernameKey", ""), payload.Get("secretPasswordKey", ""))
	creds, err := resolver.Resolve(ctx, secretRef)
	if err != nil {
		log.WithError(err).Fatal("failed to resolve cluster credentials")
	}

	client := clusterapi.New("https://"+host, creds.Username, creds.Password,
		clusterapi.WithTimeout(time.Duration(payload.GetInt("timeoutSeconds", 10))*time.Second))

	var blobs blobstore.Store
	if bucket := os.Getenv("STATE_BUCKET"); bucket != "" {
		blobs = blobstore.NewS3Store(s3.NewFromConfig(awsCfg), bucket, "monitor-state")
	} else {
		blobs = blobstore.NewMemStore()
	}
	store := statestore.New(blobs)

	fanout := &alertsink.Fanout{
		Logger:               logger,
		ClusterName:          host,
		Source:               os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		WebhookSeverityFloor: alert.Severity(payload.Get("webhookSeverity", "INFO")),
	}
	if topicARN := os.Getenv("ALERT_TOPIC_ARN"); topicARN != "" {
		fanout.PubSub = alertsink.NewSNSPublisher(sns.NewFromConfig(awsCfg), topicARN)
	}
	if logGroup := os.Getenv("ALERT_LOG_GROUP"); logGroup != "" {
		fanout.Streams = alertsink.NewCloudWatchStreamWriter(cloudwatchlogs.NewFromConfig(awsCfg), logGroup)
	}
	if webhookURL := os.Getenv("ALERT_WEBHOOK_URL"); webhookURL != "" {
		fanout.Webhook = alertsink.NewHTTPWebhookSender(webhookURL, nil)
	}
	if fanout.Source != "" {
		fanout.Source = "lambda"
	}

	evalCtx := evaluator.EvalContext{Client: client, ClusterName: host, Now: time.Now()}

	rules := matchconditions.Document{}
	if doc, ok, ruleErr := store.MatchConditions(ctx, host); ruleErr == nil && ok {
		rules = doc
	}

	runEvaluators(ctx, evalCtx, rules, store, host, fanout, logger)
}

func emitAll(ctx context.Context, fanout *alertsink.Fanout, alerts []alert.Intent) {
	for _, a := range alerts {
		_ = fanout.Emit(ctx, a)
	}
}

func runEvaluators(
	ctx context.Context,
	evalCtx evaluator.EvalContext,
	rules matchconditions.Document,
	store *statestore.Store,
	host string,
	fanout *alertsink.Fanout,
	logger *logging.Logger,
) {
	status, err := store.SystemStatus(ctx, host)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("failed to load system status")
		return
	}
	info, newStatus, alerts, err := evaluator.CheckSystem(ctx, evalCtx, rules.SystemHealth, status)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("system health check failed")
		return
	}
	emitAll(ctx, fanout, alerts)

	if rules.SystemHealth.Failover {
		failoverStatus, failoverAlerts, err := evaluator.CheckFailover(ctx, evalCtx, newStatus)
		if err != nil {
			logger.WithContext(ctx).WithError(err).Error("failover check failed")
		} else {
			newStatus = failoverStatus
			emitAll(ctx, fanout, failoverAlerts)
		}
	}

	if err := store.PutSystemStatus(ctx, host, newStatus); err != nil {
		logger.WithContext(ctx).WithError(err).Error("failed to persist system status")
	}

	if rules.SystemHealth.NetworkInterfaces {
		ifaceHistory, err := store.NetworkInterfaceEvents(ctx, host)
		if err == nil {
			ifaceAlerts, newIfaceHistory, evalErr := evaluator.CheckNetworkInterfaces(ctx, evalCtx, rules.SystemHealth.NetworkInterfaceSeverity, ifaceHistory)
			if evalErr == nil {
				emitAll(ctx, fanout, ifaceAlerts)
				_ = store.PutNetworkInterfaceEvents(ctx, host, newIfaceHistory)
			}
		}
	}

	emsHistory, err := store.EMSEvents(ctx, host)
	if err == nil {
		emsAlerts, newHistory, evalErr := evaluator.EvaluateEMS(ctx, evalCtx, rules.EMS, emsHistory)
		if evalErr == nil {
			emitAll(ctx, fanout, emsAlerts)
			_ = store.PutEMSEvents(ctx, host, newHistory)
		}
	}

	loc, err := time.LoadLocation(info.Timezone.Name)
	if err != nil {
		loc = time.UTC
	}
	exprByPolicy, exprErr := evaluator.FetchScheduleExpressions(ctx, evalCtx)

	smHistory, _ := store.SnapMirrorEvents(ctx, host)
	smWatch, _ := store.SnapMirrorWatchlist(ctx, host)
	var smAlerts []alert.Intent
	var newSMHistory eventhistory.History
	var newSMWatch watchlist.Watchlist
	if exprErr == nil {
		smAlerts, newSMHistory, newSMWatch, err = evaluator.EvaluateSnapMirror(ctx, evalCtx, rules.SnapMirror, smHistory, smWatch, evaluator.ResolveScheduleLookup(exprByPolicy, loc, evalCtx.Now))
	} else {
		smAlerts, newSMHistory, newSMWatch, err = evaluator.EvaluateSnapMirror(ctx, evalCtx, rules.SnapMirror, smHistory, smWatch, nil)
	}
	if err == nil {
		emitAll(ctx, fanout, smAlerts)
		_ = store.PutSnapMirrorEvents(ctx, host, newSMHistory)
		_ = store.PutSnapMirrorWatchlist(ctx, host, newSMWatch)
	}

	storageHistory, _ := store.StorageEvents(ctx, host)
	aggrAlerts, storageHistory, err := evaluator.EvaluateAggregateSpace(ctx, evalCtx, "/api/storage/aggregates", rules.Storage, storageHistory)
	if err == nil {
		emitAll(ctx, fanout, aggrAlerts)
	}
	volAlerts, storageHistory, err := evaluator.EvaluateVolumeSpace(ctx, evalCtx, "/api/storage/volumes", true, rules.Storage, storageHistory)
	if err == nil {
		emitAll(ctx, fanout, volAlerts)
	}
	if volumes, err := fetchVolumeList(ctx, evalCtx); err == nil {
		for _, v := range volumes {
			var snapAlerts []alert.Intent
			snapAlerts, storageHistory, err = evaluator.EvaluateSnapshotAge(ctx, evalCtx, v.UUID, v.Name, rules.Storage, storageHistory)
			if err == nil {
				emitAll(ctx, fanout, snapAlerts)
			}
		}
	}
	_ = store.PutStorageEvents(ctx, host, storageHistory)

	quotaHistory, _ := store.QuotaEvents(ctx, host)
	quotaAlerts, newQuotaHistory, err := evaluator.EvaluateQuota(ctx, evalCtx, rules.Quota, quotaHistory)
	if err == nil {
		emitAll(ctx, fanout, quotaAlerts)
		_ = store.PutQuotaEvents(ctx, host, newQuotaHistory)
	}

	vserverHistory, _ := store.VserverEvents(ctx, host)
	vserverAlerts, newVserverHistory, err := evaluator.EvaluateVserver(ctx, evalCtx, rules.Vserver, vserverHistory)
	if err == nil {
		emitAll(ctx, fanout, vserverAlerts)
		_ = store.PutVserverEvents(ctx, host, newVserverHistory)
	}
}

type volumeRef struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func fetchVolumeList(ctx context.Context, evalCtx evaluator.EvalContext) ([]volumeRef, error) {
	body, err := evalCtx.Client.Get(ctx, "/api/storage/volumes?fields=uuid,name")
	if err != nil {
		return nil, err
	}
	var resp struct {
		Records []volumeRef `json:"records"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}
