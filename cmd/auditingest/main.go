// Command auditingest pulls new audit-log records for every cluster in a
// fleet descriptor and forwards them, batched by calendar day, into a
// CloudWatch Logs sink, advancing each cluster's watermark only once its
// batch has been durably delivered.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/NetApp/FSx-ONTAP-monitoring/auditingest"
	"github.com/NetApp/FSx-ONTAP-monitoring/domain/fleet"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/alertsink"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/blobstore"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/clusterapi"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/logging"
	"github.com/NetApp/FSx-ONTAP-monitoring/infrastructure/secrets"
	"github.com/NetApp/FSx-ONTAP-monitoring/statestore"
)

func main() {
	fleetFile := flag.String("fleet-file", "", "path to the fleet descriptor file")
	flag.Parse()

	logger := logging.NewFromEnv("auditingest")
	ctx := logging.WithRunID(context.Background(), logging.NewRunID())
	log := logger.WithContext(ctx)

	if *fleetFile == "" {
		log.Fatal("missing -fleet-file")
	}

	fleetBytes, err := os.ReadFile(*fleetFile)
	if err != nil {
		log.WithError(err).Fatal("failed to read fleet descriptor")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to load AWS config")
	}

	discoverer := auditingest.StaticFleetDiscoverer{FleetText: string(fleetBytes)}
	entries, err := discoverer.Discover(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to discover fleet entries")
	}

	var blobs blobstore.Store
	if bucket := os.Getenv("STATE_BUCKET"); bucket != "" {
		blobs = blobstore.NewS3Store(s3.NewFromConfig(awsCfg), bucket, "auditingest-state")
	} else {
		blobs = blobstore.NewMemStore()
	}
	store := statestore.New(blobs)

	resolver := secrets.NewSMResolver(secretsmanager.NewFromConfig(awsCfg), "", "")

	logGroup := os.Getenv("AUDIT_LOG_GROUP")
	if logGroup == "" {
		log.Fatal("missing AUDIT_LOG_GROUP")
	}
	sink := &cloudWatchBatchSink{
		streams: alertsink.NewCloudWatchStreamWriter(cloudwatchlogs.NewFromConfig(awsCfg), logGroup),
		clock:   time.Now,
	}

	for _, entry := range entries {
		runOne(ctx, logger, resolver, store, sink, entry)
	}
}

func runOne(
	ctx context.Context,
	logger *logging.Logger,
	resolver *secrets.SMResolver,
	store *statestore.Store,
	sink auditingest.Sink,
	entry fleet.Entry,
) {
	clusterCtx := logging.WithClusterName(ctx, entry.Host)
	log := logger.WithContext(clusterCtx)

	creds, err := resolver.Resolve(clusterCtx, entry.SecretRef)
	if err != nil {
		log.WithError(err).Error("failed to resolve cluster credentials")
		return
	}

	client := clusterapi.New("https://"+entry.Host, creds.Username, creds.Password)

	ing := auditingest.NewIngester(client, store, sink, logger, auditingest.Filter{
		InputFilter:      os.Getenv("AUDIT_INPUT_FILTER"),
		InputMatch:       os.Getenv("AUDIT_INPUT_MATCH"),
		ApplicationMatch: os.Getenv("AUDIT_APPLICATION_MATCH"),
		UserMatch:        os.Getenv("AUDIT_USER_MATCH"),
		StateMatch:       os.Getenv("AUDIT_STATE_MATCH"),
	})

	if err := ing.Run(clusterCtx, entry.Host); err != nil {
		log.WithError(err).Error("audit ingest run failed")
	}
}

// cloudWatchBatchSink adapts alertsink.LogStreamWriter, which accepts one
// message at a time, to auditingest.Sink's per-day batch shape: every
// message in a batch is written to the same day-stamped stream named after
// batchKey.
type cloudWatchBatchSink struct {
	streams alertsink.LogStreamWriter
	clock   func() time.Time
}

func (s *cloudWatchBatchSink) PutBatch(ctx context.Context, batchKey string, messages []auditingest.Message) error {
	now := s.clock()
	for _, msg := range messages {
		if err := s.streams.PutEvent(ctx, batchKey, msg.Body, now); err != nil {
			return err
		}
	}
	return nil
}
