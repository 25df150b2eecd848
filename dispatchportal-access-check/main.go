// Command dispatchportal-access-check answers "what can this user do" from
// the command line: it verifies a signed session snapshot token, initializes
// the permission profile against the configured storage backend, and
// optionally evaluates a page or job access question. Useful for support
// staff reproducing a permission complaint without touching the portal UI.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"dispatchportal/lib/auth"
	"dispatchportal/lib/clients"
	"dispatchportal/lib/config"
	"dispatchportal/lib/data"
	"dispatchportal/lib/models"
	"dispatchportal/lib/session"
	"dispatchportal/lib/store"
	"dispatchportal/lib/util"

	"github.com/sirupsen/logrus"
)

var (
	logger *logrus.Logger
	cfg    config.Config
)

func init() {
	cfg = config.Load()
	logger = util.NewLogger(cfg.LogLevel, cfg.IsLocal)
}

func main() {
	token := flag.String("token", os.Getenv("SNAPSHOT_TOKEN"), "signed session snapshot token")
	page := flag.String("page", "", "portal page to check access for")
	action := flag.String("action", models.ActionView, "action to evaluate against the job")
	jobID := flag.String("job-id", "", "job to evaluate the action against")
	jobStatus := flag.String("job-status", "", "status of the job under evaluation")
	jobVendor := flag.String("job-vendor", "", "vendor id of the job under evaluation")
	jobRegion := flag.String("job-region", "", "region of the job under evaluation")
	jobDriver := flag.String("job-driver", "", "assigned driver id of the job under evaluation")
	flag.Parse()

	if *token == "" {
		logger.Fatal("No snapshot token; pass -token or set SNAPSHOT_TOKEN")
	}

	ctx := context.Background()

	profileRepo, assignmentRepo, err := buildRepositories()
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect storage backend")
	}

	st := store.NewPermissionStore(profileRepo, logger)
	resolver := auth.NewJobAssignmentResolver(assignmentRepo, st, logger)
	manager := auth.NewPermissionManager(st, resolver, logger)
	manager.TTL = cfg.CacheTTL
	sessions := session.NewService(st, manager, logger)

	raw, err := session.DecodeSnapshot(cfg.SnapshotSecret, *token)
	if err != nil {
		logger.WithError(err).Fatal("Snapshot token rejected")
	}

	sess, err := sessions.Login(ctx, raw)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize session")
	}

	encoded, err := json.MarshalIndent(sess.Profile, "", "  ")
	if err != nil {
		logger.WithError(err).Fatal("Failed to encode profile")
	}
	fmt.Println(string(encoded))

	if *page != "" {
		fmt.Printf("page %q: %v\n", *page, st.CanAccessPage(ctx, *page))
	}

	if *jobID != "" {
		job := &models.Job{
			ID:       *jobID,
			Status:   *jobStatus,
			VendorID: *jobVendor,
			Region:   *jobRegion,
			DriverID: *jobDriver,
		}
		allowed := manager.ValidateAccess(ctx, sess.User, &models.JobResource{Job: job}, *action)
		fmt.Printf("%s on job %q: %v\n", *action, *jobID, allowed)
	}
}

// buildRepositories selects the session-blob and assignment stores from the
// configured backend. Memory is the default so the tool works with nothing
// but a token and a secret.
func buildRepositories() (data.ProfileRepository, data.AssignmentCacheRepository, error) {
	switch cfg.StorageBackend {
	case "redis":
		client, err := clients.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return &data.RedisDao{Client: client, Logger: logger, TTL: cfg.CacheTTL},
			&data.RedisAssignmentDao{Client: client, Logger: logger, TTL: cfg.CacheTTL}, nil
	case "postgres":
		db, err := clients.NewPostgresSQLClient(
			cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresName,
			cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresSSLMode,
		)
		if err != nil {
			return nil, nil, err
		}
		return &data.PostgresDao{DB: db, Logger: logger},
			data.NewMemoryAssignmentDao(logger), nil
	default:
		return data.NewMemoryDao(logger), data.NewMemoryAssignmentDao(logger), nil
	}
}
