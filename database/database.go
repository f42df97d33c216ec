// Package database - Handles all interaction with ArangoDB
package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
	"github.com/cenkalti/backoff"
	"github.com/ettoremessina/CveGuardian/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DBConnection is the structure that defines the database engine and collections
type DBConnection struct {
	Collections map[string]arangodb.Collection
	Database    arangodb.Database
}

// indexConfig holds one persistent index definition
type indexConfig struct {
	Collection string
	IdxName    string
	IdxFields  []string
	Unique     bool
	Sparse     bool
}

// InitLogger sets up the Zap Logger to log to the console in a human readable format
func InitLogger() *zap.Logger {
	prodConfig := zap.NewProductionConfig()
	prodConfig.Encoding = "console"
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	logger, _ := prodConfig.Build()
	return logger
}

func dbConnectionConfig(endpoint connection.Endpoint, dbuser string, dbpass string) connection.HttpConfiguration {
	return connection.HttpConfiguration{
		Authentication: connection.NewBasicAuth(dbuser, dbpass),
		Endpoint:       endpoint,
		ContentType:    connection.ApplicationJSON,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402
			},
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 90 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// InitializeDatabase connects to the db engine, creating the database,
// collections and indexes. The returned handle is passed explicitly into
// every component that touches storage.
func InitializeDatabase(cfg *config.Config, logger *zap.Logger) (DBConnection, error) {
	const initialInterval = 10 * time.Second
	const maxInterval = 2 * time.Minute

	var db arangodb.Database

	ctx := context.Background()

	False := false
	True := true

	var client arangodb.Client

	//
	// Database connection with backoff retry
	//

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = 0 // Set to 0 for indefinite retries

	err := backoff.RetryNotify(func() error {
		endpoint := connection.NewRoundRobinEndpoints([]string{cfg.Arango.URL})
		conn := connection.NewHttpConnection(dbConnectionConfig(endpoint, cfg.Arango.User, cfg.Arango.Pass))

		client = arangodb.NewClient(conn)

		versionInfo, err := client.Version(context.Background())
		if err != nil {
			return err
		}

		logger.Sugar().Infof("Database has version '%s' and license '%s'", versionInfo.Version, versionInfo.License)
		return nil

	}, bo, func(err error, _ time.Duration) {
		logger.Sugar().Warnf("Retrying connection to ArangoDB: %v", err)
	})

	if err != nil {
		return DBConnection{}, fmt.Errorf("connect to ArangoDB: %w", err)
	}

	//
	// Database creation
	//

	exists := false
	dblist, _ := client.Databases(ctx)

	for _, dbinfo := range dblist {
		if dbinfo.Name() == cfg.Arango.Database {
			exists = true
			break
		}
	}

	if exists {
		var options arangodb.GetDatabaseOptions
		if db, err = client.GetDatabase(ctx, cfg.Arango.Database, &options); err != nil {
			return DBConnection{}, fmt.Errorf("get database: %w", err)
		}
	} else {
		if db, err = client.CreateDatabase(ctx, cfg.Arango.Database, nil); err != nil {
			return DBConnection{}, fmt.Errorf("create database: %w", err)
		}
	}

	//
	// Collection creation for document storage
	//

	collections := make(map[string]arangodb.Collection)
	collectionNames := []string{"project", "cve", "affected", "dependency", "match"}

	for _, collectionName := range collectionNames {
		var col arangodb.Collection

		exists, _ = db.CollectionExists(ctx, collectionName)
		if exists {
			var options arangodb.GetCollectionOptions
			if col, err = db.GetCollection(ctx, collectionName, &options); err != nil {
				return DBConnection{}, fmt.Errorf("use collection %s: %w", collectionName, err)
			}
		} else {
			if col, err = db.CreateCollectionV2(ctx, collectionName, nil); err != nil {
				return DBConnection{}, fmt.Errorf("create collection %s: %w", collectionName, err)
			}
		}

		collections[collectionName] = col
	}

	//
	// Index creation
	//

	idxList := []indexConfig{
		// CVE collection indexes - last_modified backs the ingestion watermark
		{Collection: "cve", IdxName: "cve_last_modified", IdxFields: []string{"last_modified"}},
		{Collection: "cve", IdxName: "cve_severity", IdxFields: []string{"severity"}},
		{Collection: "cve", IdxName: "cve_published", IdxFields: []string{"published"}},

		// Affected-item indexes - product/vendor drive identity resolution
		{Collection: "affected", IdxName: "affected_cve_id", IdxFields: []string{"cve_id"}},
		{Collection: "affected", IdxName: "affected_product", IdxFields: []string{"product"}},
		{Collection: "affected", IdxName: "affected_vendor", IdxFields: []string{"vendor"}},

		// Project collection indexes
		{Collection: "project", IdxName: "project_name", IdxFields: []string{"name"}},

		// Dependency collection indexes - scoped lookups per project
		{Collection: "dependency", IdxName: "dependency_project", IdxFields: []string{"project_key"}},
		{Collection: "dependency", IdxName: "dependency_package", IdxFields: []string{"package_name"}},

		// Match collection - unique triple makes re-matching idempotent
		{Collection: "match", IdxName: "match_triple_unique", IdxFields: []string{"project_key", "dependency_key", "cve_id"}, Unique: true},
		{Collection: "match", IdxName: "match_project", IdxFields: []string{"project_key"}},
		{Collection: "match", IdxName: "match_cve", IdxFields: []string{"cve_id"}},
	}

	for _, idx := range idxList {
		found := false

		if indexes, err := collections[idx.Collection].Indexes(ctx); err == nil {
			for _, index := range indexes {
				if idx.IdxName == index.Name {
					found = true
					break
				}
			}
		}

		if !found {
			unique := &False
			if idx.Unique {
				unique = &True
			}
			sparse := &False
			if idx.Sparse {
				sparse = &True
			}
			indexOptions := arangodb.CreatePersistentIndexOptions{
				Unique: unique,
				Sparse: sparse,
				Name:   idx.IdxName,
			}

			_, _, err = collections[idx.Collection].EnsurePersistentIndex(ctx, idx.IdxFields, &indexOptions)
			if err != nil {
				return DBConnection{}, fmt.Errorf("create index %s: %w", idx.IdxName, err)
			}
			logger.Sugar().Infof("Created index: %s on %s", idx.IdxName, idx.Collection)
		}
	}

	logger.Sugar().Infof("Database initialization complete")

	return DBConnection{
		Database:    db,
		Collections: collections,
	}, nil
}
