package trials

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/smearedink/dspsr-utils/pkg/conf"
)

const (
	metadataKindEmpty   = ""
	metadataKindFlags   = "flags"
	metadataKindEnviron = "environ"
	metadataKindSummary = "summary"
)

// MetadataConfig encodes the settings for connecting to the database.
type MetadataConfig struct {
	CassandraAddress           string
	CassandraUsername          string
	CassandraPassword          string
	CassandraConnectionTimeout time.Duration
}

// DefaultMetadataConfig returns a setup which uses a Cassandra cluster
// running on localhost without any authentication.
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{
		CassandraAddress:           "127.0.0.1",
		CassandraUsername:          "",
		CassandraPassword:          "",
		CassandraConnectionTimeout: 0,
	}
}

// MetadataConfigFromFlags applies the Cassandra settings from the command
// line flags and environment variables.
func MetadataConfigFromFlags() MetadataConfig {
	config := DefaultMetadataConfig()
	config.CassandraAddress = conf.CassandraAddress.Value()
	return config
}

// MetadataMap encodes the key value pairs to be stored in Cassandra.
type MetadataMap map[string]string

// Metadata keeps the Cassandra session alive, holds the active configuration
// and the sweep id to tag the metadata with.
type Metadata struct {
	sweepID string
	config  MetadataConfig
	session *gocql.Session
}

// NewMetadata returns the Metadata helper from a sweep id and configuration.
// Connect() still needs to be called to get an active Cassandra session.
func NewMetadata(sweepID string, config MetadataConfig) *Metadata {
	return &Metadata{
		sweepID: sweepID,
		config:  config,
	}
}

// Connect creates a session to the Cassandra cluster. This function should
// only be called once.
func (m *Metadata) Connect() error {
	cluster := gocql.NewCluster(m.config.CassandraAddress)
	cluster.Consistency = gocql.LocalOne
	cluster.SerialConsistency = gocql.LocalSerial
	cluster.ProtoVersion = 4
	cluster.Timeout = m.config.CassandraConnectionTimeout

	if m.config.CassandraUsername != "" && m.config.CassandraPassword != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: m.config.CassandraUsername,
			Password: m.config.CassandraPassword,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return err
	}

	m.session = session

	if err := session.Query("CREATE KEYSPACE IF NOT EXISTS dspsrbench WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1};").Exec(); err != nil {
		return err
	}

	// NOTE: Schema consistency check is ignored by CREATE queries, so a
	// simple SELECT on 'system_schema.keyspaces' is performed to ensure the
	// schema settled at the configured consistency level.
	if err = session.Query("SELECT * FROM system_schema.keyspaces;").Exec(); err != nil {
		return err
	}

	if err = session.Query("CREATE TABLE IF NOT EXISTS dspsrbench.metadata (sweep_id text, kind text, time timestamp, timeuuid TIMEUUID, metadata map<text,text>, PRIMARY KEY ((sweep_id), timeuuid),) WITH CLUSTERING ORDER BY (timeuuid DESC);").Exec(); err != nil {
		return err
	}

	if err = session.Query("SELECT * FROM system_schema.keyspaces;").Exec(); err != nil {
		return err
	}

	return nil
}

func (m *Metadata) storeMap(metadata MetadataMap, kind string) error {
	return m.session.Query(`INSERT INTO dspsrbench.metadata (sweep_id, kind, time, timeuuid, metadata) VALUES (?, ?, ?, ?, ?)`, m.sweepID, kind, time.Now(), gocql.TimeUUID(), metadata).Exec()
}

// Record stores a key and value and associates with the sweep id.
func (m *Metadata) Record(key string, value string) error {
	metadata := MetadataMap{}
	metadata[key] = value
	return m.storeMap(metadata, metadataKindEmpty)
}

// RecordMap stores a key and value map and associates with the sweep id.
func (m *Metadata) RecordMap(metadata MetadataMap) error {
	return m.storeMap(metadata, metadataKindEmpty)
}

// RecordFlags saves the whole flags based configuration in the metadata
// information.
func (m *Metadata) RecordFlags() error {
	return m.storeMap(conf.GetFlags(), metadataKindFlags)
}

// RecordEnv adds all OS environment variables that start with prefix
// 'prefix' in the metadata information.
func (m *Metadata) RecordEnv(prefix string) error {
	metadata := MetadataMap{}
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, prefix) {
			fields := strings.SplitN(env, "=", 2)
			metadata[fields[0]] = fields[1]
		}
	}
	return m.storeMap(metadata, metadataKindEnviron)
}

// RecordSummary stores the headline facts of an executed sweep.
func (m *Metadata) RecordSummary(t *Trials) error {
	succeeded := 0
	for _, ok := range t.Success {
		if ok {
			succeeded++
		}
	}

	metadata := MetadataMap{
		"varied_arg": t.VariedArg,
		"values":     fmt.Sprintf("%v", t.Values),
		"succeeded":  fmt.Sprintf("%d", succeeded),
		"failed":     fmt.Sprintf("%d", len(t.Success)-succeeded),
		"comment":    t.Comment,
	}
	return m.storeMap(metadata, metadataKindSummary)
}

// Get fetches all metadata maps recorded for the sweep.
func (m *Metadata) Get() ([]MetadataMap, error) {
	var metadata MetadataMap
	out := []MetadataMap{}

	iter := m.session.Query(`SELECT metadata FROM dspsrbench.metadata WHERE sweep_id = ?`, m.sweepID).Iter()
	for iter.Scan(&metadata) {
		out = append(out, metadata)
		metadata = MetadataMap{}
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// Clear deletes all metadata entries associated with the sweep.
func (m *Metadata) Clear() error {
	return m.session.Query(`DELETE FROM dspsrbench.metadata WHERE sweep_id = ?`, m.sweepID).Exec()
}
