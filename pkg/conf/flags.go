package conf

// CassandraAddress represents cassandra address flag.
// Sweep metadata is recorded there unless set to "none".
var CassandraAddress = NewStringFlag("cassandra_addr", "Address of Cassandra DB endpoint for sweep metadata. Set to 'none' to disable metadata recording.", "none")
