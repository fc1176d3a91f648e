package cnst

const (
	// ServerYaml is the default configuration file name
	ServerYaml = "cryptogrammer.yaml"
)

const (
	RedisClusterTypeSentinel = "sentinel"
	RedisClusterTypeCluster  = "cluster"
	RedisClusterTypeSingle   = "single"
)
