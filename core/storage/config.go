package storage

// Config holds configuration for the storage provider fixtures are mirrored to.
type Config struct {
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"localhost:9000"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the name of the bucket to store fixtures in.
	Bucket string `mapstructure:"bucket" default:"fixtures"`
	// Prefix is the object key prefix fixture files are stored under.
	Prefix string `mapstructure:"prefix" default:"fixtures"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PublishAfterBuild mirrors fixtures to the bucket after every successful build.
	PublishAfterBuild bool `mapstructure:"publish_after_build" default:"false"`
}
