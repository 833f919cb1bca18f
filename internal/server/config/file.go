package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/dmitrijs2005/notekeeper/internal/flagx"
)

// Duration accepts "24h"-style strings in every config file format.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// FileConfig is the on-disk shape of the configuration. Only keys present
// in the file override the current values.
type FileConfig struct {
	HTTPAddr                    string   `json:"http_addr" toml:"http_addr" yaml:"http_addr"`
	HealthAddrGRPC              string   `json:"health_addr_grpc" toml:"health_addr_grpc" yaml:"health_addr_grpc"`
	DatabaseDSN                 string   `json:"database_dsn" toml:"database_dsn" yaml:"database_dsn"`
	DBConnectAttempts           uint     `json:"db_connect_attempts" toml:"db_connect_attempts" yaml:"db_connect_attempts"`
	SecretKey                   string   `json:"secret_key" toml:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration Duration `json:"access_token_validity_duration" toml:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	LogLevel                    string   `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogPretty                   *bool    `json:"log_pretty" toml:"log_pretty" yaml:"log_pretty"`
	ImageStore                  string   `json:"image_store" toml:"image_store" yaml:"image_store"`
	UploadDir                   string   `json:"upload_dir" toml:"upload_dir" yaml:"upload_dir"`
	MaxUploadSize               int64    `json:"max_upload_size" toml:"max_upload_size" yaml:"max_upload_size"`
	S3RootUser                  string   `json:"s3_root_user" toml:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              string   `json:"s3_root_password" toml:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    string   `json:"s3_bucket" toml:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    string   `json:"s3_region" toml:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              string   `json:"s3_base_endpoint" toml:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c/-config, if any, into config.
// The format is chosen by extension: .json, .toml, .yaml or .yml.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fc := &FileConfig{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, fc)
	case ".toml":
		err = toml.Unmarshal(data, fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.HealthAddrGRPC, fc.HealthAddrGRPC)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	if fc.DBConnectAttempts != 0 {
		c.DBConnectAttempts = fc.DBConnectAttempts
	}
	setString(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration.Duration != 0 {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	setString(&c.LogLevel, fc.LogLevel)
	if fc.LogPretty != nil {
		c.LogPretty = *fc.LogPretty
	}
	setString(&c.ImageStore, fc.ImageStore)
	setString(&c.UploadDir, fc.UploadDir)
	if fc.MaxUploadSize != 0 {
		c.MaxUploadSize = fc.MaxUploadSize
	}
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
