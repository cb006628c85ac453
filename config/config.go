// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

const minSecretLen = 32

var (
	purgeDeleted   = pflag.Bool("purge-deleted", false, "Hard deletes media rows that were soft deleted more than the retention period ago, then exits")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDBDrivers = []string{"sqlite", "postgres"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// PurgeRequested reports whether the process was started with --purge-deleted.
func PurgeRequested() bool {
	return *purgeDeleted
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.frontend_origin", "host_frontend_origin")

	v.BindEnv("security.jwt_secret", "security_jwt_secret")
	v.BindEnv("security.bcrypt_cost", "security_bcrypt_cost")
	v.BindEnv("security.rate_limit", "security_rate_limit")

	v.BindEnv("database.driver", "database_driver")
	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.local_path", "storage_local_path")

	v.BindEnv("aws.access_key", "aws_access_key")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.bucket", "aws_bucket")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("gemini.api_key", "gemini_api_key")
	v.BindEnv("gemini.model", "gemini_model")

	v.BindEnv("tagger.workers", "tagger_workers")
	v.BindEnv("tagger.max_jobs", "tagger_max_jobs")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.frontend_origin", "http://localhost:5173")

	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")

	v.SetDefault("upload.max_size", 100)

	v.SetDefault("gemini.model", "gemini-2.0-flash")

	v.SetDefault("tagger.workers", 2)
	v.SetDefault("tagger.max_jobs", 32)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("security.jwt_secret") == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if len(v.GetString("security.jwt_secret")) < minSecretLen {
		return fmt.Errorf("security.jwt_secret must be at least %d bytes long", minSecretLen)
	}

	cost := v.GetInt("security.bcrypt_cost")
	if cost < 4 || cost > 31 {
		return errors.New("security.bcrypt_cost must be between 4 and 31")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if !slices.Contains(validDBDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.dsn") == "" {
		return errors.New("database.dsn can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("aws.access_key") == "" {
				return errors.New("access key can't be empty")
			}
			if v.GetString("aws.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("aws.region") == "" {
				return errors.New("region can't be empty")
			}
			if v.GetString("aws.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
		}
	case "local":
		{
			if v.GetString("storage.local_path") == "" {
				return errors.New("storage.local_path can't be empty")
			}
		}
	default:
		return errors.New("invalid storage type provided")
	}

	if v.GetString("gemini.api_key") == "" {
		zap.L().Warn("No gemini.api_key set, image uploads will never get AI tags")
	}

	if v.GetInt("tagger.workers") <= 0 {
		return errors.New("tagger.workers must be bigger than 0")
	}

	if v.GetInt("tagger.max_jobs") <= 0 {
		return errors.New("tagger.max_jobs must be bigger than 0")
	}

	// Configured in megabytes, used in bytes
	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
