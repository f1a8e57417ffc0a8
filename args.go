package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pinhome/api"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")

	// site config
	pflag.String("site-base-url", "http://localhost:8080", "")
	pflag.String("site-maps-api-key", "", "")

	// s3 config
	pflag.String("s3-endpoint", "", "")
	pflag.String("s3-bucket", "", "")
	pflag.String("s3-access-key-id", "", "")
	pflag.String("s3-secret-access-key", "", "")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")

	// redis config
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")

	// auth config
	pflag.String("auth-link-secret", "", "")
	pflag.String("auth-smtp-host", "", "")
	pflag.Int("auth-smtp-port", 587, "")
	pflag.String("auth-smtp-user", "", "")
	pflag.String("auth-smtp-pass", "", "")
	pflag.String("auth-smtp-from", "", "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("PINHOME")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		ServerConfig: api.ServerConfig{
			Site: api.SiteConfig{
				BaseURL:    viper.GetString("site-base-url"),
				MapsAPIKey: viper.GetString("site-maps-api-key"),
			},
			S3: api.S3Config{
				Endpoint:        viper.GetString("s3-endpoint"),
				Bucket:          viper.GetString("s3-bucket"),
				AccessKeyID:     viper.GetString("s3-access-key-id"),
				SecretAccessKey: viper.GetString("s3-secret-access-key"),
			},
			DB: api.DBConfig{
				User:     viper.GetString("db-user"),
				Password: viper.GetString("db-password"),
				Host:     viper.GetString("db-host"),
				Port:     viper.GetInt("db-port"),
				Database: viper.GetString("db-database"),
				Schema:   viper.GetString("db-schema"),
			},
			Redis: api.RedisConfig{
				Addr:     viper.GetString("redis-addr"),
				Password: viper.GetString("redis-password"),
				DB:       viper.GetInt("redis-db"),
			},
			Auth: api.AuthConfig{
				LinkSecret: viper.GetString("auth-link-secret"),
				SMTPHost:   viper.GetString("auth-smtp-host"),
				SMTPPort:   viper.GetInt("auth-smtp-port"),
				SMTPUser:   viper.GetString("auth-smtp-user"),
				SMTPPass:   viper.GetString("auth-smtp-pass"),
				SMTPFrom:   viper.GetString("auth-smtp-from"),
			},
		},
	}
}

type Args struct {
	ServerURL    string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	return args.ServerURL != "" &&
		args.ServerConfig.Site.BaseURL != "" &&
		args.ServerConfig.S3.Bucket != "" &&
		args.ServerConfig.DB.Host != "" &&
		args.ServerConfig.Auth.LinkSecret != ""
}
