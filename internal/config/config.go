// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	GrpcListenAddr string        `mapstructure:"grpc_listen_addr" validate:"required"`
	HttpListenAddr string        `mapstructure:"http_listen_addr" validate:"required"`
	EtcdEndpoints  []string      `mapstructure:"etcd_endpoints"`
	EtcdTimeout    time.Duration `mapstructure:"etcd_timeout" validate:"gt=0"`
	RosterTTL      time.Duration `mapstructure:"roster_ttl" validate:"gte=1s"`
	DayStartCron   string        `mapstructure:"day_start_cron" validate:"omitempty,cron"`
	DayEndCron     string        `mapstructure:"day_end_cron" validate:"omitempty,cron"`

	// Staff process settings.
	DispatcherAddr  string   `mapstructure:"dispatcher_addr" validate:"required"`
	StaffID         string   `mapstructure:"staff_id"`
	StaffSpeciality []string `mapstructure:"staff_speciality"`
}

// CronParser is the schedule syntax used for day boundaries (seconds first).
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	// Set default values
	v.SetDefault("grpc_listen_addr", ":50051")
	v.SetDefault("http_listen_addr", ":8080")
	v.SetDefault("etcd_endpoints", []string{})
	v.SetDefault("etcd_timeout", "5s")
	v.SetDefault("roster_ttl", "10s")
	v.SetDefault("day_start_cron", "")
	v.SetDefault("day_end_cron", "")
	v.SetDefault("dispatcher_addr", "localhost:50051")
	v.SetDefault("staff_id", "")
	v.SetDefault("staff_speciality", []string{})

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := newValidator().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := CronParser.Parse(fl.Field().String())
		return err == nil
	})
	return validate
}
