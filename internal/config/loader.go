package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/Strasser-Pablo/trainlaunch/internal/runconfig"
)

// EnvPrefix prefixes every environment override, e.g. TRAINLAUNCH_RUN_EPOCH.
const EnvPrefix = "TRAINLAUNCH"

// New returns a viper instance with defaults and environment overrides set up.
// Callers may bind command-line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and decodes the effective configuration.
// An explicit file must exist; the search path is allowed to come up empty.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("trainlaunch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.config/trainlaunch")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		runconfig.DecodeHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Launcher defaults
	v.SetDefault("interpreter", "python")
	v.SetDefault("interpreter_args", []string{})
	v.SetDefault("program", "main.py")
	v.SetDefault("workdir", "")
	v.SetDefault("dataset_dir", "/hdd/datasets")
	v.SetDefault("debug_level", 0)
	v.SetDefault("strict", false)

	// Logging defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	// Checkpoint defaults
	v.SetDefault("checkpoints.dir", "")
	v.SetDefault("checkpoints.watch", false)
	v.SetDefault("checkpoints.upload", false)

	// Storage defaults
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "checkpoints")
	v.SetDefault("storage.prefix", "runs")

	// Metrics defaults
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "trainlaunch")

	// Sentry defaults
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")

	// Run defaults; floats stay strings so their literal text survives.
	d := runconfig.Default()
	v.SetDefault("run.seed", d.Seed)
	v.SetDefault("run.cuda", d.CUDA)
	v.SetDefault("run.fp16", d.FP16)
	v.SetDefault("run.wandb_project", d.WandbProject)
	v.SetDefault("run.dataset_handle", d.DatasetHandle)
	v.SetDefault("run.val_split", string(d.ValSplit))
	v.SetDefault("run.test_split", string(d.TestSplit))
	v.SetDefault("run.epoch", d.Epoch)
	v.SetDefault("run.batch_size", d.BatchSize)
	v.SetDefault("run.save_freq", d.SaveFreq)
	v.SetDefault("run.lr", string(d.LR))
	v.SetDefault("run.wd", string(d.WD))
	v.SetDefault("run.clip_norm", string(d.ClipNorm))
	v.SetDefault("run.algo_handle", d.AlgoHandle)
	v.SetDefault("run.fc_hid_dim", d.FCHidDim)
	v.SetDefault("run.finetune_probe_epochs", d.FinetuneProbeEpochs)
	v.SetDefault("run.finetune_probe_batch_size", d.FinetuneProbeBatchSize)
	v.SetDefault("run.task", d.Task)
	v.SetDefault("run.data_path", d.DataPath)
	v.SetDefault("run.truncate_at", d.TruncateAt)
}
