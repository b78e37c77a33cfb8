// Package runconfig holds the hyperparameters handed to the training program
// and their serialization into its command-line flags.
package runconfig

import "strconv"

// RunConfig is the fixed set of values passed to one execution of the
// training program. It is passed by value and never mutated after load.
type RunConfig struct {
	Seed                   int    `mapstructure:"seed" validate:"gte=0"`
	CUDA                   bool   `mapstructure:"cuda"`
	FP16                   bool   `mapstructure:"fp16"`
	WandbProject           string `mapstructure:"wandb_project" validate:"required"`
	DatasetHandle          string `mapstructure:"dataset_handle" validate:"required"`
	ValSplit               Float  `mapstructure:"val_split" validate:"gte=0,lt=1"`
	TestSplit              Float  `mapstructure:"test_split" validate:"gte=0,lt=1"`
	Epoch                  int    `mapstructure:"epoch" validate:"gte=1"`
	BatchSize              int    `mapstructure:"batch_size" validate:"gte=1"`
	SaveFreq               int    `mapstructure:"save_freq" validate:"gte=1"`
	LR                     Float  `mapstructure:"lr" validate:"gt=0"`
	WD                     Float  `mapstructure:"wd" validate:"gte=0"`
	ClipNorm               Float  `mapstructure:"clip_norm"`
	AlgoHandle             string `mapstructure:"algo_handle" validate:"required"`
	FCHidDim               int    `mapstructure:"fc_hid_dim" validate:"gte=1"`
	FinetuneProbeEpochs    int    `mapstructure:"finetune_probe_epochs" validate:"gte=0"`
	FinetuneProbeBatchSize int    `mapstructure:"finetune_probe_batch_size" validate:"gte=1"`
	Task                   string `mapstructure:"task" validate:"required,oneof=train eval finetune test"`
	DataPath               string `mapstructure:"data_path" validate:"required"`
	TruncateAt             int    `mapstructure:"truncate_at" validate:"gte=0"`
}

// Default returns the BigEarthNet classifier configuration.
func Default() RunConfig {
	return RunConfig{
		Seed:                   0,
		CUDA:                   true,
		FP16:                   true,
		WandbProject:           "pikachu",
		DatasetHandle:          "bigearthnet",
		ValSplit:               "0.25",
		TestSplit:              "0.25",
		Epoch:                  100,
		BatchSize:              128,
		SaveFreq:               1,
		LR:                     "1e-3",
		WD:                     "0.0",
		ClipNorm:               "0",
		AlgoHandle:             "bigearthnet_classifier",
		FCHidDim:               128,
		FinetuneProbeEpochs:    50,
		FinetuneProbeBatchSize: 256,
		Task:                   "train",
		DataPath:               "/hdd/datasets/BigEarthNet-v1.0",
		TruncateAt:             10,
	}
}

// Args serializes the configuration as flags in the order the training
// program documents them. Switches carry no value and are left out when off.
func (c RunConfig) Args() []string {
	a := make(argList, 0, 40)
	a.intArg("seed", c.Seed)
	a.switchArg("cuda", c.CUDA)
	a.switchArg("fp16", c.FP16)
	a.strArg("wandb_project", c.WandbProject)
	a.strArg("dataset_handle", c.DatasetHandle)
	a.strArg("val_split", c.ValSplit.String())
	a.strArg("test_split", c.TestSplit.String())
	a.intArg("epoch", c.Epoch)
	a.intArg("batch_size", c.BatchSize)
	a.intArg("save_freq", c.SaveFreq)
	a.strArg("lr", c.LR.String())
	a.strArg("wd", c.WD.String())
	a.strArg("clip_norm", c.ClipNorm.String())
	a.strArg("algo_handle", c.AlgoHandle)
	a.intArg("fc_hid_dim", c.FCHidDim)
	a.intArg("finetune_probe_epochs", c.FinetuneProbeEpochs)
	a.intArg("finetune_probe_batch_size", c.FinetuneProbeBatchSize)
	a.strArg("task", c.Task)
	a.strArg("data_path", c.DataPath)
	a.intArg("truncate_at", c.TruncateAt)
	return a
}

// ClipNormEnabled reports whether gradient clipping is on. Zero or below disables it.
func (c RunConfig) ClipNormEnabled() bool {
	return c.ClipNorm.Value() > 0
}

type argList []string

func (a *argList) strArg(name, value string) {
	*a = append(*a, "--"+name, value)
}

func (a *argList) intArg(name string, value int) {
	a.strArg(name, strconv.Itoa(value))
}

func (a *argList) switchArg(name string, on bool) {
	if on {
		*a = append(*a, "--"+name)
	}
}
