package runconfig

import (
	"math"
	"strings"
	"testing"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultArgs = []string{
	"--seed", "0",
	"--cuda",
	"--fp16",
	"--wandb_project", "pikachu",
	"--dataset_handle", "bigearthnet",
	"--val_split", "0.25",
	"--test_split", "0.25",
	"--epoch", "100",
	"--batch_size", "128",
	"--save_freq", "1",
	"--lr", "1e-3",
	"--wd", "0.0",
	"--clip_norm", "0",
	"--algo_handle", "bigearthnet_classifier",
	"--fc_hid_dim", "128",
	"--finetune_probe_epochs", "50",
	"--finetune_probe_batch_size", "256",
	"--task", "train",
	"--data_path", "/hdd/datasets/BigEarthNet-v1.0",
	"--truncate_at", "10",
}

func TestDefaultArgs(t *testing.T) {
	assert.Equal(t, defaultArgs, Default().Args())
}

func TestArgsDeterministic(t *testing.T) {
	cfg := Default()
	first := cfg.Args()
	second := cfg.Args()
	assert.Equal(t, strings.Join(first, "\x00"), strings.Join(second, "\x00"))
}

func TestSwitchesHaveNoValue(t *testing.T) {
	args := Default().Args()
	for _, name := range []string{"--cuda", "--fp16"} {
		idx := indexOf(args, name)
		require.GreaterOrEqual(t, idx, 0, "%s missing", name)
		require.Less(t, idx+1, len(args))
		assert.True(t, strings.HasPrefix(args[idx+1], "--"), "%s followed by value %q", name, args[idx+1])
	}
}

func TestSingleFieldChangesSingleFlag(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		value  string
		mutate func(*RunConfig)
	}{
		{"seed", "--seed", "7", func(c *RunConfig) { c.Seed = 7 }},
		{"wandb project", "--wandb_project", "raichu", func(c *RunConfig) { c.WandbProject = "raichu" }},
		{"dataset handle", "--dataset_handle", "eurosat", func(c *RunConfig) { c.DatasetHandle = "eurosat" }},
		{"val split", "--val_split", "0.1", func(c *RunConfig) { c.ValSplit = "0.1" }},
		{"test split", "--test_split", "0.2", func(c *RunConfig) { c.TestSplit = "0.2" }},
		{"epoch", "--epoch", "3", func(c *RunConfig) { c.Epoch = 3 }},
		{"batch size", "--batch_size", "64", func(c *RunConfig) { c.BatchSize = 64 }},
		{"save freq", "--save_freq", "5", func(c *RunConfig) { c.SaveFreq = 5 }},
		{"lr", "--lr", "3e-4", func(c *RunConfig) { c.LR = "3e-4" }},
		{"wd", "--wd", "1e-5", func(c *RunConfig) { c.WD = "1e-5" }},
		{"clip norm", "--clip_norm", "1.0", func(c *RunConfig) { c.ClipNorm = "1.0" }},
		{"algo handle", "--algo_handle", "simclr", func(c *RunConfig) { c.AlgoHandle = "simclr" }},
		{"fc hid dim", "--fc_hid_dim", "256", func(c *RunConfig) { c.FCHidDim = 256 }},
		{"probe epochs", "--finetune_probe_epochs", "10", func(c *RunConfig) { c.FinetuneProbeEpochs = 10 }},
		{"probe batch size", "--finetune_probe_batch_size", "32", func(c *RunConfig) { c.FinetuneProbeBatchSize = 32 }},
		{"task", "--task", "eval", func(c *RunConfig) { c.Task = "eval" }},
		{"data path", "--data_path", "/data/ben", func(c *RunConfig) { c.DataPath = "/data/ben" }},
		{"truncate at", "--truncate_at", "0", func(c *RunConfig) { c.TruncateAt = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			got := cfg.Args()

			require.Len(t, got, len(defaultArgs))
			var changed []int
			for i := range got {
				if got[i] != defaultArgs[i] {
					changed = append(changed, i)
				}
			}
			require.Len(t, changed, 1)
			assert.Equal(t, tt.flag, got[changed[0]-1])
			assert.Equal(t, tt.value, got[changed[0]])
		})
	}
}

func TestSwitchOffDropsOnlyItself(t *testing.T) {
	for _, name := range []string{"cuda", "fp16"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			if name == "cuda" {
				cfg.CUDA = false
			} else {
				cfg.FP16 = false
			}

			want := make([]string, 0, len(defaultArgs)-1)
			for _, a := range defaultArgs {
				if a != "--"+name {
					want = append(want, a)
				}
			}
			assert.Equal(t, want, cfg.Args())
		})
	}
}

func TestDefaultDoesNotAlias(t *testing.T) {
	a := Default()
	a.Epoch = 1
	assert.Equal(t, 100, Default().Epoch)
}

func TestClipNormEnabled(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.ClipNormEnabled())

	cfg.ClipNorm = "-1"
	assert.False(t, cfg.ClipNormEnabled())

	cfg.ClipNorm = "0.5"
	assert.True(t, cfg.ClipNormEnabled())
}

func TestFloat(t *testing.T) {
	t.Run("keeps literal text", func(t *testing.T) {
		f, err := ParseFloat(" 1e-3 ")
		require.NoError(t, err)
		assert.Equal(t, "1e-3", f.String())
		assert.InDelta(t, 0.001, f.Value(), 1e-12)
	})

	t.Run("rejects non numbers", func(t *testing.T) {
		_, err := ParseFloat("fast")
		assert.Error(t, err)
	})

	t.Run("zero value", func(t *testing.T) {
		var f Float
		assert.Equal(t, "0", f.String())
		assert.Equal(t, 0.0, f.Value())
	})

	t.Run("garbage is NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(Float("x").Value()))
	})

	t.Run("FloatOf uses shortest form", func(t *testing.T) {
		assert.Equal(t, Float("0.001"), FloatOf(0.001))
		assert.Equal(t, Float("0"), FloatOf(0))
	})
}

func TestDecodeHook(t *testing.T) {
	var cfg RunConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       DecodeHook(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	require.NoError(t, err)

	err = dec.Decode(map[string]any{
		"lr":        "1e-3",
		"wd":        0.0001,
		"clip_norm": 2,
		"val_split": float32(0.5),
		"epoch":     "12",
		"cuda":      "true",
	})
	require.NoError(t, err)

	assert.Equal(t, Float("1e-3"), cfg.LR)
	assert.Equal(t, Float("0.0001"), cfg.WD)
	assert.Equal(t, Float("2"), cfg.ClipNorm)
	assert.Equal(t, Float("0.5"), cfg.ValSplit)
	assert.Equal(t, 12, cfg.Epoch)
	assert.True(t, cfg.CUDA)
}

func TestDecodeHookRejectsBadFloat(t *testing.T) {
	var cfg RunConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &cfg,
	})
	require.NoError(t, err)

	assert.Error(t, dec.Decode(map[string]any{"lr": "quick"}))
}

func indexOf(s []string, v string) int {
	for i := range s {
		if s[i] == v {
			return i
		}
	}
	return -1
}
