package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aweris/vstore"
)

var rootCmd = &cobra.Command{
	Use:   "vstore",
	Short: "Virtual overlay storage CLI",
	Long:  "CLI for inspecting and editing a vstore namespace assembled from configured mounts.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/vstore/config.yaml)")
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VSTORE")
	viper.AutomaticEnv()

	viper.ReadInConfig()

	initLogging()
}

func initLogging() {
	level := slog.LevelInfo
	switch viper.GetString("log_level") {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vstore")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "vstore")
	}
	return ".vstore"
}

// mountSpec is one entry of the "mounts" list in the config file.
type mountSpec struct {
	Path        string `mapstructure:"path"`
	Type        string `mapstructure:"type"`
	Root        string `mapstructure:"root"`
	Codec       string `mapstructure:"codec"`
	Compression int    `mapstructure:"compression"`
	ReadWrite   bool   `mapstructure:"read_write"`
	Overlay     bool   `mapstructure:"overlay"`
	Priority    int    `mapstructure:"priority"`
}

// openNamespace assembles a VirtualStorage from the configured mounts.
func openNamespace() (*vstore.VirtualStorage, error) {
	var specs []mountSpec
	if err := viper.UnmarshalKey("mounts", &specs); err != nil {
		return nil, fmt.Errorf("parse mounts config: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no mounts configured (set mounts in %s)", viper.ConfigFileUsed())
	}

	vs := vstore.NewVirtualStorage()
	for _, spec := range specs {
		p, err := vstore.ParsePath(spec.Path)
		if err != nil {
			return nil, fmt.Errorf("mount %q: %w", spec.Path, err)
		}

		backend, err := buildBackend(spec)
		if err != nil {
			return nil, fmt.Errorf("mount %q: %w", spec.Path, err)
		}

		var opts []vstore.MountOption
		if spec.ReadWrite {
			opts = append(opts, vstore.WithReadWrite())
		}
		if spec.Overlay {
			opts = append(opts, vstore.WithOverlay())
		}
		if spec.Priority != 0 {
			opts = append(opts, vstore.WithPriority(spec.Priority))
		}
		if err := vs.Mount(backend, p, opts...); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

func buildBackend(spec mountSpec) (vstore.Storage, error) {
	switch spec.Type {
	case "memory":
		return vstore.NewMemoryStorage(), nil
	case "file":
		if spec.Root == "" {
			return nil, fmt.Errorf("file mount requires a root directory")
		}
		opts := []vstore.FileOption{vstore.WithCompression(spec.Compression)}
		switch spec.Codec {
		case "", "json":
		case "raw":
			opts = append(opts, vstore.WithCodec(vstore.RawCodec{}))
		default:
			return nil, fmt.Errorf("unknown codec %q", spec.Codec)
		}
		return vstore.NewFileStorage(afero.NewOsFs(), spec.Root, opts...)
	default:
		return nil, fmt.Errorf("unknown mount type %q", spec.Type)
	}
}
