package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"servicredit-registro/internal/common/config"
	commonhttp "servicredit-registro/internal/common/http"
	"servicredit-registro/internal/common/logger"
	"servicredit-registro/internal/registro"
	"servicredit-registro/pkg/registry"

	"go.uber.org/zap"
)

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// formOptions resolves the configured variant from the registry file, or from
// the built-in registry when no file is configured.
func formOptions(cfg *config.Config) (registro.Options, error) {
	reg := registry.Default()
	if cfg.Form.RegistryPath != "" {
		loaded, err := registry.LoadRegistry(cfg.Form.RegistryPath)
		if err != nil {
			return registro.Options{}, err
		}
		reg = loaded
	}

	variant, ok := reg.Variant(cfg.Form.Variant)
	if !ok {
		return registro.Options{}, fmt.Errorf("form variant %q not found in registry", cfg.Form.Variant)
	}

	opts := registro.DefaultOptions(variant)
	opts.NotificationTTL = config.GetDuration(cfg.Form.NotificationTimeout)
	if err := opts.Validate(); err != nil {
		return registro.Options{}, err
	}
	return opts, nil
}

func newRegistrar(cfg *config.Config) *registro.RegistrarClient {
	return registro.NewRegistrarClient(
		cfg.API.RegistrarURL(registro.RegistrarPath),
		commonhttp.NewClient(config.GetDuration(cfg.API.Timeout)),
	)
}

// formDependencies wires everything a registro.Session needs.
func formDependencies(cfg *config.Config, log logger.Logger) (registro.Dependencies, error) {
	opts, err := formOptions(cfg)
	if err != nil {
		return registro.Dependencies{}, err
	}
	return registro.Dependencies{
		Options:   opts,
		Registrar: newRegistrar(cfg),
		Logger:    log,
		Clock:     time.Now,
	}, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, logger.Logger) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return zapLog, logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"variant": cfg.Form.Variant,
	})
}

// readFormData decodes a FormData JSON document from path, or stdin for "-".
func readFormData(path string, stdin io.Reader) (registro.FormData, error) {
	var r io.Reader = stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return registro.FormData{}, err
		}
		defer f.Close()
		r = f
	}

	var data registro.FormData
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return registro.FormData{}, fmt.Errorf("decode form data: %w", err)
	}
	return data, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
