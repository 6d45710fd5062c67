package services

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"smartbin-backend/internal/config"
	"smartbin-backend/internal/errors"
)

// NewFirebaseApp initialises the Firebase app shared by the realtime
// database store and the push notifier. Credentials are taken from, in
// order: base64-encoded JSON, raw JSON, a file path.
func NewFirebaseApp(ctx context.Context, cfg config.FirebaseConfig) (*firebase.App, error) {
	opt, err := credentialsOption(cfg)
	if err != nil {
		return nil, err
	}

	var appCfg *firebase.Config
	if cfg.DatabaseURL != "" {
		appCfg = &firebase.Config{DatabaseURL: cfg.DatabaseURL}
	}

	var opts []option.ClientOption
	if opt != nil {
		opts = append(opts, opt)
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConnection, fmt.Errorf("error initializing Firebase app: %w", err))
	}
	return app, nil
}

func credentialsOption(cfg config.FirebaseConfig) (option.ClientOption, error) {
	switch {
	case cfg.CredentialsBase64 != "":
		credentialsJSON, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidConfig, fmt.Errorf("error decoding base64 credentials: %w", err))
		}
		return option.WithCredentialsJSON(credentialsJSON), nil
	case cfg.CredentialsJSON != "":
		return option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)), nil
	case cfg.CredentialsFile != "":
		return option.WithCredentialsFile(cfg.CredentialsFile), nil
	}
	// Application default credentials.
	return nil, nil
}
