// Package identity resolves identity-provider profiles used as a fallback when a
// freshly registered account has no profile row yet.
package identity

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/config"
	"storefront/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

type firebaseDirectory struct {
	client *auth.Client
}

// DirectoryParams holds dependencies for the identity directory, injected by Fx
type DirectoryParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewIdentityDirectory returns the Firebase-backed directory, or nil when Firebase is not configured.
func NewIdentityDirectory(params DirectoryParams) (service.IdentityDirectory, error) {
	cfg := params.Config.Firebase
	if cfg == nil || (cfg.ProjectID == "" && cfg.CredentialsPath == "") {
		params.Logger.Info("Firebase not configured, identity directory disabled")

		return nil, nil
	}

	directory, err := NewFirebaseDirectory(params.Ctx, cfg.ProjectID, cfg.CredentialsPath)
	if err != nil {
		return nil, err
	}

	params.Logger.Info("Firebase identity directory initialized",
		slog.String("project_id", cfg.ProjectID),
	)

	return directory, nil
}

// NewFirebaseDirectory creates a new Firebase Auth backed identity directory
func NewFirebaseDirectory(ctx context.Context, projectID, credentialsPath string) (service.IdentityDirectory, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	var appConfig *firebase.Config
	if projectID != "" {
		appConfig = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}

	return &firebaseDirectory{client: client}, nil
}

// LookupProfile reads the display name and photo of a Firebase user
func (d *firebaseDirectory) LookupProfile(ctx context.Context, uid string) (*service.IdentityProfile, error) {
	record, err := d.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get user %s: %w", uid, err)
	}

	return &service.IdentityProfile{
		DisplayName: record.DisplayName,
		PhotoURL:    record.PhotoURL,
	}, nil
}
