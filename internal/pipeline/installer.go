package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	bkErrors "github.com/bnookala/spk/internal/errors"
)

// Client is a connected handle to a CI/CD platform's build API.
type Client interface {
	CreateDefinition(ctx context.Context, project string, def Definition) (RemoteDefinition, error)
	ListDefinitions(ctx context.Context, project, name string) ([]RemoteDefinition, error)
	QueueBuild(ctx context.Context, project, definitionID string) (Build, error)
}

// Connector opens a Client for an organization.
type Connector interface {
	Connect(ctx context.Context, orgURL, accessToken string) (Client, error)
}

// RemoteDefinition is a pipeline definition as stored by the platform.
type RemoteDefinition struct {
	ID   string
	Name string
	URL  string
}

// Build is a build queued on the platform.
type Build struct {
	ID     string
	Number string
	URL    string
}

// Result identifies what Install left behind on the platform. DefinitionID is set as soon
// as the definition exists, even if queueing its first build failed.
type Result struct {
	DefinitionID  string
	DefinitionURL string
	BuildID       string
	BuildURL      string
}

// Installer creates pipeline definitions and queues their first build.
type Installer struct {
	Logger *slog.Logger
}

func NewInstaller(logger *slog.Logger) *Installer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{Logger: logger}
}

// Connect opens a client through connector. Failures are returned as connect errors so
// callers can abort before any definition is created.
func (i *Installer) Connect(ctx context.Context, connector Connector, orgURL, accessToken string) (Client, error) {
	client, err := connector.Connect(ctx, orgURL, accessToken)
	if err != nil {
		return nil, bkErrors.NewConnectError(err,
			fmt.Sprintf("connecting to %s", orgURL),
			"Check the organization URL passed with --org-url",
			"Check that the personal access token is valid")
	}
	i.Logger.Info("Fetched DevOps client", "org", orgURL)
	return client, nil
}

// InstallWithConnector connects and then installs def.
func (i *Installer) InstallWithConnector(ctx context.Context, connector Connector, orgURL, accessToken, project string, def Definition) (Result, error) {
	client, err := i.Connect(ctx, connector, orgURL, accessToken)
	if err != nil {
		return Result{}, err
	}
	return i.Install(ctx, client, project, def)
}

// Install submits def to the platform and queues a build of the resulting definition.
// Deduplication by name is left to the platform. A failure to queue the build does not
// remove the definition.
func (i *Installer) Install(ctx context.Context, client Client, project string, def Definition) (Result, error) {
	var result Result

	created, err := client.CreateDefinition(ctx, project, def)
	if err != nil {
		i.Logger.Error("Error occurred during pipeline creation", "pipeline", def.Name, "error", err)
		return result, i.definitionError(ctx, client, project, def, err)
	}

	result.DefinitionID = created.ID
	result.DefinitionURL = created.URL
	i.Logger.Info("Created pipeline", "pipeline", def.Name, "id", created.ID, "url", created.URL)

	build, err := client.QueueBuild(ctx, project, created.ID)
	if err != nil {
		i.Logger.Error("Error occurred when queueing build", "pipeline", def.Name, "id", created.ID, "error", err)
		return result, bkErrors.NewBuildQueueError(err,
			fmt.Sprintf("queueing build for %s (definition %s remains installed)", def.Name, created.ID))
	}

	result.BuildID = build.ID
	result.BuildURL = build.URL
	i.Logger.Info("Queued build", "pipeline", def.Name, "definition", created.ID, "build", build.ID)

	return result, nil
}

// definitionError wraps a create failure. When a definition with the same name already
// exists in the project it is named in the suggestions.
func (i *Installer) definitionError(ctx context.Context, client Client, project string, def Definition, cause error) error {
	err := bkErrors.NewDefinitionCreateError(cause, fmt.Sprintf("creating pipeline %s in project %s", def.Name, project))

	existing, listErr := client.ListDefinitions(ctx, project, def.Name)
	if listErr != nil {
		i.Logger.Debug("Could not list existing definitions", "project", project, "error", listErr)
		return err
	}

	for _, d := range existing {
		if d.Name == def.Name {
			return bkErrors.WithSuggestions(err,
				fmt.Sprintf("A pipeline named '%s' already exists with id %s", d.Name, d.ID),
				"Choose a different --pipeline-name or delete the existing pipeline")
		}
	}

	return err
}
