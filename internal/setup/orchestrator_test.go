package setup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	bkErrors "github.com/bnookala/spk/internal/errors"
	"github.com/bnookala/spk/internal/gitops"
	"github.com/bnookala/spk/internal/pipeline"
	"github.com/bnookala/spk/internal/serviceprincipal"
	"github.com/spf13/afero"
)

type fakeProjects struct {
	err   error
	names []string
}

func (f *fakeProjects) EnsureProject(_ context.Context, name string) (bool, error) {
	f.names = append(f.names, name)
	return f.err == nil, f.err
}

type fakeRepositories struct {
	failOn   string
	existing map[string]bool
	names    []string
}

func (f *fakeRepositories) EnsureRepository(_ context.Context, project, name string) (gitops.Repository, error) {
	f.names = append(f.names, name)
	if name == f.failOn {
		return gitops.Repository{}, errors.New("repository quota exceeded")
	}
	return gitops.Repository{
		Name:      name,
		RemoteURL: "https://dev.azure.com/org/" + project + "/_git/" + name,
		Created:   !f.existing[name],
	}, nil
}

type fakeServicePrincipals struct {
	err error
}

func (f *fakeServicePrincipals) Create(context.Context, string, string) (serviceprincipal.Credentials, error) {
	if f.err != nil {
		return serviceprincipal.Credentials{}, f.err
	}
	return serviceprincipal.Credentials{AppID: testSPID, Password: testSPPassword, TenantID: testTenant}, nil
}

type fakeClient struct {
	queueErr error
	created  []pipeline.Definition
}

func (f *fakeClient) CreateDefinition(_ context.Context, _ string, def pipeline.Definition) (pipeline.RemoteDefinition, error) {
	f.created = append(f.created, def)
	return pipeline.RemoteDefinition{ID: "12", Name: def.Name}, nil
}

func (f *fakeClient) ListDefinitions(context.Context, string, string) ([]pipeline.RemoteDefinition, error) {
	return nil, nil
}

func (f *fakeClient) QueueBuild(context.Context, string, string) (pipeline.Build, error) {
	if f.queueErr != nil {
		return pipeline.Build{}, f.queueErr
	}
	return pipeline.Build{ID: "99"}, nil
}

type fakeConnector struct {
	client *fakeClient
	orgURL string
}

func (f *fakeConnector) Connect(_ context.Context, orgURL, _ string) (pipeline.Client, error) {
	f.orgURL = orgURL
	return f.client, nil
}

type harness struct {
	fs        afero.Fs
	projects  *fakeProjects
	repos     *fakeRepositories
	sps       *fakeServicePrincipals
	client    *fakeClient
	connector *fakeConnector
	published []string
	cloned    []string
	logs      *bytes.Buffer
}

func newHarness() *harness {
	client := &fakeClient{}
	return &harness{
		fs:        afero.NewMemMapFs(),
		projects:  &fakeProjects{},
		repos:     &fakeRepositories{},
		sps:       &fakeServicePrincipals{},
		client:    client,
		connector: &fakeConnector{client: client},
		logs:      &bytes.Buffer{},
	}
}

func (h *harness) orchestrator() *Orchestrator {
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	steps := DefaultSteps(Deps{
		FS:                h.fs,
		Projects:          h.projects,
		Repositories:      h.repos,
		ServicePrincipals: h.sps,
		Connector:         h.connector,
		Installer:         pipeline.NewInstaller(logger),
		Publish: func(_ context.Context, dir, _, branch string, _ gitops.PublishOptions) error {
			h.published = append(h.published, dir+"@"+branch)
			return nil
		},
		Clone: func(_ context.Context, dir, _, branch, _ string) (bool, error) {
			h.cloned = append(h.cloned, dir+"@"+branch)
			return true, nil
		},
	})
	return &Orchestrator{Steps: steps, Logger: logger, FS: h.fs, StatusLogPath: "/ws/setup.log"}
}

func TestOrchestratorRun(t *testing.T) {
	t.Parallel()

	t.Run("full run", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		rc := NewContext("org", "project", "secret-token", "/ws")

		if err := h.orchestrator().Run(context.Background(), rc); err != nil {
			t.Fatal(err)
		}

		if !rc.ProjectCreated() || !rc.HLDScaffolded() || !rc.ManifestScaffolded() || !rc.HLDToManifestPipelineCreated() {
			t.Errorf("not every step completed: %+v", rc)
		}
		if h.connector.orgURL != "https://dev.azure.com/org" {
			t.Errorf("connected to %q", h.connector.orgURL)
		}
		if len(h.client.created) != 1 || h.client.created[0].Name != pipeline.HLDToManifestPipelineName {
			t.Errorf("created definitions = %+v", h.client.created)
		}
		if h.client.created[0].RepositoryURL != rc.HLDRepoURL {
			t.Errorf("pipeline points at %q, want %q", h.client.created[0].RepositoryURL, rc.HLDRepoURL)
		}
		if len(h.published) != 2 {
			t.Errorf("published = %v", h.published)
		}
		if ok, _ := afero.Exists(h.fs, "/ws/quick-start-hld/azure-pipelines.yaml"); !ok {
			t.Error("HLD pipeline was not scaffolded")
		}

		lines := readLines(t, h.fs, "/ws/setup.log")
		if lines[len(lines)-1] != "Status: Completed" {
			t.Errorf("status log ends with %q", lines[len(lines)-1])
		}
		if strings.Contains(h.logs.String(), "secret-token") {
			t.Error("access token was logged")
		}
	})

	t.Run("app repository and service principal", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		rc := NewContext("org", "project", "token", "/ws")
		rc.ToCreateAppRepo = true
		rc.ToCreateServicePrincipal = true
		rc.SubscriptionID = testSubscription

		if err := h.orchestrator().Run(context.Background(), rc); err != nil {
			t.Fatal(err)
		}

		if !rc.ServicePrincipalCreated() || rc.ServicePrincipalID != testSPID {
			t.Errorf("service principal not recorded: id=%q", rc.ServicePrincipalID)
		}
		if ok, _ := afero.Exists(h.fs, "/ws/quick-start-app/quick-start/chart/Chart.yaml"); !ok {
			t.Error("helm chart was not scaffolded")
		}
		if !strings.Contains(Render(rc), "Service Principal Created: yes") {
			t.Errorf("status log:\n%s", Render(rc))
		}
	})

	t.Run("failing step aborts the run", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		h.repos.failOn = DefaultManifestRepoName
		rc := NewContext("org", "project", "token", "/ws")

		err := h.orchestrator().Run(context.Background(), rc)
		if err == nil {
			t.Fatal("expected an error")
		}

		if !rc.ProjectCreated() || !rc.HLDScaffolded() {
			t.Error("steps before the failure were not recorded")
		}
		if rc.ManifestScaffolded() || rc.HLDToManifestPipelineCreated() {
			t.Error("steps after the failure ran")
		}
		if len(h.client.created) != 0 {
			t.Error("pipeline created after a failed step")
		}

		lines := readLines(t, h.fs, "/ws/setup.log")
		if lines[len(lines)-1] != "Status: Incomplete" {
			t.Errorf("status log ends with %q", lines[len(lines)-1])
		}
		if lines[len(lines)-2] != "Error: repository quota exceeded ("+DefaultManifestRepoName+")" {
			t.Errorf("error line = %q", lines[len(lines)-2])
		}
	})

	t.Run("project failure names the project", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		h.projects.err = bkErrors.WrapAPIError(errors.New("TF200019: access denied"), "creating project", 403)
		rc := NewContext("org", "fabrikam", "token", "/ws")

		err := h.orchestrator().Run(context.Background(), rc)
		if !bkErrors.IsAuthenticationError(err) {
			t.Fatalf("expected authentication error, got %v", err)
		}
		if !strings.Contains(rc.ErrorMessage(), "(creating project failed with status 403: fabrikam)") {
			t.Errorf("ErrorMessage() = %q", rc.ErrorMessage())
		}
		if len(h.repos.names) != 0 {
			t.Errorf("repositories created after the project failed: %v", h.repos.names)
		}
	})

	t.Run("service principal failure stops before the pipeline", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		h.sps.err = errors.New("az: insufficient privileges")
		rc := NewContext("org", "project", "token", "/ws")
		rc.ToCreateAppRepo = true
		rc.ToCreateServicePrincipal = true
		rc.SubscriptionID = testSubscription

		if err := h.orchestrator().Run(context.Background(), rc); err == nil {
			t.Fatal("expected an error")
		}
		if len(h.client.created) != 0 {
			t.Error("pipeline created after the service principal failed")
		}

		lines := readLines(t, h.fs, "/ws/setup.log")
		want := []string{
			"Project Created: yes",
			"High Level Definition Repo Scaffolded: yes",
			"Manifest Repo Scaffolded: yes",
			"HLD to Manifest Pipeline Created: no",
			"Service Principal Created: no",
			"Error: az: insufficient privileges",
			"Status: Incomplete",
		}
		if len(lines) != 10+len(want) {
			t.Fatalf("status log has %d lines:\n%s", len(lines), strings.Join(lines, "\n"))
		}
		for i, line := range want {
			if lines[10+i] != line {
				t.Errorf("line %d = %q, want %q", 10+i, lines[10+i], line)
			}
		}
	})

	t.Run("existing repositories are cloned before scaffolding", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		h.repos.existing = map[string]bool{DefaultHLDRepoName: true, DefaultManifestRepoName: true}
		rc := NewContext("org", "project", "token", "/ws")

		if err := h.orchestrator().Run(context.Background(), rc); err != nil {
			t.Fatal(err)
		}

		want := []string{
			"/ws/" + DefaultHLDRepoName + "@" + pipeline.DefaultBranch,
			"/ws/" + DefaultManifestRepoName + "@" + pipeline.DefaultBranch,
		}
		if strings.Join(h.cloned, "|") != strings.Join(want, "|") {
			t.Errorf("cloned = %v, want %v", h.cloned, want)
		}
		if len(h.published) != 2 {
			t.Errorf("published = %v", h.published)
		}
	})

	t.Run("new repositories are not cloned", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		if err := h.orchestrator().Run(context.Background(), NewContext("org", "project", "token", "/ws")); err != nil {
			t.Fatal(err)
		}
		if len(h.cloned) != 0 {
			t.Errorf("cloned = %v", h.cloned)
		}
	})

	t.Run("queue failure keeps the pipeline", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		h.client.queueErr = errors.New("agent pool offline")
		rc := NewContext("org", "project", "token", "/ws")

		if err := h.orchestrator().Run(context.Background(), rc); err == nil {
			t.Fatal("expected an error")
		}
		if len(h.client.created) != 1 {
			t.Errorf("created definitions = %d", len(h.client.created))
		}
		if rc.HLDToManifestPipelineCreated() {
			t.Error("pipeline reported created although its build was not queued")
		}
		if rc.Status() != "Incomplete" {
			t.Errorf("Status() = %q", rc.Status())
		}
	})

	t.Run("cancelled context stops before the next step", func(t *testing.T) {
		t.Parallel()

		h := newHarness()
		rc := NewContext("org", "project", "token", "/ws")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := h.orchestrator().Run(ctx, rc); !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
		if len(h.projects.names) != 0 {
			t.Error("project step ran on a cancelled context")
		}
		if ok, _ := afero.Exists(h.fs, "/ws/setup.log"); !ok {
			t.Error("status log was not written")
		}
	})
}

func TestOrchestratorProgress(t *testing.T) {
	t.Parallel()

	h := newHarness()
	o := h.orchestrator()

	var calls []string
	o.Progress = func(done, total int, step string) {
		calls = append(calls, fmt.Sprintf("%d/%d %s", done, total, step))
	}

	if err := o.Run(context.Background(), NewContext("org", "project", "token", "/ws")); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"0/5 project",
		"1/5 hld repository",
		"2/5 manifest repository",
		"3/5 application repository",
		"4/5 hld to manifest pipeline",
		"5/5 ",
	}
	if strings.Join(calls, "|") != strings.Join(want, "|") {
		t.Errorf("progress = %q, want %q", calls, want)
	}
}
